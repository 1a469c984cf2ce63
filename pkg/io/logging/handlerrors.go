package logging

import (
	"fmt"
	"log"
	"runtime"
)

func HandleError(err error, service string, operation string, exitonError ...bool) {
	_, file, line, _ := runtime.Caller(1)
	fmt.Printf("Error pointer: %s:%d\n", file, line)
	if len(exitonError) >= 1 && !exitonError[0] {
		log.Printf("Service: %s, Operation: %s, Error: %s\n", service, operation, err)
	} else {
		log.Fatalf("Service: %s, Operation: %s, Error: %s\n", service, operation, err)
	}
}
