package zip

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skiff-cloud/skiff/pkg/io/logging"
)

// Zip writes every section of a plan as a dated JSON entry inside one
// archive named after the project.
func Zip(path string, project string, values *map[string]interface{}) {
	today := time.Now().Format("20060102")
	fileSeparator := string(filepath.Separator)
	project = filepath.Clean(strings.Replace(project, fileSeparator, "-", -1))
	filePtr, err := os.Create(fmt.Sprintf("%s%sskiff-%s_%s.zip", filepath.Clean(path), fileSeparator, project, today))
	if err != nil {
		logging.HandleError(err, "Zip", "Error on creating output folder")
	}
	defer func() {
		if err := filePtr.Close(); err != nil {
			logging.HandleError(err, "Zip", "Error closing file")
		}
	}()

	zipWriter := zip.NewWriter(filePtr)
	defer zipWriter.Close()

	for key, value := range *values {
		writer, err := zipWriter.Create(fmt.Sprintf("%s_%s.json", key, today))
		if err != nil {
			fmt.Println(err)
		}

		_, err = writer.Write(logging.PrettyJSON(value))
		if err != nil {
			logging.HandleError(err, "Zip", "Error on writing file content")
		}
	}
}
