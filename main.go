package main

import "github.com/skiff-cloud/skiff/cmd"

func main() {
	cmd.Execute()
}
