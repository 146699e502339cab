package main

import (
	"os"

	"notecraft/cmd/notecraft/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
