package main

import (
	"fmt"
	"os"

	"github.com/kailas-cloud/techsearch/cmd/techsearchctl/command"
)

func main() {
	if err := command.NewRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
