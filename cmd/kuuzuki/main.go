// Package main provides the entry point for the kuuzuki CLI.
package main

import (
	"fmt"
	"os"

	"github.com/kuuzuki-ai/kuuzuki/cmd/kuuzuki/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
