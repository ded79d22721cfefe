// Package main provides the entry point for the textgraph CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/raphaelgruber/textgraph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !errors.Is(err, cli.ErrRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
