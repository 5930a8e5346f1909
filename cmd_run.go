package main

import (
	"fmt"
	"os"

	"loxvm/runner"
)

// runFile reads path, interprets it once, and returns the process exit
// code: 0 on success, non-zero on any compile or runtime error.
func runFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		return 1
	}

	if err := runner.Interpret(string(data), os.Stdout); err != nil {
		ierr, ok := err.(*runner.InterpretError)
		if !ok {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if len(ierr.CompileErrors) > 0 {
			for _, ce := range ierr.CompileErrors {
				fmt.Fprintln(os.Stderr, ce)
			}
			return 65
		}
		fmt.Fprintln(os.Stderr, ierr.RuntimeErr)
		return 70
	}
	return 0
}
