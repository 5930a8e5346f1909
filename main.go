package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// The primary CLI surface is `tool [-f|--file PATH]`: with a file, run it
// once and exit; without one, start the REPL. `disasm` is registered as
// a subcommand for inspecting compiled bytecode during development.
func main() {
	var filePath string
	flag.StringVar(&filePath, "f", "", "path to a Lox source file to run")
	flag.StringVar(&filePath, "file", "", "path to a Lox source file to run")
	flag.Parse()

	if filePath != "" {
		os.Exit(runFile(filePath))
	}

	if args := flag.Args(); len(args) > 0 && args[0] == "disasm" {
		subcommands.Register(subcommands.HelpCommand(), "")
		subcommands.Register(&disasmCmd{}, "")
		ctx := context.Background()
		os.Exit(int(subcommands.Execute(ctx)))
	}

	if len(flag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "unrecognized arguments: %v\n", flag.Args())
		os.Exit(int(subcommands.ExitUsageError))
	}

	runREPL(os.Stdin, os.Stdout)
}
