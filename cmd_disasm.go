package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"loxvm/compiler"
	"loxvm/heap"
	"loxvm/lexer"
)

// disasmCmd compiles a source file and dumps its chunk's disassembly,
// for inspecting what the compiler emitted without running it.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Compile a source file and print its disassembled bytecode" }
func (*disasmCmd) Usage() string {
	return `disasm <file>:
  Compile the given Lox source file and print its chunk's disassembly
  instead of running it.
`
}
func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (*disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "disasm: file not provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	tokens, err := lexer.New(string(data)).Scan()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	mgr := heap.NewManager(heap.NewAllocator())
	c, errs := compiler.Compile(tokens, mgr)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	fmt.Print(c.Disassemble(args[0]))
	return subcommands.ExitSuccess
}
