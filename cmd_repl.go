package main

import (
	"fmt"
	"io"

	"github.com/chzyer/readline"

	"loxvm/runner"
)

// runREPL prints a `>` prompt, reads one line, interprets it, and loops
// until an empty line is entered. Each line shares one Interpreter so
// earlier `var` declarations stay visible to later lines.
func runREPL(in io.Reader, out io.Writer) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		Stdin:       io.NopCloser(in),
		Stdout:      out,
		HistoryFile: "",
	})
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	defer rl.Close()

	interp := runner.New(out)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return
		}
		if line == "" {
			return
		}

		if err := interp.Interpret(line); err != nil {
			fmt.Fprintln(out, err)
		}
	}
}
