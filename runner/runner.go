// Package runner wires the lexer, compiler, and VM together behind a
// single `Interpret` entry point.
package runner

import (
	"io"

	"loxvm/compiler"
	"loxvm/heap"
	"loxvm/lexer"
	"loxvm/vm"
)

// InterpretError is returned by Interpret on failure: either a list of
// compile-time errors (scan or parse) or a single VM error, never both.
type InterpretError struct {
	CompileErrors []error
	RuntimeErr    error
}

func (e *InterpretError) Error() string {
	if e.RuntimeErr != nil {
		return e.RuntimeErr.Error()
	}
	if len(e.CompileErrors) == 1 {
		return e.CompileErrors[0].Error()
	}
	msg := ""
	for i, err := range e.CompileErrors {
		if i > 0 {
			msg += "\n"
		}
		msg += err.Error()
	}
	return msg
}

// Interpreter owns the state that should persist across repeated
// Interpret calls within one REPL session: the heap manager (so strings
// stay interned) and the VM (so globals defined in one line survive into
// the next).
type Interpreter struct {
	heap    *heap.Manager
	machine *vm.VM
}

// New returns an Interpreter with a fresh heap and VM, writing Print
// output to out.
func New(out io.Writer) *Interpreter {
	mgr := heap.NewManager(heap.NewAllocator())
	return &Interpreter{
		heap:    mgr,
		machine: vm.New(mgr, out),
	}
}

// Interpret scans, compiles, and runs source, sharing this Interpreter's
// heap and globals with any prior call (the REPL's accumulating
// behavior). A fresh one-shot Interpreter should be used per file run.
func (i *Interpreter) Interpret(source string) error {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return &InterpretError{CompileErrors: []error{err}}
	}

	c, compileErrs := compiler.Compile(tokens, i.heap)
	if len(compileErrs) > 0 {
		return &InterpretError{CompileErrors: compileErrs}
	}

	if err := i.machine.Run(c); err != nil {
		return &InterpretError{RuntimeErr: err}
	}
	return nil
}

// Interpret runs source once against a fresh Interpreter.
func Interpret(source string, out io.Writer) error {
	return New(out).Interpret(source)
}
