package runner

import (
	"strings"
	"testing"
)

func TestInterpretSuccess(t *testing.T) {
	var out strings.Builder
	if err := Interpret(`print 1 + 2 + -3 * 4/(3-5);`, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "9\n" {
		t.Fatalf("got %q, want %q", out.String(), "9\n")
	}
}

func TestInterpretCompileErrors(t *testing.T) {
	var out strings.Builder
	err := Interpret(`"hi" "i"; !; naf;`, &out)
	if err == nil {
		t.Fatal("expected an error")
	}
	ierr, ok := err.(*InterpretError)
	if !ok {
		t.Fatalf("expected *InterpretError, got %T", err)
	}
	if len(ierr.CompileErrors) != 2 {
		t.Fatalf("got %d compile errors, want 2: %v", len(ierr.CompileErrors), ierr.CompileErrors)
	}
}

func TestInterpretRuntimeError(t *testing.T) {
	var out strings.Builder
	err := Interpret(`print x;`, &out)
	if err == nil {
		t.Fatal("expected an error")
	}
	ierr, ok := err.(*InterpretError)
	if !ok {
		t.Fatalf("expected *InterpretError, got %T", err)
	}
	if ierr.RuntimeErr == nil {
		t.Fatal("expected RuntimeErr to be set")
	}
}

func TestRepeatedInterpretSharesGlobals(t *testing.T) {
	var out strings.Builder
	interp := New(&out)
	if err := interp.Interpret(`var i = 1; print i;`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := interp.Interpret(`print i + 1;`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "1\n2\n" {
		t.Fatalf("got %q, want %q", out.String(), "1\n2\n")
	}
}
