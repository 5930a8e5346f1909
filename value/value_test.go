package value

import "testing"

func TestIsFalsey(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Nil, true},
		{NewBoolean(false), true},
		{NewBoolean(true), false},
		{NewNumber(0), false},
		{NewNumber(1), false},
	}
	for _, c := range cases {
		if got := c.v.IsFalsey(); got != c.want {
			t.Errorf("IsFalsey(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !NewNumber(3).Equal(NewNumber(3)) {
		t.Error("expected 3 == 3")
	}
	if NewNumber(3).Equal(NewNumber(4)) {
		t.Error("expected 3 != 4")
	}
	if NewNumber(1).Equal(NewBoolean(true)) {
		t.Error("expected different kinds to never be equal")
	}
	nan := NewNumber(nanValue())
	if nan.Equal(nan) {
		t.Error("expected NaN != NaN")
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestString(t *testing.T) {
	if NewNumber(3).String() != "3" {
		t.Errorf("got %q, want %q", NewNumber(3).String(), "3")
	}
	if NewNumber(3.5).String() != "3.5" {
		t.Errorf("got %q, want %q", NewNumber(3.5).String(), "3.5")
	}
	if Nil.String() != "nil" {
		t.Errorf("got %q, want nil", Nil.String())
	}
	if NewBoolean(true).String() != "true" {
		t.Errorf("got %q, want true", NewBoolean(true).String())
	}
}
