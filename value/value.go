// Package value defines the runtime representation of Lox values: the
// tagged union every chunk constant, every stack slot, and every global's
// payload is stored as.
package value

import "fmt"

// Kind discriminates the variant a Value currently holds.
type Kind int

const (
	KindNil Kind = iota
	KindBoolean
	KindNumber
	KindObj
)

// Object is implemented by anything heap-allocated that a Value can
// reference. The only implementor today is *heap.ObjString; the marker
// method exists so new variants (functions, classes) can be added later
// without changing Value's shape.
type Object interface {
	IsObject()
	fmt.Stringer
}

// Value is a copy-cheap tagged union: exactly one of the typed fields is
// meaningful, selected by Kind. Values are passed and stored by value
// throughout the compiler and VM, never boxed.
type Value struct {
	Kind    Kind
	Number  float64
	Boolean bool
	Obj     Object
}

// Nil is the singular nil value.
var Nil = Value{Kind: KindNil}

// NewNumber wraps a float64 as a Value.
func NewNumber(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// NewBoolean wraps a bool as a Value.
func NewBoolean(b bool) Value {
	return Value{Kind: KindBoolean, Boolean: b}
}

// NewObj wraps a heap object as a Value.
func NewObj(o Object) Value {
	return Value{Kind: KindObj, Obj: o}
}

// IsFalsey reports whether v is one of Lox's two falsey values: nil or
// the boolean false. Every other value, including 0 and "", is truthy.
func (v Value) IsFalsey() bool {
	switch v.Kind {
	case KindNil:
		return true
	case KindBoolean:
		return !v.Boolean
	default:
		return false
	}
}

// Equal implements Lox's `==`: same-variant structural equality, with
// Obj equality reducing to reference identity (interned strings compare
// equal exactly when they are the same canonical heap object).
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBoolean:
		return v.Boolean == other.Boolean
	case KindNumber:
		return v.Number == other.Number
	case KindObj:
		return v.Obj == other.Obj
	default:
		return false
	}
}

// String renders v the way `print` writes it to the output sink.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBoolean:
		if v.Boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.Number)
	case KindObj:
		return v.Obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
