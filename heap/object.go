// Package heap owns every Lox value that outlives a single stack slot:
// today that is only strings, represented as a discriminated record so
// further variants (functions, classes) can be added without disturbing
// value.Value.
package heap

import "loxvm/value"

// ObjString is the sole Object variant: an immutable byte buffer with a
// precomputed hash. Two ObjStrings with equal content are never both
// live at once — Manager's intern table guarantees that — so pointer
// identity doubles as content equality everywhere else in the VM.
type ObjString struct {
	chars string
	hash  uint32
}

func (s *ObjString) IsObject() {}

// String returns the string's content, the way `print` renders it.
func (s *ObjString) String() string {
	return s.chars
}

// Chars returns the string's content.
func (s *ObjString) Chars() string {
	return s.chars
}

// Hash returns the string's precomputed FNV-1a hash, satisfying
// hashtable.Key.
func (s *ObjString) Hash() uint32 {
	return s.hash
}

var _ value.Object = (*ObjString)(nil)

// fnv1a implements FNV-1a: offset basis 2166136261, prime 16777619, one
// XOR-then-multiply per byte.
func fnv1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
