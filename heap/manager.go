package heap

import (
	"loxvm/hashtable"
	"loxvm/value"
)

// Manager owns every object allocated while a program runs: the
// known-objects list (a slice a future collector could walk as GC roots)
// and the string-intern table, keyed by content so `"a" + "b"` and the
// literal "ab" produce the same *ObjString.
type Manager struct {
	allocator *Allocator
	objects   []*ObjString
	strings   *hashtable.Table
}

// NewManager returns an empty Manager backed by the given Allocator.
func NewManager(allocator *Allocator) *Manager {
	return &Manager{
		allocator: allocator,
		strings:   hashtable.New(),
	}
}

// InternString returns the canonical *ObjString for s: the intern table is
// searched by content first, and only if no equal string is known is a new
// ObjString allocated, registered and returned.
func (m *Manager) InternString(s string) *ObjString {
	hash := fnv1a(s)
	if existing, ok := m.strings.FindByContent(hash, func(k hashtable.Key) bool {
		return k.(*ObjString).chars == s
	}); ok {
		return existing.(*ObjString)
	}

	obj := &ObjString{chars: s, hash: hash}
	m.register(obj)
	return obj
}

// ConcatStrings builds the interned ObjString for a.Chars()+b.Chars(),
// the way the VM's OpAdd implements string concatenation.
func (m *Manager) ConcatStrings(a, b *ObjString) *ObjString {
	return m.InternString(a.chars + b.chars)
}

func (m *Manager) register(obj *ObjString) {
	m.objects = append(m.objects, obj)
	// The intern table is used purely as a set: the key is the object
	// itself, so the stored value is never read.
	m.strings.Insert(obj, value.Nil)
	m.allocator.Allocate(len(obj.chars))
}

// ObjectCount reports how many distinct objects the manager has
// registered, for diagnostics and tests.
func (m *Manager) ObjectCount() int {
	return len(m.objects)
}

// BytesInUse reports the allocator's live-byte total.
func (m *Manager) BytesInUse() int {
	return m.allocator.BytesInUse()
}
