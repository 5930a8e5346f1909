package hashtable

import (
	"fmt"
	"testing"

	"loxvm/value"
)

// strKey is a minimal Key implementation for exercising Table in
// isolation, without depending on the heap package.
type strKey struct {
	s string
	h uint32
}

func newStrKey(s string) *strKey {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return &strKey{s: s, h: h}
}

func (k *strKey) Hash() uint32 { return k.h }

func TestInsertGetDelete(t *testing.T) {
	tbl := New()
	a := newStrKey("a")
	b := newStrKey("b")

	if !tbl.Insert(a, value.NewNumber(1)) {
		t.Fatal("expected a to be a new key")
	}
	if tbl.Insert(a, value.NewNumber(2)) {
		t.Fatal("expected re-insert of a to report not-new")
	}
	got, ok := tbl.Get(a)
	if !ok || got.Number != 2 {
		t.Fatalf("Get(a) = %v, %v; want 2, true", got, ok)
	}

	if _, ok := tbl.Get(b); ok {
		t.Fatal("expected b to be absent")
	}

	if !tbl.Delete(a) {
		t.Fatal("expected Delete(a) to succeed")
	}
	if _, ok := tbl.Get(a); ok {
		t.Fatal("expected a to be gone after Delete")
	}
	if tbl.Delete(a) {
		t.Fatal("expected second Delete(a) to report false")
	}
}

func TestDeleteThenInsertReusesTombstone(t *testing.T) {
	tbl := New()
	a := newStrKey("a")
	tbl.Insert(a, value.NewNumber(1))
	tbl.Delete(a)

	b := newStrKey("b")
	tbl.Insert(b, value.NewNumber(9))
	got, ok := tbl.Get(b)
	if !ok || got.Number != 9 {
		t.Fatalf("Get(b) = %v, %v; want 9, true", got, ok)
	}

	// Re-inserting a lands in its own tombstone, so count (which already
	// includes the tombstone) does not grow.
	before := tbl.Count()
	if !tbl.Insert(a, value.NewNumber(3)) {
		t.Fatal("expected re-insert of deleted a to report new")
	}
	if tbl.Count() != before {
		t.Fatalf("Count() = %d after tombstone reuse, want %d", tbl.Count(), before)
	}
}

func TestFindByContent(t *testing.T) {
	tbl := New()
	hello := newStrKey("hello")
	tbl.Insert(hello, value.Nil)

	found, ok := tbl.FindByContent(hello.Hash(), func(k Key) bool {
		return k.(*strKey).s == "hello"
	})
	if !ok || found != Key(hello) {
		t.Fatalf("FindByContent did not recover the inserted key")
	}

	_, ok = tbl.FindByContent(newStrKey("world").Hash(), func(k Key) bool {
		return k.(*strKey).s == "world"
	})
	if ok {
		t.Fatal("expected FindByContent to report absent for unknown content")
	}
}

func TestGrowthPreservesAllEntries(t *testing.T) {
	tbl := New()
	const n = 2500
	keys := make([]*strKey, n)
	for i := 0; i < n; i++ {
		keys[i] = newStrKey(fmt.Sprintf("key-%d", i))
		tbl.Insert(keys[i], value.NewNumber(float64(i)))
	}

	if tbl.Count() != n {
		t.Fatalf("Count() = %d, want %d", tbl.Count(), n)
	}

	for i, k := range keys {
		got, ok := tbl.Get(k)
		if !ok || got.Number != float64(i) {
			t.Fatalf("Get(key-%d) = %v, %v; want %d, true", i, got, ok, i)
		}
	}
}

func TestEmptyTableGetAndDelete(t *testing.T) {
	tbl := New()
	if _, ok := tbl.Get(newStrKey("x")); ok {
		t.Fatal("expected Get on empty table to report absent")
	}
	if tbl.Delete(newStrKey("x")) {
		t.Fatal("expected Delete on empty table to report false")
	}
}
