package heap

import "testing"

func TestInternStringDeduplicates(t *testing.T) {
	m := NewManager(NewAllocator())
	a := m.InternString("hello")
	b := m.InternString("hello")
	if a != b {
		t.Fatal("expected two equal-content interns to return the same object")
	}
	if m.ObjectCount() != 1 {
		t.Fatalf("ObjectCount() = %d, want 1", m.ObjectCount())
	}
}

func TestInternStringDistinctContent(t *testing.T) {
	m := NewManager(NewAllocator())
	a := m.InternString("hello")
	b := m.InternString("world")
	if a == b {
		t.Fatal("expected distinct content to produce distinct objects")
	}
	if m.ObjectCount() != 2 {
		t.Fatalf("ObjectCount() = %d, want 2", m.ObjectCount())
	}
}

func TestConcatStringsInternsResult(t *testing.T) {
	m := NewManager(NewAllocator())
	a := m.InternString("foo")
	b := m.InternString("bar")
	concat := m.ConcatStrings(a, b)
	if concat.Chars() != "foobar" {
		t.Fatalf("Chars() = %q, want %q", concat.Chars(), "foobar")
	}

	direct := m.InternString("foobar")
	if concat != direct {
		t.Fatal("expected concatenation to intern against an equal literal")
	}
}

func TestHashMatchesFNV1a(t *testing.T) {
	// FNV-1a offset basis alone, for the empty string.
	if got := fnv1a(""); got != 2166136261 {
		t.Errorf("fnv1a(\"\") = %d, want 2166136261", got)
	}
}

func TestBytesInUseTracksInternedContent(t *testing.T) {
	m := NewManager(NewAllocator())
	m.InternString("abc")
	if m.BytesInUse() != 3 {
		t.Fatalf("BytesInUse() = %d, want 3", m.BytesInUse())
	}
	m.InternString("abc")
	if m.BytesInUse() != 3 {
		t.Fatalf("BytesInUse() after duplicate intern = %d, want 3", m.BytesInUse())
	}
}
