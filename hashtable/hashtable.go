// Package hashtable implements a generic open-addressed hash table: it
// backs both the VM's globals environment and the heap manager's
// string-intern table.
package hashtable

import "loxvm/value"

// Key is implemented by anything that can be a table key. Interned
// strings satisfy it via heap.ObjString.Hash(); equality between two keys
// is Go interface equality, which for pointer-backed keys is pointer
// identity — exactly the interned-string identity a content-deduplicated
// string pool requires.
type Key interface {
	Hash() uint32
}

// entry holds one table slot: an empty slot has a nil key and a Nil
// value; a tombstone (a deleted slot that must not break later probes)
// has a nil key and a Boolean(true) value. No separate flag is needed
// because no live entry is ever inserted with that same (nil key) shape.
type entry struct {
	key   Key
	value value.Value
}

func emptyEntry() entry {
	return entry{value: value.Nil}
}

func isTombstone(e entry) bool {
	return e.key == nil && e.value.Kind == value.KindBoolean && e.value.Boolean
}

func isEmpty(e entry) bool {
	return e.key == nil && !isTombstone(e)
}

const maxLoad = 0.75

// Table is the open-addressed hash table: power-of-two capacity grown by
// doubling, linear probing, tombstone-aware deletion.
type Table struct {
	entries  []entry
	count    int // live entries plus tombstones
	capacity int
}

// New returns an empty Table; no backing array is allocated until the
// first Insert.
func New() *Table {
	return &Table{}
}

// Count reports the number of occupied slots: live entries plus any
// tombstones left by Delete since the table last grew (growing drops
// tombstones).
func (t *Table) Count() int {
	return t.count
}

// Get returns the value stored under key, or (_, false) if absent.
func (t *Table) Get(key Key) (value.Value, bool) {
	if t.capacity == 0 {
		return value.Nil, false
	}
	idx := t.findEntry(key)
	e := t.entries[idx]
	if e.key == nil {
		return value.Nil, false
	}
	return e.value, true
}

// Insert writes value under key, growing the table first if the load
// factor would exceed 0.75. It reports whether the key was newly
// inserted (as opposed to replacing an existing entry).
func (t *Table) Insert(key Key, val value.Value) bool {
	if float64(t.count+1) > float64(t.capacity)*maxLoad {
		t.grow()
	}

	idx := t.findEntry(key)
	e := &t.entries[idx]
	isNewKey := e.key == nil
	if isNewKey && !isTombstone(*e) {
		t.count++
	}
	e.key = key
	e.value = val
	return isNewKey
}

// Delete writes a tombstone over key's slot, reporting whether a live key
// was actually removed. count is deliberately not decremented: it bounds
// probe length across tombstones.
func (t *Table) Delete(key Key) bool {
	if t.count == 0 {
		return false
	}
	idx := t.findEntry(key)
	e := &t.entries[idx]
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = value.NewBoolean(true)
	return true
}

// findEntry performs the linear probe: it returns the first slot whose
// key equals target, or the first empty-non-tombstone slot if no such key
// exists, preferring to reuse the first tombstone seen along the way.
func (t *Table) findEntry(target Key) int {
	index := int(target.Hash()) % t.capacity
	tombstone := -1
	for {
		e := t.entries[index]
		if e.key == nil {
			if isTombstone(e) {
				if tombstone == -1 {
					tombstone = index
				}
			} else {
				if tombstone != -1 {
					return tombstone
				}
				return index
			}
		} else if e.key == target {
			return index
		}
		index = (index + 1) % t.capacity
	}
}

// FindByContent probes by hash for an entry whose key satisfies match,
// without requiring a candidate Key value up front. The intern table uses
// this during string creation, when there is no canonical key yet to
// compare by identity, only raw content to compare against whatever keys
// are already present.
func (t *Table) FindByContent(hash uint32, match func(Key) bool) (Key, bool) {
	if t.capacity == 0 {
		return nil, false
	}
	index := int(hash) % t.capacity
	for {
		e := t.entries[index]
		if isEmpty(e) {
			return nil, false
		}
		if e.key != nil && match(e.key) {
			return e.key, true
		}
		index = (index + 1) % t.capacity
	}
}

func (t *Table) grow() {
	newCapacity := 8
	if t.capacity >= 8 {
		newCapacity = t.capacity * 2
	}
	newEntries := make([]entry, newCapacity)
	for i := range newEntries {
		newEntries[i] = emptyEntry()
	}

	newCount := 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		idx := findEntryIn(newEntries, e.key, newCapacity)
		newEntries[idx] = e
		newCount++
	}

	t.entries = newEntries
	t.capacity = newCapacity
	t.count = newCount
}

func findEntryIn(entries []entry, target Key, capacity int) int {
	index := int(target.Hash()) % capacity
	for {
		e := entries[index]
		if e.key == nil || e.key == target {
			return index
		}
		index = (index + 1) % capacity
	}
}
