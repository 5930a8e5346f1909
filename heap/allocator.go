package heap

import "sync/atomic"

// Allocator is an accounting wrapper: it does not itself allocate memory
// (Go's GC does that), but it tracks a running live-byte total so the
// heap manager can report how many string bytes it has registered.
type Allocator struct {
	bytesInUse int64
}

// NewAllocator returns an Allocator starting at zero bytes in use.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate records n additional bytes as live.
func (a *Allocator) Allocate(n int) {
	atomic.AddInt64(&a.bytesInUse, int64(n))
}

// Free records n bytes as released.
func (a *Allocator) Free(n int) {
	atomic.AddInt64(&a.bytesInUse, -int64(n))
}

// BytesInUse reports the current accounted live-byte total.
func (a *Allocator) BytesInUse() int {
	return int(atomic.LoadInt64(&a.bytesInUse))
}
