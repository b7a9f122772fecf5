package array

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/wippyai/featuredecode/resource"
)

// capsule owns the storage behind one array. It is installed as the
// allocator of the array's memory.Buffer, so the buffer's last Release
// lands in Free, which runs the release hook exactly once.
type capsule struct {
	// mem is nil for adopted value lists
	mem       memory.Allocator
	owned     any
	table     *resource.Table
	onRelease func()
	handle    resource.Handle
	once      sync.Once
}

// StorageInfo is the ledger value recorded for an array's storage.
type StorageInfo struct {
	Name  string
	DType DType
	Len   int
}

func newCapsule(c *config, mem memory.Allocator, owned any) *capsule {
	return &capsule{
		mem:       mem,
		owned:     owned,
		table:     c.table,
		onRelease: c.onRelease,
	}
}

func (c *capsule) register(class resource.Class, size int, info StorageInfo) {
	if c.table != nil {
		c.handle = c.table.Insert(class, size, info)
	}
}

func (c *capsule) Allocate(size int) []byte {
	if c.mem != nil {
		return c.mem.Allocate(size)
	}
	return memory.DefaultAllocator.Allocate(size)
}

func (c *capsule) Reallocate(size int, b []byte) []byte {
	if c.mem != nil {
		return c.mem.Reallocate(size, b)
	}
	return memory.DefaultAllocator.Reallocate(size, b)
}

// Free releases the storage. Only the first call has any effect.
func (c *capsule) Free(b []byte) {
	c.once.Do(func() {
		if c.mem != nil {
			c.mem.Free(b)
		}
		c.owned = nil
		if c.handle != 0 {
			c.table.Remove(c.handle)
		}
		if c.onRelease != nil {
			c.onRelease()
		}
	})
}
