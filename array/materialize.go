package array

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow/memory"

	fderrors "github.com/wippyai/featuredecode/errors"
	"github.com/wippyai/featuredecode/resource"
)

// MaterializeNumeric wraps values as an array without copying them. The
// array takes ownership: values must not be modified or reused by the
// caller afterwards. No allocator is consulted.
func MaterializeNumeric[T int64 | float32](values []T, opts ...Option) *Array {
	c := newConfig(opts)

	var dtype DType
	switch any(values).(type) {
	case []int64:
		dtype = Int64
	case []float32:
		dtype = Float32
	}

	data := byteView(values)
	cp := newCapsule(&c, nil, values)
	cp.register(resource.ClassOwned, len(data), StorageInfo{Name: c.name, DType: dtype, Len: len(values)})

	return newArray(memory.NewBufferWithAllocator(data, cp), dtype, len(values))
}

// MaterializeBytes copies byte strings into a single zero padded buffer of
// len(values)*maxLen+1 bytes taken from the configured allocator. Each
// value occupies one maxLen-wide slot; the final byte is a zero guard.
// Embedded zero bytes are copied as is.
//
// An empty list has no element width and fails with errors.ErrEmptyField
// unless WithEmptyAllowed is set.
func MaterializeBytes(values [][]byte, opts ...Option) (*Array, error) {
	c := newConfig(opts)

	if len(values) == 0 && !c.allowEmpty {
		return nil, fderrors.EmptyField(fderrors.PhaseMaterialize, c.name)
	}

	width := 0
	for _, v := range values {
		width = max(width, len(v))
	}
	n := len(values)
	if width > 0 && n > (math.MaxInt-1)/width {
		return nil, fderrors.New(fderrors.PhaseMaterialize, fderrors.KindAllocation).
			Field(c.name).
			Detail("%d values of width %d overflow the buffer size", n, width).
			Build()
	}
	size := n*width + 1

	buf := c.mem.Allocate(size)
	if len(buf) < size {
		return nil, fderrors.AllocationFailed(fderrors.PhaseMaterialize, uint32(size))
	}
	buf = buf[:size]

	for i, v := range values {
		slot := buf[i*width : (i+1)*width]
		k := copy(slot, v)
		clear(slot[k:])
	}
	buf[size-1] = 0

	dtype := FixedBytes(width)
	cp := newCapsule(&c, c.mem, nil)
	cp.register(resource.ClassAllocated, size, StorageInfo{Name: c.name, DType: dtype, Len: n})

	return newArray(memory.NewBufferWithAllocator(buf, cp), dtype, n), nil
}
