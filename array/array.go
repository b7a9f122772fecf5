package array

import (
	"sync/atomic"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"

	fderrors "github.com/wippyai/featuredecode/errors"
)

// Array is a one-dimensional, fixed-width array over refcounted storage.
// A new Array holds one reference. Storage is released when the last
// reference to it is gone, including references taken by host adapters
// through Buffer.
type Array struct {
	buf    *memory.Buffer
	dtype  DType
	length int
	refs   atomic.Int64
}

func newArray(buf *memory.Buffer, dtype DType, length int) *Array {
	a := &Array{buf: buf, dtype: dtype, length: length}
	a.refs.Store(1)
	return a
}

// Retain adds a reference and reports whether it did. A released array
// cannot be revived; Retain on it returns false.
func (a *Array) Retain() bool {
	for {
		n := a.refs.Load()
		if n <= 0 {
			return false
		}
		if a.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release drops a reference. Releasing an already released array is a no-op.
func (a *Array) Release() {
	for {
		n := a.refs.Load()
		if n <= 0 {
			return
		}
		if a.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				a.buf.Release()
			}
			return
		}
	}
}

// Released reports whether every reference has been released.
func (a *Array) Released() bool {
	return a.refs.Load() <= 0
}

func (a *Array) DType() DType { return a.dtype }

func (a *Array) Len() int { return a.length }

// Stride is the distance in bytes between consecutive elements.
func (a *Array) Stride() int { return a.dtype.Width }

func (a *Array) Shape() []int { return []int{a.length} }

// Buffer returns the underlying storage. Callers that keep it past the
// array's lifetime must Retain it.
func (a *Array) Buffer() *memory.Buffer { return a.buf }

// Bytes returns the element bytes, Len()*Stride() long, without the trailing
// guard byte of bytes arrays. It returns nil once the array is released.
func (a *Array) Bytes() []byte {
	if a.Released() {
		return nil
	}
	return a.buf.Buf()[:a.length*a.dtype.Width]
}

// Int64s returns the values of an int64 array, aliasing its storage.
func (a *Array) Int64s() []int64 {
	if a.dtype.Kind != KindInt64 || a.Released() {
		return nil
	}
	return view[int64](a.buf.Buf(), a.length)
}

// Float32s returns the values of a float32 array, aliasing its storage.
func (a *Array) Float32s() []float32 {
	if a.dtype.Kind != KindFloat32 || a.Released() {
		return nil
	}
	return view[float32](a.buf.Buf(), a.length)
}

// Value returns the i-th element's bytes, Stride() long.
func (a *Array) Value(i int) ([]byte, error) {
	if a.Released() {
		return nil, fderrors.Released(fderrors.PhaseMaterialize, "array")
	}
	if i < 0 || i >= a.length {
		return nil, fderrors.OutOfBounds(fderrors.PhaseMaterialize, i, a.length)
	}
	w := a.dtype.Width
	return a.buf.Buf()[i*w : (i+1)*w : (i+1)*w], nil
}

func view[T int64 | float32](b []byte, n int) []T {
	if n == 0 {
		return []T{}
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

func byteView[T int64 | float32](v []T) []byte {
	if len(v) == 0 {
		return []byte{}
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), len(v)*int(unsafe.Sizeof(zero)))
}
