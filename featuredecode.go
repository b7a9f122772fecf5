package featuredecode

import (
	"github.com/wippyai/featuredecode/decoder"
)

// Memory represents a host's linear memory that decoded arrays can be
// exported into.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates memory in linear memory.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

var defaultDecoder = decoder.NewWithDefaults()

// Decode decodes one serialized tensorflow.Example with default options.
// See decoder.Decoder.Decode.
func Decode(serialized []byte) (decoder.Result, error) {
	return defaultDecoder.Decode(serialized)
}
