package example

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind is the active list encoding of a Feature.
type Kind uint8

const (
	KindUnset Kind = iota
	KindBytes
	KindFloat
	KindInt64
	// KindUnsupported marks a oneof member this package does not know.
	// Feature.Number reports its wire field number.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindBytes:
		return "bytes_list"
	case KindFloat:
		return "float_list"
	case KindInt64:
		return "int64_list"
	case KindUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Feature is one named entry of an Example: exactly one typed value list.
type Feature struct {
	ints   []int64
	floats []float32
	bytes  [][]byte
	number protowire.Number
	kind   Kind
}

// Int64Feature returns an int64_list feature. vals is retained, not copied.
func Int64Feature(vals ...int64) *Feature {
	if vals == nil {
		vals = []int64{}
	}
	return &Feature{kind: KindInt64, ints: vals}
}

// FloatFeature returns a float_list feature. vals is retained, not copied.
func FloatFeature(vals ...float32) *Feature {
	if vals == nil {
		vals = []float32{}
	}
	return &Feature{kind: KindFloat, floats: vals}
}

// BytesFeature returns a bytes_list feature referencing vals.
func BytesFeature(vals ...[]byte) *Feature {
	if vals == nil {
		vals = [][]byte{}
	}
	return &Feature{kind: KindBytes, bytes: vals}
}

// StringFeature returns a bytes_list feature holding the given strings.
func StringFeature(vals ...string) *Feature {
	b := make([][]byte, len(vals))
	for i, v := range vals {
		b[i] = []byte(v)
	}
	return &Feature{kind: KindBytes, bytes: b}
}

// UnsetFeature returns a feature with no populated list.
func UnsetFeature() *Feature {
	return &Feature{}
}

// UnsupportedFeature returns a feature carrying an unknown oneof member.
func UnsupportedFeature(num protowire.Number) *Feature {
	return &Feature{kind: KindUnsupported, number: num}
}

// Kind returns the active encoding.
func (f *Feature) Kind() Kind {
	return f.kind
}

// Number returns the wire field number of the active oneof member.
func (f *Feature) Number() protowire.Number {
	switch f.kind {
	case KindBytes:
		return fieldBytesList
	case KindFloat:
		return fieldFloatList
	case KindInt64:
		return fieldInt64List
	default:
		return f.number
	}
}

// Len returns the number of values in the active list.
func (f *Feature) Len() int {
	switch f.kind {
	case KindBytes:
		return len(f.bytes)
	case KindFloat:
		return len(f.floats)
	case KindInt64:
		return len(f.ints)
	default:
		return 0
	}
}

// Int64s returns the int64 values without transferring ownership.
func (f *Feature) Int64s() []int64 { return f.ints }

// Floats returns the float values without transferring ownership.
func (f *Feature) Floats() []float32 { return f.floats }

// Bytes returns references to the byte string values. For a parsed Example
// they alias the serialized input.
func (f *Feature) Bytes() [][]byte { return f.bytes }

// TakeInt64s moves the int64 list out of the feature. The feature keeps its
// kind but holds no values afterwards.
func (f *Feature) TakeInt64s() []int64 {
	v := f.ints
	f.ints = nil
	return v
}

// TakeFloats moves the float list out of the feature.
func (f *Feature) TakeFloats() []float32 {
	v := f.floats
	f.floats = nil
	return v
}

// switchKind activates k, dropping any values of a different member.
func (f *Feature) switchKind(k Kind, num protowire.Number) {
	if f.kind == k && (k != KindUnsupported || f.number == num) {
		return
	}
	f.ints, f.floats, f.bytes = nil, nil, nil
	f.kind = k
	f.number = 0
	if k == KindUnsupported {
		f.number = num
	}
}
