package array

import "strconv"

// Kind is the element family of an array.
type Kind uint8

const (
	KindInt64 Kind = iota + 1
	KindFloat32
	KindFixedBytes
)

// DType describes the element type and width of an array. Values render the
// way numpy names them: "int64", "float32", "S<n>".
type DType struct {
	Kind  Kind
	Width int
}

var (
	Int64   = DType{Kind: KindInt64, Width: 8}
	Float32 = DType{Kind: KindFloat32, Width: 4}
)

// FixedBytes returns the dtype of byte strings zero padded to n bytes.
func FixedBytes(n int) DType {
	return DType{Kind: KindFixedBytes, Width: n}
}

func (d DType) String() string {
	switch d.Kind {
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFixedBytes:
		return "S" + strconv.Itoa(d.Width)
	default:
		return "invalid"
	}
}
