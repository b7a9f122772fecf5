package wasmhost

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/featuredecode/array"
	"github.com/wippyai/featuredecode/wasmhost/internal/layout"
)

// Discriminants of the dtype enum, in case order.
const (
	DTypeInt64 uint8 = iota
	DTypeFloat32
	DTypeFixedBytes
)

// DTypeEnum is the WIT enum describing an exported array's element type:
//
//	enum dtype { int64, float32, fixed-bytes }
var DTypeEnum = &wit.TypeDef{
	Kind: &wit.Enum{Cases: []wit.EnumCase{
		{Name: "int64"},
		{Name: "float32"},
		{Name: "fixed-bytes"},
	}},
}

// ArrayRecord is the WIT record written to guest memory for every exported
// array:
//
//	record feature-array {
//	    name: string,
//	    dtype: dtype,
//	    width: u32,
//	    length: u32,
//	    data: list<u8>,
//	}
var ArrayRecord = &wit.TypeDef{
	Kind: &wit.Record{Fields: []wit.Field{
		{Name: "name", Type: wit.String{}},
		{Name: "dtype", Type: DTypeEnum},
		{Name: "width", Type: wit.U32{}},
		{Name: "length", Type: wit.U32{}},
		{Name: "data", Type: &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}},
	}},
}

// Schema is list<feature-array>, the type of a whole exported example.
var Schema = &wit.TypeDef{Kind: &wit.List{Type: ArrayRecord}}

func dtypeTag(d array.DType) uint8 {
	switch d.Kind {
	case array.KindInt64:
		return DTypeInt64
	case array.KindFloat32:
		return DTypeFloat32
	default:
		return DTypeFixedBytes
	}
}

func dtypeFromTag(tag uint8, width uint32) (array.DType, bool) {
	switch tag {
	case DTypeInt64:
		return array.Int64, true
	case DTypeFloat32:
		return array.Float32, true
	case DTypeFixedBytes:
		return array.FixedBytes(int(width)), true
	default:
		return array.DType{}, false
	}
}

// recordLayout is computed once; the types above are fixed.
var recordLayout = layout.NewCalculator().Calculate(ArrayRecord)
