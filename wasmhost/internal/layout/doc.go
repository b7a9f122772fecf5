// Package layout computes Canonical ABI size, alignment and field offsets
// for the WIT types used to describe exported arrays.
//
//	info := layout.NewCalculator().Calculate(witType)
//	// info.Size, info.Align, info.FieldOffs
package layout
