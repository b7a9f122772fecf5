// Package arrowhost hands decoded arrays to Apache Arrow without copying.
//
// The Arrow array shares the decoded array's memory.Buffer and holds its own
// reference to it, so either side may be released first. Storage is freed
// when both have been released.
package arrowhost

import (
	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	fdarray "github.com/wippyai/featuredecode/array"
	"github.com/wippyai/featuredecode/decoder"
	fderrors "github.com/wippyai/featuredecode/errors"
)

// DataType returns the Arrow type matching d.
func DataType(d fdarray.DType) (arrow.DataType, error) {
	switch d.Kind {
	case fdarray.KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case fdarray.KindFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case fdarray.KindFixedBytes:
		return &arrow.FixedSizeBinaryType{ByteWidth: d.Width}, nil
	default:
		return nil, fderrors.New(fderrors.PhaseExport, fderrors.KindUnsupported).
			Value(d).
			Detail("no arrow type for dtype %s", d).
			Build()
	}
}

// ToArrow wraps a as an Arrow array over the same storage. The caller owns
// the returned array and must Release it.
func ToArrow(a *fdarray.Array) (arrow.Array, error) {
	if a.Released() {
		return nil, fderrors.Released(fderrors.PhaseExport, "array")
	}
	dt, err := DataType(a.DType())
	if err != nil {
		return nil, err
	}

	data := arrowarray.NewData(dt, a.Len(), []*memory.Buffer{nil, a.Buffer()}, nil, 0, 0)
	defer data.Release()
	return arrowarray.MakeFromData(data), nil
}

// ExportAll converts every array of res. On error, arrays already converted
// are released and nil is returned.
func ExportAll(res decoder.Result) (map[string]arrow.Array, error) {
	out := make(map[string]arrow.Array, len(res))
	for _, name := range res.Names() {
		arr, err := ToArrow(res[name])
		if err != nil {
			for _, a := range out {
				a.Release()
			}
			return nil, fderrors.WithField(err, name)
		}
		out[name] = arr
	}
	return out, nil
}

// Schema describes res as an Arrow schema, one field per feature in name
// order. Field metadata carries the numpy-style dtype.
func Schema(res decoder.Result) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(res))
	for _, name := range res.Names() {
		a := res[name]
		dt, err := DataType(a.DType())
		if err != nil {
			return nil, fderrors.WithField(err, name)
		}
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     dt,
			Metadata: arrow.NewMetadata([]string{"dtype"}, []string{a.DType().String()}),
		})
	}
	return arrow.NewSchema(fields, nil), nil
}

// Record assembles res into a single Arrow record. All features must have
// the same length.
func Record(res decoder.Result) (arrow.Record, error) {
	schema, err := Schema(res)
	if err != nil {
		return nil, err
	}

	names := res.Names()
	rows := -1
	for _, name := range names {
		n := res[name].Len()
		if rows >= 0 && n != rows {
			return nil, fderrors.New(fderrors.PhaseExport, fderrors.KindInvalidInput).
				Field(name).
				Detail("length %d differs from %d", n, rows).
				Build()
		}
		rows = n
	}
	rows = max(rows, 0)

	cols, err := ExportAll(res)
	if err != nil {
		return nil, err
	}
	ordered := make([]arrow.Array, len(names))
	for i, name := range names {
		ordered[i] = cols[name]
	}
	rec := arrowarray.NewRecord(schema, ordered, int64(rows))
	for _, c := range ordered {
		c.Release()
	}
	return rec, nil
}
