package wire

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Writer appends protobuf wire data.
type Writer struct {
	buf []byte
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Tag writes a field tag.
func (w *Writer) Tag(num protowire.Number, typ protowire.Type) {
	w.buf = protowire.AppendTag(w.buf, num, typ)
}

// Varint writes a base-128 varint without a tag.
func (w *Writer) Varint(v uint64) {
	w.buf = protowire.AppendVarint(w.buf, v)
}

// Fixed32 writes a little-endian 32-bit value without a tag.
func (w *Writer) Fixed32(v uint32) {
	w.buf = protowire.AppendFixed32(w.buf, v)
}

// Float32 writes a float as fixed32 without a tag.
func (w *Writer) Float32(v float32) {
	w.Fixed32(math.Float32bits(v))
}

// BytesField writes a tagged length-delimited field.
func (w *Writer) BytesField(num protowire.Number, b []byte) {
	w.Tag(num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, b)
}

// StringField writes a tagged string field.
func (w *Writer) StringField(num protowire.Number, s string) {
	w.Tag(num, protowire.BytesType)
	w.buf = protowire.AppendString(w.buf, s)
}

// Message writes a tagged nested message whose body is produced by fn.
func (w *Writer) Message(num protowire.Number, fn func(*Writer)) {
	var body Writer
	fn(&body)
	w.BytesField(num, body.buf)
}

// Raw appends pre-encoded bytes.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}
