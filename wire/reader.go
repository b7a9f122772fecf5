package wire

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Reader walks protobuf wire data with absolute position tracking.
// Length-delimited payloads are returned as sub-slices of the input; the
// reader never copies.
type Reader struct {
	buf  []byte
	pos  int
	base int
}

// NewReader creates a Reader over b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Position returns the absolute byte position in the outermost input.
func (r *Reader) Position() int {
	return r.base + r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Done reports whether all bytes have been consumed.
func (r *Reader) Done() bool {
	return r.pos >= len(r.buf)
}

// ReadTag reads a field tag. It returns io.EOF when the reader is exhausted.
func (r *Reader) ReadTag() (protowire.Number, protowire.Type, error) {
	if r.Done() {
		return 0, 0, io.EOF
	}
	num, typ, n := protowire.ConsumeTag(r.buf[r.pos:])
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	r.pos += n
	return num, typ, nil
}

// ReadVarint reads a base-128 varint.
func (r *Reader) ReadVarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(r.buf[r.pos:])
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	r.pos += n
	return v, nil
}

// ReadFixed32 reads a little-endian 32-bit value.
func (r *Reader) ReadFixed32() (uint32, error) {
	v, n := protowire.ConsumeFixed32(r.buf[r.pos:])
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	r.pos += n
	return v, nil
}

// ReadBytes reads a length-delimited payload. The result aliases the input.
func (r *Reader) ReadBytes() ([]byte, error) {
	v, n := protowire.ConsumeBytes(r.buf[r.pos:])
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	r.pos += n
	return v, nil
}

// Sub reads a length-delimited payload and returns a Reader over it whose
// positions stay absolute.
func (r *Reader) Sub() (*Reader, error) {
	start := r.Position()
	v, n := protowire.ConsumeBytes(r.buf[r.pos:])
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	r.pos += n
	// payload starts after the length prefix
	prefix := n - len(v)
	return &Reader{buf: v, base: start + prefix}, nil
}

// CountVarints counts the varints in the unread bytes without consuming them.
// It is used to size packed repeated fields before decoding them.
func (r *Reader) CountVarints() (int, error) {
	count := 0
	b := r.buf[r.pos:]
	for len(b) > 0 {
		_, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		b = b[n:]
		count++
	}
	return count, nil
}

// Skip consumes the value of a field that the caller does not handle.
func (r *Reader) Skip(num protowire.Number, typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(num, typ, r.buf[r.pos:])
	if n < 0 {
		return protowire.ParseError(n)
	}
	r.pos += n
	return nil
}

// ParseError represents an error during wire parsing with position information.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("wire: %s at position %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("wire: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError creates a ParseError with the current position.
func (r *Reader) WrapError(section string, err error) error {
	return &ParseError{
		Position: r.Position(),
		Section:  section,
		Err:      err,
	}
}
