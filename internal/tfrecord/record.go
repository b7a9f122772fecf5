package tfrecord

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/klauspost/crc32"

	fderrors "github.com/wippyai/featuredecode/errors"
)

// MaxRecordSize bounds the length field of a record. Larger values are
// treated as corruption.
const MaxRecordSize = 1 << 30

const (
	headerSize = 12 // uint64 length + masked crc of length
	footerSize = 4  // masked crc of data
	maskDelta  = 0xa282ead8
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// maskedCRC is the CRC32-C of b, rotated and offset so that checksums of
// data containing checksums stay well distributed.
func maskedCRC(b []byte) uint32 {
	crc := crc32.Checksum(b, castagnoli)
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// Reader reads records from a TFRecord stream.
type Reader struct {
	r      *bufio.Reader
	src    io.ReadCloser
	offset int64
	header [headerSize]byte
	footer [footerSize]byte
}

// NewReader returns a Reader over r, decompressing it as c.
func NewReader(r io.Reader, c Compression) (*Reader, error) {
	src, err := decompress(r, c)
	if err != nil {
		return nil, fderrors.Wrap(fderrors.PhaseRead, fderrors.KindMalformed, err, "open "+c.String()+" stream")
	}
	return &Reader{r: bufio.NewReaderSize(src, 64<<10), src: src}, nil
}

// Offset returns the uncompressed byte offset of the next record.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Next returns the next record's payload, or io.EOF after the last one.
// The returned slice is newly allocated for every record.
func (r *Reader) Next() ([]byte, error) {
	start := r.offset

	n, err := io.ReadFull(r.r, r.header[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, io.EOF
		}
		return nil, truncated(start, err)
	}

	length := binary.LittleEndian.Uint64(r.header[:8])
	if maskedCRC(r.header[:8]) != binary.LittleEndian.Uint32(r.header[8:]) {
		return nil, fderrors.ChecksumMismatch(fderrors.PhaseRead, int(start), "length")
	}
	if length > MaxRecordSize {
		return nil, fderrors.New(fderrors.PhaseRead, fderrors.KindMalformed).
			Offset(int(start)).
			Value(length).
			Detail("record length %d exceeds %d", length, MaxRecordSize).
			Build()
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, truncated(start, err)
	}
	if _, err := io.ReadFull(r.r, r.footer[:]); err != nil {
		return nil, truncated(start, err)
	}
	if maskedCRC(data) != binary.LittleEndian.Uint32(r.footer[:]) {
		return nil, fderrors.ChecksumMismatch(fderrors.PhaseRead, int(start), "data")
	}

	r.offset += headerSize + int64(length) + footerSize
	return data, nil
}

// Each calls fn for every remaining record until fn returns an error or the
// stream ends.
func (r *Reader) Each(fn func(index int, record []byte) error) error {
	for i := 0; ; i++ {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(i, rec); err != nil {
			return err
		}
	}
}

// Close releases the decompressor. It does not close the underlying reader.
func (r *Reader) Close() error {
	return r.src.Close()
}

func truncated(offset int64, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fderrors.New(fderrors.PhaseRead, fderrors.KindMalformed).
		Offset(int(offset)).
		Cause(err).
		Detail("truncated record at byte %d", offset).
		Build()
}

// Writer writes records in TFRecord framing.
type Writer struct {
	dst    io.WriteCloser
	header [headerSize]byte
	footer [footerSize]byte
}

// NewWriter returns a Writer to w, compressing it as c.
func NewWriter(w io.Writer, c Compression) (*Writer, error) {
	dst, err := compress(w, c)
	if err != nil {
		return nil, err
	}
	return &Writer{dst: dst}, nil
}

// Write appends one record.
func (w *Writer) Write(record []byte) error {
	binary.LittleEndian.PutUint64(w.header[:8], uint64(len(record)))
	binary.LittleEndian.PutUint32(w.header[8:], maskedCRC(w.header[:8]))
	binary.LittleEndian.PutUint32(w.footer[:], maskedCRC(record))

	if _, err := w.dst.Write(w.header[:]); err != nil {
		return err
	}
	if _, err := w.dst.Write(record); err != nil {
		return err
	}
	_, err := w.dst.Write(w.footer[:])
	return err
}

// Close flushes the compressor. It does not close the underlying writer.
func (w *Writer) Close() error {
	return w.dst.Close()
}
