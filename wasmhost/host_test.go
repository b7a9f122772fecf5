package wasmhost

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/wippyai/featuredecode/array"
	"github.com/wippyai/featuredecode/decoder"
	fderrors "github.com/wippyai/featuredecode/errors"
	"github.com/wippyai/featuredecode/example"
)

func newHost(t *testing.T) *Host {
	t.Helper()
	ctx := context.Background()
	h, err := New(ctx, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = h.Close(ctx) })
	return h
}

func decode(t *testing.T, data []byte) decoder.Result {
	t.Helper()
	res, err := decoder.NewWithDefaults().Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	t.Cleanup(res.Release)
	return res
}

func TestRecordLayout(t *testing.T) {
	want := map[string]uint32{"name": 0, "dtype": 8, "width": 12, "length": 16, "data": 20}
	for name, off := range want {
		if recordLayout.FieldOffs[name] != off {
			t.Errorf("field %s at %d, want %d", name, recordLayout.FieldOffs[name], off)
		}
	}
	if recordLayout.Size != 28 || recordLayout.Align != 4 {
		t.Errorf("record size %d align %d, want 28 and 4", recordLayout.Size, recordLayout.Align)
	}
}

func TestExport(t *testing.T) {
	h := newHost(t)
	res := decode(t, example.NewBuilder().
		Int64("ids", 7, -8).
		Float("scores", 0.5).
		String("tags", "ab", "abcde", "a").
		Marshal())

	out, err := h.Export(context.Background(), res)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if out.Len != 3 || len(out.Arrays) != 3 {
		t.Fatalf("exported %d arrays, want 3", out.Len)
	}
	if out.Ptr%4 != 0 {
		t.Errorf("records at %d are not 4-byte aligned", out.Ptr)
	}

	ids := out.Arrays[0]
	if ids.Name != "ids" || ids.DType != array.Int64 || ids.Length != 2 {
		t.Fatalf("ids descriptor = %+v", ids)
	}
	if ids.Data%8 != 0 {
		t.Errorf("int64 data at %d is not 8-byte aligned", ids.Data)
	}
	raw, err := h.Read(ids)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if int64(binary.LittleEndian.Uint64(raw[8:])) != -8 {
		t.Errorf("ids[1] = %d, want -8", int64(binary.LittleEndian.Uint64(raw[8:])))
	}

	tags := out.Arrays[2]
	raw, err = h.Read(tags)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(raw, []byte("ab\x00\x00\x00abcdea\x00\x00\x00\x00")) {
		t.Errorf("tags bytes = %q", raw)
	}
}

func TestExport_DescriptorsRoundTrip(t *testing.T) {
	h := newHost(t)
	res := decode(t, example.NewBuilder().
		Int64("a", 1).
		String("b", "xyz").
		Marshal())

	out, err := h.Export(context.Background(), res)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	got, err := h.Descriptors(out.Ptr, out.Len)
	if err != nil {
		t.Fatalf("Descriptors: %v", err)
	}
	for i := range got {
		if got[i] != out.Arrays[i] {
			t.Errorf("record %d: read %+v, exported %+v", i, got[i], out.Arrays[i])
		}
	}
	if got[1].DType.String() != "S3" {
		t.Errorf("b dtype = %s, want S3", got[1].DType)
	}
}

func TestExport_GrowsMemory(t *testing.T) {
	h := newHost(t)
	before := h.Memory().(interface{ Size() uint32 }).Size()

	big := make([]int64, 20000)
	for i := range big {
		big[i] = int64(i)
	}
	res := decode(t, example.NewBuilder().Int64("big", big...).Marshal())

	out, err := h.Export(context.Background(), res)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	after := h.Memory().(interface{ Size() uint32 }).Size()
	if after <= before {
		t.Errorf("memory did not grow: %d -> %d", before, after)
	}

	raw, err := h.Read(out.Arrays[0])
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v := binary.LittleEndian.Uint64(raw[len(raw)-8:]); v != 19999 {
		t.Errorf("last value = %d, want 19999", v)
	}
}

func TestExport_Reset(t *testing.T) {
	h := newHost(t)
	res := decode(t, example.NewBuilder().Int64("a", 1).Marshal())

	first, err := h.Export(context.Background(), res)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	h.Reset()
	second, err := h.Export(context.Background(), res)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if first.Ptr != second.Ptr {
		t.Errorf("Reset did not rewind allocation: %d then %d", first.Ptr, second.Ptr)
	}
}

func TestExport_Released(t *testing.T) {
	h := newHost(t)
	res, err := decoder.NewWithDefaults().Decode(example.NewBuilder().Int64("a", 1).Marshal())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	res.Release()

	_, err = h.Export(context.Background(), res)
	if !errors.Is(err, fderrors.ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
	var fe *fderrors.Error
	if !errors.As(err, &fe) || fe.Field != "a" {
		t.Errorf("error does not name the feature: %v", err)
	}
}

func TestExport_Canceled(t *testing.T) {
	h := newHost(t)
	res := decode(t, example.NewBuilder().Int64("a", 1).Marshal())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Export(ctx, res); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNew_InvalidGuest(t *testing.T) {
	_, err := New(context.Background(), Options{Guest: []byte("not wasm")})
	if err == nil {
		t.Fatal("expected error for invalid guest")
	}
}

func TestNew_GuestWithoutMemory(t *testing.T) {
	empty := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	_, err := New(context.Background(), Options{Guest: empty})
	var fe *fderrors.Error
	if !errors.As(err, &fe) || fe.Kind != fderrors.KindInvalidInput {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
