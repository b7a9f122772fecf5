package decoder

import (
	"errors"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wippyai/featuredecode/array"
	fderrors "github.com/wippyai/featuredecode/errors"
	"github.com/wippyai/featuredecode/example"
	"github.com/wippyai/featuredecode/resource"
	"github.com/wippyai/featuredecode/wire"
)

func sample() []byte {
	return example.NewBuilder().
		Int64("ids", 3, 1, 4, 1, 5).
		Float("scores", 0.25, -2.5).
		String("tags", "ab", "abcde", "a").
		Unset("nothing").
		Marshal()
}

func TestDecode(t *testing.T) {
	res, err := NewWithDefaults().Decode(sample())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer res.Release()

	if want := []string{"ids", "scores", "tags"}; !slices.Equal(res.Names(), want) {
		t.Fatalf("Names() = %v, want %v", res.Names(), want)
	}

	ids := res["ids"]
	if ids.DType() != array.Int64 || !slices.Equal(ids.Int64s(), []int64{3, 1, 4, 1, 5}) {
		t.Errorf("ids = %v %v", ids.DType(), ids.Int64s())
	}

	scores := res["scores"]
	if scores.DType() != array.Float32 || !slices.Equal(scores.Float32s(), []float32{0.25, -2.5}) {
		t.Errorf("scores = %v %v", scores.DType(), scores.Float32s())
	}

	tags := res["tags"]
	if tags.DType().String() != "S5" || tags.Len() != 3 {
		t.Fatalf("tags = %v len %d", tags.DType(), tags.Len())
	}
	if got := string(tags.Bytes()); got != "ab\x00\x00\x00abcdea\x00\x00\x00\x00" {
		t.Errorf("tags bytes = %q", got)
	}

	if res.Bytes() != 5*8+2*4+3*5 {
		t.Errorf("Bytes() = %d", res.Bytes())
	}
}

func TestDecode_NumericRoundTrip(t *testing.T) {
	ints := []int64{0, -1, math.MaxInt64, math.MinInt64, 1 << 33}
	floats := []float32{float32(math.NaN()), float32(math.Inf(-1)), -0, math.MaxFloat32}

	data := example.NewBuilder().Int64("i", ints...).Float("f", floats...).Marshal()
	res, err := NewWithDefaults().Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer res.Release()

	if !slices.Equal(res["i"].Int64s(), ints) {
		t.Errorf("int64 round trip: got %v, want %v", res["i"].Int64s(), ints)
	}
	got := res["f"].Float32s()
	for i := range floats {
		if math.Float32bits(got[i]) != math.Float32bits(floats[i]) {
			t.Errorf("float[%d]: got %x, want %x", i, math.Float32bits(got[i]), math.Float32bits(floats[i]))
		}
	}
}

func TestDecode_EmptyInput(t *testing.T) {
	res, err := NewWithDefaults().Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	if len(res) != 0 {
		t.Errorf("expected empty result, got %v", res.Names())
	}
}

func TestDecode_NumericDoesNotAllocate(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	opts := DefaultOptions()
	opts.Allocator = mem

	data := example.NewBuilder().Int64("i", 1, 2, 3).Float("f", 1).Marshal()
	res, err := New(opts).Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer res.Release()

	if mem.CurrentAlloc() != 0 {
		t.Errorf("numeric decode allocated %d bytes", mem.CurrentAlloc())
	}
}

func TestDecode_Idempotent(t *testing.T) {
	dec := NewWithDefaults()
	data := sample()

	a, err := dec.Decode(data)
	if err != nil {
		t.Fatalf("first Decode: %v", err)
	}
	defer a.Release()
	b, err := dec.Decode(data)
	if err != nil {
		t.Fatalf("second Decode: %v", err)
	}
	defer b.Release()

	for _, name := range a.Names() {
		if string(a[name].Bytes()) != string(b[name].Bytes()) {
			t.Errorf("%s differs between decodes", name)
		}
		if &a[name].Bytes()[0] == &b[name].Bytes()[0] {
			t.Errorf("%s shares storage between decodes", name)
		}
	}
}

func TestDecode_Unsupported(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	table := resource.NewTable()
	counter := &resource.Counter{}
	table.Subscribe(counter)

	opts := DefaultOptions()
	opts.Allocator = mem
	opts.Table = table

	data := example.NewBuilder().
		String("first", "x").
		Int64("second", 1).
		Unsupported("future", 7).
		String("after", "y").
		Marshal()

	res, err := New(opts).Decode(data)
	if err == nil {
		t.Fatal("expected error")
	}
	if res != nil {
		t.Error("expected no result on error")
	}
	if !errors.Is(err, fderrors.ErrUnsupportedFieldKind) {
		t.Fatalf("expected ErrUnsupportedFieldKind, got %v", err)
	}
	var fe *fderrors.Error
	if !errors.As(err, &fe) || fe.Field != "future" {
		t.Errorf("error does not name the feature: %v", err)
	}

	if counter.Created() != 2 {
		t.Errorf("built %d arrays before failing, want 2", counter.Created())
	}
	if counter.Live() != 0 || table.Len() != 0 {
		t.Errorf("partial arrays not released: %d live", counter.Live())
	}
	if mem.CurrentAlloc() != 0 {
		t.Errorf("%d bytes leaked", mem.CurrentAlloc())
	}
}

// scalarMember encodes an Example with one feature whose only oneof member
// is field num carried as a varint.
func scalarMember(name string, num protowire.Number) []byte {
	w := wire.NewWriter()
	w.Message(1, func(fs *wire.Writer) {
		fs.Message(1, func(e *wire.Writer) {
			e.StringField(1, name)
			e.Message(2, func(f *wire.Writer) {
				f.Tag(num, protowire.VarintType)
				f.Varint(7)
			})
		})
	})
	return w.Bytes()
}

func TestDecode_UnsupportedScalarMember(t *testing.T) {
	res, err := NewWithDefaults().Decode(scalarMember("x", 4))
	if res != nil {
		t.Error("expected no result")
	}
	if !errors.Is(err, fderrors.ErrUnsupportedFieldKind) {
		t.Fatalf("expected ErrUnsupportedFieldKind, got %v", err)
	}
	var fe *fderrors.Error
	if !errors.As(err, &fe) || fe.Field != "x" {
		t.Errorf("error does not name the feature: %v", err)
	}
}

func TestDecode_ListMemberAsScalar(t *testing.T) {
	res, err := NewWithDefaults().Decode(scalarMember("x", 3))
	if res != nil {
		t.Error("expected no result")
	}
	if !errors.Is(err, fderrors.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecode_EmptyBytes(t *testing.T) {
	data := example.NewBuilder().Int64("ok", 1).Bytes("labels").Marshal()

	_, err := NewWithDefaults().Decode(data)
	if !errors.Is(err, fderrors.ErrEmptyField) {
		t.Fatalf("expected ErrEmptyField, got %v", err)
	}
	var fe *fderrors.Error
	if !errors.As(err, &fe) || fe.Field != "labels" {
		t.Errorf("error does not name the feature: %v", err)
	}

	opts := DefaultOptions()
	opts.EmptyBytesAsEmptyArray = true
	res, err := New(opts).Decode(data)
	if err != nil {
		t.Fatalf("Decode with EmptyBytesAsEmptyArray: %v", err)
	}
	defer res.Release()
	if l := res["labels"]; l.Len() != 0 || l.DType() != array.FixedBytes(0) {
		t.Errorf("labels = len %d dtype %v", l.Len(), l.DType())
	}
}

func TestDecode_EmptyNumeric(t *testing.T) {
	res, err := NewWithDefaults().Decode(example.NewBuilder().Int64("i").Float("f").Marshal())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer res.Release()
	if res["i"].Len() != 0 || res["f"].Len() != 0 {
		t.Errorf("expected empty arrays, got %d and %d", res["i"].Len(), res["f"].Len())
	}
}

func TestDecode_Malformed(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	table := resource.NewTable()
	opts := DefaultOptions()
	opts.Allocator = mem
	opts.Table = table

	data := sample()
	res, err := New(opts).Decode(data[:len(data)-3])
	if !errors.Is(err, fderrors.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if res != nil {
		t.Error("expected no result")
	}
	var fe *fderrors.Error
	if !errors.As(err, &fe) || fe.Offset < 0 {
		t.Errorf("expected byte offset in %v", err)
	}
	if mem.CurrentAlloc() != 0 || table.Len() != 0 {
		t.Errorf("malformed input allocated: %d bytes, %d arrays", mem.CurrentAlloc(), table.Len())
	}
}

func TestDecodeFeatures(t *testing.T) {
	table := resource.NewTable()
	opts := DefaultOptions()
	opts.Table = table

	data := example.NewBuilder().
		Int64("a", 1).
		Unsupported("broken", 9).
		String("b", "x").
		Marshal()

	res, err := New(opts).DecodeFeatures(data, "b", "a", "missing")
	if err != nil {
		t.Fatalf("DecodeFeatures: %v", err)
	}
	if want := []string{"a", "b"}; !slices.Equal(res.Names(), want) {
		t.Errorf("Names() = %v, want %v", res.Names(), want)
	}
	if table.Len() != 2 {
		t.Errorf("ledger has %d arrays, want 2", table.Len())
	}
	res.Release()
	if table.Len() != 0 {
		t.Errorf("ledger has %d arrays after Release", table.Len())
	}
}

type recordingLock struct {
	mu     sync.Mutex
	held   bool
	locked int
}

func (l *recordingLock) Lock() {
	l.mu.Lock()
	l.held = true
	l.locked++
}

func (l *recordingLock) Unlock() {
	l.held = false
	l.mu.Unlock()
}

type lockChecker struct {
	lock     *recordingLock
	unlocked int
}

func (c *lockChecker) OnResourceEvent(e resource.Event) {
	if e.Type == resource.EventCreated && !c.lock.held {
		c.unlocked++
	}
}

func TestDecode_HostLock(t *testing.T) {
	lock := &recordingLock{}
	table := resource.NewTable()
	checker := &lockChecker{lock: lock}
	table.Subscribe(checker)

	opts := DefaultOptions()
	opts.HostLock = lock
	opts.Table = table
	dec := New(opts)

	res, err := dec.Decode(sample())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer res.Release()

	if lock.locked != 1 {
		t.Errorf("lock taken %d times, want 1", lock.locked)
	}
	if lock.held {
		t.Error("lock still held after Decode")
	}
	if checker.unlocked != 0 {
		t.Errorf("%d arrays built without the host lock", checker.unlocked)
	}

	if _, err := dec.Decode([]byte{0xff}); err == nil {
		t.Fatal("expected parse error")
	}
	if lock.locked != 1 {
		t.Error("lock taken for input that failed to parse")
	}
}

func TestDecode_Concurrent(t *testing.T) {
	dec := NewWithDefaults()
	data := sample()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := dec.Decode(data)
			if err != nil {
				t.Errorf("Decode: %v", err)
				return
			}
			if len(res) != 3 {
				t.Errorf("got %d arrays, want 3", len(res))
			}
			res.Release()
		}()
	}
	wg.Wait()
}

func TestDecode_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	opts := DefaultOptions()
	opts.Logger = zap.New(core)

	res, err := New(opts).Decode(sample())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	res.Release()

	if logs.FilterMessage("decoded example").Len() != 1 {
		t.Errorf("missing 'decoded example' entry, got %v", logs.All())
	}
	skipped := logs.FilterMessage("skipped unset feature").All()
	if len(skipped) != 1 || skipped[0].ContextMap()["feature"] != "nothing" {
		t.Errorf("unexpected unset log entries: %v", skipped)
	}
}

func TestNew_DefaultsAllocator(t *testing.T) {
	dec := New(Options{})
	if dec.Options().Allocator == nil {
		t.Error("New should default the allocator")
	}
}
