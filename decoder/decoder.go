package decoder

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/wippyai/featuredecode/array"
	fderrors "github.com/wippyai/featuredecode/errors"
	"github.com/wippyai/featuredecode/example"
	"github.com/wippyai/featuredecode/resource"
)

// Options configures decoder behavior.
type Options struct {
	// Allocator supplies bytes array buffers. Numeric arrays never allocate.
	Allocator memory.Allocator
	// Table, when set, records every array's storage until it is released.
	Table *resource.Table
	// HostLock is held while arrays are built, and not while the input is
	// parsed.
	HostLock sync.Locker
	// Logger overrides the package logger.
	Logger *zap.Logger
	// EmptyBytesAsEmptyArray decodes a bytes feature with no values as a
	// length-0, width-0 array instead of failing with errors.ErrEmptyField.
	EmptyBytesAsEmptyArray bool
}

// DefaultOptions returns default decoder configuration.
func DefaultOptions() Options {
	return Options{
		Allocator: memory.DefaultAllocator,
	}
}

// Decoder turns serialized examples into one array per feature.
// Safe for concurrent use; no state is kept between calls.
type Decoder struct {
	log     *zap.Logger
	options Options
}

// New creates a Decoder with the given options.
func New(opts Options) *Decoder {
	if opts.Allocator == nil {
		opts.Allocator = memory.DefaultAllocator
	}
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	return &Decoder{log: log, options: opts}
}

// NewWithDefaults creates a Decoder with default options.
func NewWithDefaults() *Decoder {
	return New(DefaultOptions())
}

// Options returns the configuration.
func (d *Decoder) Options() Options {
	return d.options
}

// Decode parses serialized and materializes every feature that carries a
// list. On any error no result is returned and every array already built
// for the record has been released.
func (d *Decoder) Decode(serialized []byte) (Result, error) {
	return d.decode(serialized, nil)
}

// DecodeFeatures is Decode restricted to the named features. Other features
// are parsed but never materialized; names absent from the record are
// ignored.
func (d *Decoder) DecodeFeatures(serialized []byte, names ...string) (Result, error) {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	return d.decode(serialized, want)
}

func (d *Decoder) decode(serialized []byte, want map[string]struct{}) (Result, error) {
	ex, err := example.Parse(serialized)
	if err != nil {
		d.log.Debug("parse failed", zap.Int("size", len(serialized)), zap.Error(err))
		return nil, err
	}

	if d.options.HostLock != nil {
		d.options.HostLock.Lock()
		defer d.options.HostLock.Unlock()
	}

	res := make(Result, ex.Len())
	var failed error
	ex.Each(func(name string, f *example.Feature) bool {
		if want != nil {
			if _, ok := want[name]; !ok {
				return true
			}
		}
		arr, err := d.materialize(name, f)
		if err != nil {
			failed = err
			return false
		}
		if arr != nil {
			res[name] = arr
		}
		return true
	})

	if failed != nil {
		d.log.Debug("decode failed",
			zap.Int("released", len(res)),
			zap.Error(failed))
		res.Release()
		return nil, failed
	}

	d.log.Debug("decoded example",
		zap.Int("features", ex.Len()),
		zap.Int("arrays", len(res)),
		zap.Int("bytes", len(serialized)))
	return res, nil
}

// materialize builds the array for one feature. Unset features yield no
// array and no error.
func (d *Decoder) materialize(name string, f *example.Feature) (*array.Array, error) {
	opts := []array.Option{
		array.WithName(name),
		array.WithAllocator(d.options.Allocator),
	}
	if d.options.Table != nil {
		opts = append(opts, array.WithTable(d.options.Table))
	}

	switch f.Kind() {
	case example.KindUnset:
		d.log.Debug("skipped unset feature", zap.String("feature", name))
		return nil, nil
	case example.KindInt64:
		return array.MaterializeNumeric(f.TakeInt64s(), opts...), nil
	case example.KindFloat:
		return array.MaterializeNumeric(f.TakeFloats(), opts...), nil
	case example.KindBytes:
		if d.options.EmptyBytesAsEmptyArray {
			opts = append(opts, array.WithEmptyAllowed())
		}
		return array.MaterializeBytes(f.Bytes(), opts...)
	default:
		return nil, fderrors.UnsupportedFieldKind(name, f.Number())
	}
}
