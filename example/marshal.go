package example

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wippyai/featuredecode/wire"
)

// Marshal encodes ex as a serialized tensorflow.Example. Numeric lists use
// packed encoding; features are written in first-seen order.
func Marshal(ex *Example) []byte {
	w := wire.NewWriter()
	w.Message(fieldExampleFeatures, func(features *wire.Writer) {
		ex.Each(func(name string, f *Feature) bool {
			features.Message(fieldFeaturesFeature, func(entry *wire.Writer) {
				entry.StringField(fieldEntryKey, name)
				entry.Message(fieldEntryValue, func(value *wire.Writer) {
					marshalFeature(value, f)
				})
			})
			return true
		})
	})
	return w.Bytes()
}

func marshalFeature(w *wire.Writer, f *Feature) {
	switch f.kind {
	case KindBytes:
		w.Message(fieldBytesList, func(list *wire.Writer) {
			for _, b := range f.bytes {
				list.BytesField(fieldListValue, b)
			}
		})
	case KindFloat:
		w.Message(fieldFloatList, func(list *wire.Writer) {
			if len(f.floats) == 0 {
				return
			}
			list.Message(fieldListValue, func(packed *wire.Writer) {
				for _, v := range f.floats {
					packed.Float32(v)
				}
			})
		})
	case KindInt64:
		w.Message(fieldInt64List, func(list *wire.Writer) {
			if len(f.ints) == 0 {
				return
			}
			list.Message(fieldListValue, func(packed *wire.Writer) {
				for _, v := range f.ints {
					packed.Varint(uint64(v))
				}
			})
		})
	case KindUnsupported:
		w.BytesField(f.number, nil)
	case KindUnset:
	}
}

// Builder assembles an Example feature by feature.
type Builder struct {
	ex *Example
}

// NewBuilder creates a new example builder
func NewBuilder() *Builder {
	return &Builder{ex: New()}
}

// Int64 sets an int64_list feature
func (b *Builder) Int64(name string, vals ...int64) *Builder {
	b.ex.Set(name, Int64Feature(vals...))
	return b
}

// Float sets a float_list feature
func (b *Builder) Float(name string, vals ...float32) *Builder {
	b.ex.Set(name, FloatFeature(vals...))
	return b
}

// Bytes sets a bytes_list feature
func (b *Builder) Bytes(name string, vals ...[]byte) *Builder {
	b.ex.Set(name, BytesFeature(vals...))
	return b
}

// String sets a bytes_list feature from strings
func (b *Builder) String(name string, vals ...string) *Builder {
	b.ex.Set(name, StringFeature(vals...))
	return b
}

// Unset adds a feature with no populated list
func (b *Builder) Unset(name string) *Builder {
	b.ex.Set(name, UnsetFeature())
	return b
}

// Unsupported adds a feature whose oneof member has field number num
func (b *Builder) Unsupported(name string, num protowire.Number) *Builder {
	b.ex.Set(name, UnsupportedFeature(num))
	return b
}

// Build returns the assembled Example
func (b *Builder) Build() *Example {
	return b.ex
}

// Marshal returns the serialized Example
func (b *Builder) Marshal() []byte {
	return Marshal(b.ex)
}
