package example

import (
	"errors"
	"io"
	"math"
	"slices"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	fderrors "github.com/wippyai/featuredecode/errors"
	"github.com/wippyai/featuredecode/wire"
)

// Field numbers of tensorflow/core/example/{example,feature}.proto.
const (
	fieldExampleFeatures protowire.Number = 1
	fieldFeaturesFeature protowire.Number = 1
	fieldEntryKey        protowire.Number = 1
	fieldEntryValue      protowire.Number = 2
	fieldBytesList       protowire.Number = 1
	fieldFloatList       protowire.Number = 2
	fieldInt64List       protowire.Number = 3
	fieldListValue       protowire.Number = 1
)

var (
	errInvalidKey     = errors.New("feature name is not valid UTF-8")
	errPackedFloat32  = errors.New("packed float payload is not a multiple of 4 bytes")
	errMemberWireType = errors.New("list member is not length-delimited")
)

// Parse decodes a serialized tensorflow.Example. Bytes values in the result
// alias data, so data must not be modified while the Example is in use.
//
// Unknown fields are skipped. Within a Feature an unknown field number, of any
// wire type, is a oneof member this package does not know and is recorded as
// KindUnsupported. A known list member that is not length-delimited is
// malformed.
// Any malformed input yields an error matching errors.ErrParse and no Example.
func Parse(data []byte) (*Example, error) {
	ex := New()
	r := wire.NewReader(data)
	for {
		num, typ, err := r.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ex, nil
			}
			return nil, malformed(r, "example", err)
		}
		if num == fieldExampleFeatures && typ == protowire.BytesType {
			sub, err := r.Sub()
			if err != nil {
				return nil, malformed(r, "example.features", err)
			}
			if err := parseFeatures(sub, ex); err != nil {
				return nil, err
			}
			continue
		}
		if err := r.Skip(num, typ); err != nil {
			return nil, malformed(r, "example", err)
		}
	}
}

func parseFeatures(r *wire.Reader, ex *Example) error {
	for {
		num, typ, err := r.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return malformed(r, "features", err)
		}
		if num == fieldFeaturesFeature && typ == protowire.BytesType {
			sub, err := r.Sub()
			if err != nil {
				return malformed(r, "features.feature", err)
			}
			if err := parseEntry(sub, ex); err != nil {
				return err
			}
			continue
		}
		if err := r.Skip(num, typ); err != nil {
			return malformed(r, "features", err)
		}
	}
}

// parseEntry reads one map<string, Feature> entry. A later entry with the same
// key replaces the earlier one.
func parseEntry(r *wire.Reader, ex *Example) error {
	var key string
	f := &Feature{}
	for {
		num, typ, err := r.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return malformed(r, "feature entry", err)
		}
		switch {
		case num == fieldEntryKey && typ == protowire.BytesType:
			b, err := r.ReadBytes()
			if err != nil {
				return malformed(r, "feature key", err)
			}
			if !utf8.Valid(b) {
				return malformed(r, "feature key", errInvalidKey)
			}
			key = string(b)
		case num == fieldEntryValue && typ == protowire.BytesType:
			sub, err := r.Sub()
			if err != nil {
				return malformed(r, "feature value", err)
			}
			if err := parseFeature(sub, f); err != nil {
				return err
			}
		default:
			if err := r.Skip(num, typ); err != nil {
				return malformed(r, "feature entry", err)
			}
		}
	}
	ex.Set(key, f)
	return nil
}

// parseFeature merges one Feature message into f. Repeating the active member
// concatenates its values; a different member replaces it.
func parseFeature(r *wire.Reader, f *Feature) error {
	for {
		num, typ, err := r.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return malformed(r, "feature", err)
		}
		if typ != protowire.BytesType {
			if isListMember(num) {
				return malformed(r, "feature", errMemberWireType)
			}
			if err := r.Skip(num, typ); err != nil {
				return malformed(r, "feature", err)
			}
			f.switchKind(KindUnsupported, num)
			continue
		}
		sub, err := r.Sub()
		if err != nil {
			return malformed(r, "feature", err)
		}
		switch num {
		case fieldBytesList:
			f.switchKind(KindBytes, num)
			if f.bytes == nil {
				f.bytes = [][]byte{}
			}
			err = parseBytesList(sub, f)
		case fieldFloatList:
			f.switchKind(KindFloat, num)
			if f.floats == nil {
				f.floats = []float32{}
			}
			err = parseFloatList(sub, f)
		case fieldInt64List:
			f.switchKind(KindInt64, num)
			if f.ints == nil {
				f.ints = []int64{}
			}
			err = parseInt64List(sub, f)
		default:
			f.switchKind(KindUnsupported, num)
		}
		if err != nil {
			return err
		}
	}
}

// isListMember reports whether num is one of the list members of Feature.
func isListMember(num protowire.Number) bool {
	return num == fieldBytesList || num == fieldFloatList || num == fieldInt64List
}

func parseBytesList(r *wire.Reader, f *Feature) error {
	for {
		num, typ, err := r.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return malformed(r, "bytes_list", err)
		}
		if num == fieldListValue && typ == protowire.BytesType {
			b, err := r.ReadBytes()
			if err != nil {
				return malformed(r, "bytes_list.value", err)
			}
			f.bytes = append(f.bytes, b)
			continue
		}
		if err := r.Skip(num, typ); err != nil {
			return malformed(r, "bytes_list", err)
		}
	}
}

func parseFloatList(r *wire.Reader, f *Feature) error {
	for {
		num, typ, err := r.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return malformed(r, "float_list", err)
		}
		switch {
		case num == fieldListValue && typ == protowire.BytesType:
			packed, err := r.Sub()
			if err != nil {
				return malformed(r, "float_list.value", err)
			}
			if packed.Len()%4 != 0 {
				return malformed(packed, "float_list.value", errPackedFloat32)
			}
			f.floats = slices.Grow(f.floats, packed.Len()/4)
			for !packed.Done() {
				bits, err := packed.ReadFixed32()
				if err != nil {
					return malformed(packed, "float_list.value", err)
				}
				f.floats = append(f.floats, math.Float32frombits(bits))
			}
		case num == fieldListValue && typ == protowire.Fixed32Type:
			bits, err := r.ReadFixed32()
			if err != nil {
				return malformed(r, "float_list.value", err)
			}
			f.floats = append(f.floats, math.Float32frombits(bits))
		default:
			if err := r.Skip(num, typ); err != nil {
				return malformed(r, "float_list", err)
			}
		}
	}
}

func parseInt64List(r *wire.Reader, f *Feature) error {
	for {
		num, typ, err := r.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return malformed(r, "int64_list", err)
		}
		switch {
		case num == fieldListValue && typ == protowire.BytesType:
			packed, err := r.Sub()
			if err != nil {
				return malformed(r, "int64_list.value", err)
			}
			n, err := packed.CountVarints()
			if err != nil {
				return malformed(packed, "int64_list.value", err)
			}
			f.ints = slices.Grow(f.ints, n)
			for !packed.Done() {
				v, err := packed.ReadVarint()
				if err != nil {
					return malformed(packed, "int64_list.value", err)
				}
				f.ints = append(f.ints, int64(v))
			}
		case num == fieldListValue && typ == protowire.VarintType:
			v, err := r.ReadVarint()
			if err != nil {
				return malformed(r, "int64_list.value", err)
			}
			f.ints = append(f.ints, int64(v))
		default:
			if err := r.Skip(num, typ); err != nil {
				return malformed(r, "int64_list", err)
			}
		}
	}
}

func malformed(r *wire.Reader, section string, err error) error {
	return fderrors.Malformed(r.Position(), r.WrapError(section, err))
}
