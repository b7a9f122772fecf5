// Package example holds the in-memory form of a tensorflow.Example and its
// protobuf wire codec.
//
// An Example maps feature names to Features. A Feature is a tagged variant:
// exactly one of an int64 list, a float list or a bytes list is active, or
// none (KindUnset). Features carrying a oneof member newer than this package
// parse as KindUnsupported so callers can reject them explicitly.
//
//	ex, err := example.Parse(serialized)
//	if err != nil {
//	    return err // matches errors.ErrParse
//	}
//	ex.Each(func(name string, f *example.Feature) bool {
//	    fmt.Println(name, f.Kind(), f.Len())
//	    return true
//	})
//
// Parse never copies bytes values: Feature.Bytes aliases the serialized
// input. Numeric lists are decoded into a single allocation sized from the
// packed payload, and TakeInt64s/TakeFloats hand that allocation over to the
// caller.
package example
