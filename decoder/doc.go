// Package decoder converts one serialized tensorflow.Example into a
// Result: one fixed-width array per feature.
//
//	dec := decoder.NewWithDefaults()
//	res, err := dec.Decode(serialized)
//	if err != nil {
//	    return err
//	}
//	defer res.Release()
//
//	ids := res["ids"]   // int64, storage adopted from the parser
//	tags := res["tags"] // S<max_len>, one copy of the payload
//
// # Feature kinds
//
// int64 and float lists are moved into arrays without copying. bytes lists
// are copied once into a zero padded buffer. Features with no populated
// list are skipped. Any other kind fails the whole record with
// errors.ErrUnsupportedFieldKind.
//
// # Failure
//
// Errors are returned, never recovered locally. Malformed input fails with
// errors.ErrParse before any array is built. A failure while building
// arrays releases every array already built for the record.
//
// # Host lock
//
// Options.HostLock models a host that serializes access to its objects. The
// lock is taken after parsing and held only while arrays are built.
package decoder
