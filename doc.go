// Package featuredecode decodes serialized tensorflow.Example records into
// fixed-width arrays, one per feature, without redundant copies.
//
// # Architecture Overview
//
//	featuredecode/       Root package with Decode and the host Memory/Allocator interfaces
//	├── decoder/         Decoder: parse, dispatch by feature kind, host lock, logging
//	├── array/           Array, DType, numeric and bytes materializers, release capsule
//	├── example/         Example/Feature model, protobuf Parse and Marshal
//	├── wire/            Position-tracking protobuf wire reader and writer
//	├── resource/        Ledger of live array storage with lifecycle observers
//	├── arrowhost/       Zero-copy hand-off of arrays to Apache Arrow
//	├── wasmhost/        Export of arrays into a WebAssembly guest's memory
//	├── errors/          Structured error types
//	├── internal/tfrecord TFRecord framing with gzip, zlib, zstd, lz4
//	└── cmd/featinspect  Command line and interactive inspector
//
// # Quick Start
//
//	res, err := featuredecode.Decode(serialized)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer res.Release()
//
//	for _, name := range res.Names() {
//	    a := res[name]
//	    fmt.Println(name, a.DType(), a.Shape())
//	}
//
// # Output dtypes
//
//	int64_list -> int64    (8 bytes, storage adopted from the parser)
//	float_list -> float32  (4 bytes, storage adopted from the parser)
//	bytes_list -> S<n>     (n = longest value, zero padded, one copy)
//
// Features with no populated list are omitted. Any other feature kind fails
// the record with errors.ErrUnsupportedFieldKind; an empty bytes list fails
// with errors.ErrEmptyField unless decoder.Options.EmptyBytesAsEmptyArray is
// set; malformed input fails with errors.ErrParse.
//
// # Memory Management
//
// Every array holds a reference to its storage and must be released. The
// release hook that frees the storage runs exactly once, when the last
// reference (including ones taken by arrowhost or wasmhost) is dropped. A
// resource.Table passed through decoder.Options records live storage and
// makes leaks visible.
package featuredecode
