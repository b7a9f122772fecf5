// Package tfrecord reads and writes TFRecord files: a sequence of records,
// each framed as
//
//	uint64 length
//	uint32 masked crc32c(length)
//	byte   data[length]
//	uint32 masked crc32c(data)
//
// optionally compressed as a whole with gzip, zlib, zstd or lz4.
package tfrecord
