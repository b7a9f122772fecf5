// Package array materializes decoded value lists as fixed-width arrays.
//
// Numeric lists are adopted without copying: the []int64 or []float32
// produced by the parser becomes the array's storage and no allocator is
// touched. Byte string lists are copied once into a buffer of
// len*maxLen+1 bytes, each value zero padded to maxLen, with a trailing
// zero guard byte.
//
// Storage is held by an arrow memory.Buffer whose allocator is a capsule
// owning the storage. When the last reference to the buffer is released,
// the capsule frees the storage, removes its ledger entry and runs any
// OnRelease hook, exactly once.
//
//	arr := array.MaterializeNumeric([]int64{1, 2, 3})
//	defer arr.Release()
//	arr.DType()  // int64
//	arr.Int64s() // [1 2 3], same backing array
//
//	tags, err := array.MaterializeBytes([][]byte{[]byte("ab"), []byte("abcde")})
//	tags.DType() // S5
package array
