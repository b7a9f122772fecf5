// Package memory adapts wazero linear memory to the featuredecode Memory and
// Allocator interfaces.
//
// Guests that export cabi_realloc allocate through it (AllocatorWrapper).
// Guests without one get a BumpAllocator placed past their initial memory.
package memory
