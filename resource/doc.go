// Package resource keeps a ledger of live array storage.
//
// Every array produced by the decoder owns exactly one block of storage:
// either an adopted value list (ClassOwned) or a buffer taken from an
// allocator (ClassAllocated). When a Table is configured, the array
// registers that block on creation and removes it from its release hook.
// The ledger therefore answers "what is still alive" at any moment:
//
//	table := resource.NewTable()
//	counter := &resource.Counter{}
//	table.Subscribe(counter)
//
//	opts := decoder.DefaultOptions()
//	opts.Table = table
//	res, _ := decoder.New(opts).Decode(serialized)
//	table.Len()   // one entry per array
//	res.Release()
//	table.Len()   // 0
//
// # Observers
//
// Observers receive EventCreated and EventDropped notifications with the
// storage class and size. Counter is a ready-made observer that tallies
// them atomically.
//
// # Close
//
// Close stops accepting entries. Entries still live at that point are
// dropped, observers see EventDropped for each, and Close returns an error
// wrapping ErrLeaked.
//
// # Backends
//
// A Table keeps its entries in a Backend. NewTable uses LocalBackend, a
// slice with a free list; NewTableWithBackend accepts any other.
package resource
