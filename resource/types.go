package resource

// Handle identifies a live storage entry in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Class tells how the storage behind an entry was obtained.
type Class uint8

const (
	// ClassOwned is a value list adopted without copying. The garbage
	// collector reclaims it once the last reference is gone.
	ClassOwned Class = iota + 1
	// ClassAllocated is a buffer taken from an arrow allocator and handed
	// back to it on release.
	ClassAllocated
)

func (c Class) String() string {
	switch c {
	case ClassOwned:
		return "owned"
	case ClassAllocated:
		return "allocated"
	default:
		return "unknown"
	}
}

// Event types for storage lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event represents a storage lifecycle event.
type Event struct {
	Value  any
	Size   int
	Handle Handle
	Class  Class
	Type   EventType
}

// Observer receives notifications about storage lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend provides the underlying storage mechanism for entries.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Create records a value of size bytes and returns a handle.
	Create(class Class, size int, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Info returns the class and size recorded for a live handle.
	Info(handle Handle) (Class, int, bool)

	// Drop removes an entry and returns (value, true) if it was live.
	Drop(handle Handle) (any, bool)

	// Len returns the number of live entries.
	Len() int

	// Bytes returns the total size of live entries.
	Bytes() int

	// Each calls fn for every live entry until fn returns false. fn must
	// not call back into the backend.
	Each(fn func(Handle, Class, int, any) bool)

	// Close releases all entries held by the backend.
	Close() error
}
