package resource

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrLeaked is returned by Table.Close when entries were still live.
var ErrLeaked = errors.New("storage still live at close")

// Table is the ledger of live array storage. Every materialized array
// registers its storage on creation and removes it when its release hook
// fires, so a table that drains to zero proves nothing leaked.
type Table struct {
	backend   Backend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new table with a LocalBackend.
func NewTable() *Table {
	return NewTableWithBackend(NewLocalBackend())
}

// NewTableWithBackend creates a table over b.
func NewTableWithBackend(b Backend) *Table {
	return &Table{backend: b}
}

// Insert records size bytes of storage and returns its handle, or 0 once
// the table is closed.
func (t *Table) Insert(class Class, size int, value any) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(class, size, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		Class:  class,
		Size:   size,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// Remove drops an entry and returns (value, true) if it was live.
func (t *Table) Remove(handle Handle) (any, bool) {
	class, size, _ := t.backend.Info(handle)
	value, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		Class:  class,
		Size:   size,
		Value:  value,
	})

	return value, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Bytes returns the total size of live storage.
func (t *Table) Bytes() int {
	return t.backend.Bytes()
}

// Each iterates over live entries.
func (t *Table) Each(fn func(Handle, Class, int, any) bool) {
	t.backend.Each(fn)
}

// Close stops accepting entries. Entries still live are dropped and
// reported as ErrLeaked.
func (t *Table) Close() error {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return nil
	}
	t.closed = true
	t.closeMu.Unlock()

	// collect handles first, Remove takes the backend lock
	var handles []Handle
	t.backend.Each(func(h Handle, _ Class, _ int, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}

	if err := t.backend.Close(); err != nil {
		return err
	}
	if len(handles) > 0 {
		return fmt.Errorf("%w: %d entries", ErrLeaked, len(handles))
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

// Counter tallies lifecycle events. It is safe for concurrent use.
type Counter struct {
	created atomic.Int64
	dropped atomic.Int64
	bytes   atomic.Int64
}

func (c *Counter) OnResourceEvent(e Event) {
	switch e.Type {
	case EventCreated:
		c.created.Add(1)
		c.bytes.Add(int64(e.Size))
	case EventDropped:
		c.dropped.Add(1)
		c.bytes.Add(-int64(e.Size))
	}
}

// Created returns the number of EventCreated events seen.
func (c *Counter) Created() int64 { return c.created.Load() }

// Dropped returns the number of EventDropped events seen.
func (c *Counter) Dropped() int64 { return c.dropped.Load() }

// Live returns created minus dropped.
func (c *Counter) Live() int64 { return c.created.Load() - c.dropped.Load() }

// Bytes returns the size of storage created and not yet dropped.
func (c *Counter) Bytes() int64 { return c.bytes.Load() }
