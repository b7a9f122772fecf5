package resource

import (
	"errors"
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := table.Insert(ClassOwned, 24, "ids")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "ids" {
		t.Fatalf("Expected 'ids', got %v", val)
	}
	if table.Bytes() != 24 {
		t.Fatalf("Expected 24 live bytes, got %d", table.Bytes())
	}

	val, ok = table.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if val != "ids" {
		t.Fatalf("Expected 'ids', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
	if table.Bytes() != 0 {
		t.Fatalf("Expected 0 live bytes, got %d", table.Bytes())
	}

	if _, ok := table.Remove(h); ok {
		t.Fatal("Second Remove should fail")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert(ClassAllocated, 16, "tags")
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	e := obs.events[0]
	if e.Type != EventCreated || e.Handle != h || e.Class != ClassAllocated || e.Size != 16 {
		t.Fatalf("Unexpected created event: %+v", e)
	}

	table.Remove(h)
	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	e = obs.events[1]
	if e.Type != EventDropped || e.Class != ClassAllocated || e.Size != 16 {
		t.Fatalf("Unexpected dropped event: %+v", e)
	}

	table.Unsubscribe(obs)
	table.Insert(ClassOwned, 8, "other")
	if len(obs.events) != 2 {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_Counter(t *testing.T) {
	table := NewTable()
	c := &Counter{}
	table.Subscribe(c)

	a := table.Insert(ClassOwned, 8, nil)
	b := table.Insert(ClassAllocated, 11, nil)
	table.Remove(a)

	if c.Created() != 2 || c.Dropped() != 1 || c.Live() != 1 {
		t.Fatalf("Counter = created %d dropped %d live %d", c.Created(), c.Dropped(), c.Live())
	}
	if c.Bytes() != 11 {
		t.Fatalf("Counter bytes = %d, want 11", c.Bytes())
	}

	table.Remove(b)
	if c.Live() != 0 || c.Bytes() != 0 {
		t.Fatalf("Counter not drained: live %d bytes %d", c.Live(), c.Bytes())
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()

	if err := table.Close(); err != nil {
		t.Fatalf("Close of empty table failed: %v", err)
	}

	h := table.Insert(ClassOwned, 1, "late")
	if h != 0 {
		t.Fatal("Expected Insert to fail after Close")
	}
	if err := table.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
}

func TestTable_CloseReportsLeaks(t *testing.T) {
	table := NewTable()
	c := &Counter{}
	table.Subscribe(c)

	table.Insert(ClassOwned, 8, "a")
	table.Insert(ClassAllocated, 4, "b")

	err := table.Close()
	if !errors.Is(err, ErrLeaked) {
		t.Fatalf("Expected ErrLeaked, got %v", err)
	}
	if c.Live() != 0 {
		t.Fatalf("Close should drop live entries, %d remain", c.Live())
	}
}

// recordingBackend counts calls reaching the wrapped backend.
type recordingBackend struct {
	*LocalBackend
	creates int
	drops   int
	closed  bool
}

func (b *recordingBackend) Create(class Class, size int, value any) (Handle, error) {
	b.creates++
	return b.LocalBackend.Create(class, size, value)
}

func (b *recordingBackend) Drop(handle Handle) (any, bool) {
	b.drops++
	return b.LocalBackend.Drop(handle)
}

func (b *recordingBackend) Close() error {
	b.closed = true
	return b.LocalBackend.Close()
}

func TestTable_CustomBackend(t *testing.T) {
	b := &recordingBackend{LocalBackend: NewLocalBackend()}
	table := NewTableWithBackend(b)

	h1 := table.Insert(ClassAllocated, 16, "a")
	table.Insert(ClassOwned, 8, "b")
	if table.Len() != 2 || table.Bytes() != 24 {
		t.Fatalf("Expected 2 entries and 24 bytes, got %d and %d", table.Len(), table.Bytes())
	}

	if _, ok := table.Remove(h1); !ok {
		t.Fatal("Remove failed")
	}
	if _, ok := table.Remove(h1); ok {
		t.Fatal("Second Remove should fail")
	}

	if err := table.Close(); !errors.Is(err, ErrLeaked) {
		t.Fatalf("Expected ErrLeaked, got %v", err)
	}
	if b.creates != 2 {
		t.Errorf("creates = %d, want 2", b.creates)
	}
	if b.drops != 3 {
		t.Errorf("drops = %d, want 3", b.drops)
	}
	if !b.closed {
		t.Error("backend not closed")
	}
}

func TestClass_String(t *testing.T) {
	tests := map[Class]string{
		ClassOwned:     "owned",
		ClassAllocated: "allocated",
		Class(0):       "unknown",
	}
	for c, want := range tests {
		if got := c.String(); got != want {
			t.Errorf("Class(%d).String() = %q, want %q", c, got, want)
		}
	}
}
