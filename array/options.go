package array

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/wippyai/featuredecode/resource"
)

// Option configures materialization.
type Option func(*config)

type config struct {
	mem        memory.Allocator
	table      *resource.Table
	onRelease  func()
	name       string
	allowEmpty bool
}

func newConfig(opts []Option) config {
	c := config{mem: memory.DefaultAllocator}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// WithAllocator sets the allocator bytes buffers are taken from. Numeric
// arrays never allocate.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *config) {
		if mem != nil {
			c.mem = mem
		}
	}
}

// WithTable registers the array's storage in a ledger for its lifetime.
func WithTable(t *resource.Table) Option {
	return func(c *config) { c.table = t }
}

// WithName sets the feature name reported in errors and ledger entries.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// OnRelease adds a function run once, after the storage has been released.
func OnRelease(fn func()) Option {
	return func(c *config) { c.onRelease = fn }
}

// WithEmptyAllowed makes MaterializeBytes return a length-0, width-0 array
// for an empty list instead of an error.
func WithEmptyAllowed() Option {
	return func(c *config) { c.allowEmpty = true }
}
