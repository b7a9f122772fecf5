package decoder

import (
	"slices"

	"github.com/wippyai/featuredecode/array"
)

// Result maps feature names to their materialized arrays. Features that
// carried no list are absent.
type Result map[string]*array.Array

// Names returns the feature names in sorted order.
func (r Result) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Release drops the result's reference to every array.
func (r Result) Release() {
	for _, a := range r {
		a.Release()
	}
}

// Bytes returns the total element bytes held by the result.
func (r Result) Bytes() int {
	n := 0
	for _, a := range r {
		n += a.Len() * a.Stride()
	}
	return n
}
