package example

// Example is the parsed form of one serialized tensorflow.Example: a mapping
// from feature name to Feature. Names iterate in first-seen order.
type Example struct {
	features map[string]*Feature
	names    []string
}

// New returns an empty Example.
func New() *Example {
	return &Example{features: make(map[string]*Feature)}
}

// Set stores f under name, replacing any previous feature of that name.
func (e *Example) Set(name string, f *Feature) {
	if _, ok := e.features[name]; !ok {
		e.names = append(e.names, name)
	}
	e.features[name] = f
}

// Feature returns the feature stored under name.
func (e *Example) Feature(name string) (*Feature, bool) {
	f, ok := e.features[name]
	return f, ok
}

// Names returns feature names in first-seen order.
func (e *Example) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Len returns the number of features, including unset ones.
func (e *Example) Len() int {
	return len(e.names)
}

// Each calls fn for every feature in first-seen order until fn returns false.
func (e *Example) Each(fn func(name string, f *Feature) bool) {
	for _, name := range e.names {
		if !fn(name, e.features[name]) {
			return
		}
	}
}
