package logging

// Fields is an immutable-style attribute map, matching the shape of
// nabbar-golib/logger's Fields: Add returns a new map rather than
// mutating the receiver in place, so a handler can derive per-request
// fields from a shared base without races.
type Fields map[string]interface{}

// NewFields returns an empty Fields map.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) clone() Fields {
	n := make(Fields, len(f))
	for k, v := range f {
		n[k] = v
	}
	return n
}

// Add returns a copy of f with key set to val.
func (f Fields) Add(key string, val interface{}) Fields {
	n := f.clone()
	n[key] = val
	return n
}
