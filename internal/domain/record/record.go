// Package record defines the in-memory form of tile data.
package record

import "maps"

// Record maps field names to typed values.
type Record map[string]any

// Clone returns a shallow copy. A nil record clones to an empty one.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

// Merge copies every entry of other into r, overwriting on collision.
func (r Record) Merge(other map[string]any) {
	for k, v := range other {
		r[k] = v
	}
}

// Without returns a shallow copy with the named keys removed.
func (r Record) Without(names ...string) Record {
	out := r.Clone()
	for _, name := range names {
		delete(out, name)
	}
	return out
}
