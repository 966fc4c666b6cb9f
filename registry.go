package yoloconv

import (
	"fmt"
)

// LabelEntry is a single class in the label registry.
type LabelEntry struct {
	Index int
	Label string
}

// Registry assigns stable, contiguous class indices to label strings. The first label resolved
// gets index 0, the next new label index 1, and so on. Entries are never removed or renumbered.
//
// A Registry is not safe for concurrent use. Index assignment depends on the order in which
// labels are resolved.
type Registry struct {
	indices map[string]int
	labels  []string // Labels by index.
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{indices: make(map[string]int)}
}

// NewRegistryFromEntries returns a registry seeded with existing entries, e.g. from the
// manifest of a previous conversion. The entries must cover the indices 0..n-1 exactly once and
// have unique labels.
func NewRegistryFromEntries(entries []LabelEntry) (*Registry, error) {
	r := &Registry{
		indices: make(map[string]int, len(entries)),
		labels:  make([]string, len(entries)),
	}
	seen := make([]bool, len(entries))
	for _, e := range entries {
		if e.Index < 0 || e.Index >= len(entries) || seen[e.Index] {
			return nil, fmt.Errorf("%w: class indices must be contiguous from 0, got %d",
				ErrConfiguration, e.Index)
		}
		if prev, dup := r.indices[e.Label]; dup {
			return nil, fmt.Errorf("%w: label %q has indices %d and %d", ErrConfiguration,
				e.Label, prev, e.Index)
		}
		seen[e.Index] = true
		r.indices[e.Label] = e.Index
		r.labels[e.Index] = e.Label
	}
	return r, nil
}

// Resolve returns the index for label, allocating the next free index on first use.
func (r *Registry) Resolve(label string) int {
	if idx, ok := r.indices[label]; ok {
		return idx
	}
	idx := len(r.labels)
	r.indices[label] = idx
	r.labels = append(r.labels, label)
	return idx
}

// Lookup returns the index for label without allocating one.
func (r *Registry) Lookup(label string) (int, bool) {
	idx, ok := r.indices[label]
	return idx, ok
}

// Len is the number of registered labels.
func (r *Registry) Len() int {
	return len(r.labels)
}

// Entries returns all entries ordered by index.
func (r *Registry) Entries() []LabelEntry {
	entries := make([]LabelEntry, len(r.labels))
	for i, l := range r.labels {
		entries[i] = LabelEntry{Index: i, Label: l}
	}
	return entries
}
