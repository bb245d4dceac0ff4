package tasks

import (
	"fmt"
	"sort"
	"strings"
)

// Row is one work-task record from the uploaded table: field name to field
// value, heterogeneous (strings, numbers). Read-only during analysis.
type Row map[string]any

// FieldValues returns the row's values as probe strings, ordered by field
// name so retrieval visits fields deterministically.
func (r Row) FieldValues() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprint(r[k]))
	}
	return out
}

// Canonical returns a stable textual representation of the row, independent
// of map iteration order. It is one half of the composite cache key for a
// row's compliance answer.
func (r Row) Canonical() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, r[k]))
	}
	return strings.Join(parts, ";")
}
