package util

import "sort"

// TransformSlice applies the converter to each element in the input slice and
// returns a new slice.
func TransformSlice[T any, R any](in []T, converter func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = converter(v)
	}
	return out
}

// SortedKeys returns the map's keys in sorted order. This ensures
// deterministic iteration over maps, which is required for generating
// consistent output (e.g. DDL statements) regardless of Go's random map
// iteration order.
func SortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
