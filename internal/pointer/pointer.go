// Package pointer reads and writes values in nested key/value documents by
// slash-separated paths such as /state/val.
package pointer

import (
	"errors"
	"strings"
)

// ErrMalformed is returned by Parse for paths that do not start with "/" or
// contain an empty segment.
var ErrMalformed = errors.New("malformed pointer")

// Parse splits path into its segments. The root path "/" yields no segments.
func Parse(path string) ([]string, error) {
	if path == "" || path[0] != '/' {
		return nil, ErrMalformed
	}
	if path == "/" {
		return nil, nil
	}
	segs := strings.Split(path[1:], "/")
	for _, s := range segs {
		if s == "" {
			return nil, ErrMalformed
		}
	}
	return segs, nil
}

// Get returns the value at path. The root path returns root itself.
func Get(root any, path string) (any, bool) {
	segs, err := Parse(path)
	if err != nil {
		return nil, false
	}
	cur := root
	for _, s := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[s]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set assigns value at path, creating missing intermediate objects. It fails
// for the root path, for malformed paths and when an existing intermediate is
// not an object.
func Set(root map[string]any, path string, value any) bool {
	segs, err := Parse(path)
	if err != nil || len(segs) == 0 || root == nil {
		return false
	}
	cur := root
	for _, s := range segs[:len(segs)-1] {
		next, ok := cur[s]
		if !ok || next == nil {
			m := map[string]any{}
			cur[s] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		cur = m
	}
	cur[segs[len(segs)-1]] = value
	return true
}

// Clone returns a deep copy of nested maps and slices. Other values are
// returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i], _ = Clone(e).(map[string]any)
		}
		return out
	default:
		return v
	}
}

// CloneMap is Clone for a map root.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Clone(m).(map[string]any)
}
