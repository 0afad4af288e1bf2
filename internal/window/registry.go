package window

import (
	"encoding/json"
	"math"
	"sort"

	"blockshell/internal/domain"
)

// Default geometry used when the registry block leaves it out.
var (
	DefaultViewport   = domain.Size{Width: 1280, Height: 800}
	DefaultWindowSize = domain.Size{Width: 400, Height: 300}
)

// Registry is the static set of window kinds a session may open.
type Registry struct {
	entries  map[string]domain.WindowRegistryEntry
	viewport domain.Size
}

// NewRegistry builds a registry from explicit entries. Entries without a key
// are ignored; later duplicates replace earlier ones.
func NewRegistry(entries []domain.WindowRegistryEntry, viewport *domain.Size) *Registry {
	r := &Registry{entries: map[string]domain.WindowRegistryEntry{}, viewport: DefaultViewport}
	for _, e := range entries {
		if e.WindowKey == "" {
			continue
		}
		r.entries[e.WindowKey] = e
	}
	if viewport != nil && viewport.Width > 0 && viewport.Height > 0 {
		r.viewport = *viewport
	}
	return r
}

// ParseRegistry reads a windowRegistry block: data.windows is a list of
// {windowKey, singleton, defaultSize, minSize} and data.viewport an optional
// {width, height}. A nil block yields an empty registry.
func ParseRegistry(blk *domain.Block) *Registry {
	if blk == nil {
		return NewRegistry(nil, nil)
	}
	var entries []domain.WindowRegistryEntry
	list, _ := blk.Data["windows"].([]any)
	for _, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		key, _ := m["windowKey"].(string)
		singleton, _ := m["singleton"].(bool)
		entries = append(entries, domain.WindowRegistryEntry{
			WindowKey:   key,
			Singleton:   singleton,
			DefaultSize: parseSize(m["defaultSize"]),
			MinSize:     parseSize(m["minSize"]),
		})
	}
	return NewRegistry(entries, parseSize(blk.Data["viewport"]))
}

// Lookup returns the entry for a window kind.
func (r *Registry) Lookup(key string) (domain.WindowRegistryEntry, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Keys returns the registered window kinds in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Viewport returns the declared viewport.
func (r *Registry) Viewport() domain.Size { return r.viewport }

func parseSize(raw any) *domain.Size {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	w, okW := number(m["width"])
	h, okH := number(m["height"])
	if !okW || !okH || w < 0 || h < 0 {
		return nil
	}
	return &domain.Size{Width: w, Height: h}
}

// number converts decoded JSON/YAML numbers to float64. Non-finite values are
// rejected.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
