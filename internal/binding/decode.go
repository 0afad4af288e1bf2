package binding

import (
	"errors"
	"fmt"

	"blockshell/internal/domain"
)

var (
	errMissingMapping = errors.New("missing mapping")
	errBadEndpoints   = errors.New("endpoints must be a list of objects")
)

// Decode converts a binding block's data into its typed form. Literal values
// and access policies are kept exactly as they appear in the bundle.
func Decode(blk domain.Block) (domain.Binding, error) {
	data := blk.Data
	b := domain.Binding{
		BlockID:      blk.BlockID,
		Mode:         domain.BindingMode(str(data, "mode")),
		Enabled:      boolean(data, "enabled"),
		AccessPolicy: data["accessPolicy"],
	}

	eps, err := decodeEndpoints(data["endpoints"])
	if err != nil {
		return b, err
	}
	b.Endpoints = eps

	if raw, ok := data["mapping"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return b, fmt.Errorf("mapping must be an object, got %T", raw)
		}
		b.Mapping = &domain.Mapping{
			Kind:    domain.MappingKind(str(m, "kind")),
			From:    str(m, "from"),
			To:      str(m, "to"),
			Value:   m["value"],
			Path:    str(m, "path"),
			Trigger: decodeTrigger(m["trigger"]),
		}
	}
	return b, nil
}

// triggerOf returns the trigger a binding block declares, looking in
// data.mapping.trigger first and data.trigger second.
func triggerOf(data map[string]any) *domain.Trigger {
	if m, ok := data["mapping"].(map[string]any); ok {
		if t := decodeTrigger(m["trigger"]); t != nil {
			return t
		}
	}
	return decodeTrigger(data["trigger"])
}

func decodeTrigger(raw any) *domain.Trigger {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	t := &domain.Trigger{SourceBlockID: str(m, "sourceBlockId"), Name: str(m, "name")}
	if t.SourceBlockID == "" || t.Name == "" {
		return nil
	}
	return t
}

func decodeEndpoints(raw any) ([]domain.Endpoint, error) {
	if raw == nil {
		return nil, nil
	}
	var items []map[string]any
	switch t := raw.(type) {
	case []any:
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, errBadEndpoints
			}
			items = append(items, m)
		}
	case []map[string]any:
		items = t
	default:
		return nil, errBadEndpoints
	}

	eps := make([]domain.Endpoint, 0, len(items))
	for _, m := range items {
		ep := domain.Endpoint{
			EndpointID: str(m, "endpointId"),
			Direction:  domain.Direction(str(m, "direction")),
		}
		if target, ok := m["target"].(map[string]any); ok {
			ep.Target = domain.EndpointTarget{BlockID: str(target, "blockId"), Path: str(target, "path")}
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
