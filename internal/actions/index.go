// Package actions derives the catalog of dispatchable actions from the
// interaction declarations of a bundle's blocks.
package actions

import (
	"sort"

	"blockshell/internal/domain"
)

const kindCommand = "command"

// Index is an immutable action catalog. Rebuild it whenever the bundle
// changes.
type Index struct {
	list []domain.ActionDescriptor
	byID map[string]int
}

// Build walks every block's data.interactions in blockId order, visiting
// interaction keys in sorted order.
//
// An interaction is an object {kind, params, accessPolicy}. Command
// interactions that name a commandId dispatch under that id, with the
// command's args (or the whole params object) as payload.
func Build(blocks map[string]domain.Block) *Index {
	ids := make([]string, 0, len(blocks))
	for id := range blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	idx := &Index{byID: map[string]int{}}
	for _, id := range ids {
		blk := blocks[id]
		interactions, ok := blk.Data["interactions"].(map[string]any)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(interactions))
		for k := range interactions {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			spec, ok := interactions[key].(map[string]any)
			if !ok {
				continue
			}
			d := describe(blk.BlockID, key, spec)
			idx.byID[d.ID] = len(idx.list)
			idx.list = append(idx.list, d)
		}
	}
	return idx
}

func describe(blockID, key string, spec map[string]any) domain.ActionDescriptor {
	kind, _ := spec["kind"].(string)
	params := spec["params"]

	d := domain.ActionDescriptor{
		ID:             blockID + ":" + key,
		SourceBlockID:  blockID,
		ActionName:     key,
		InteractionKey: key,
		Kind:           kind,
		Payload:        params,
		AccessPolicy:   spec["accessPolicy"],
	}
	if kind != kindCommand {
		return d
	}
	p, ok := params.(map[string]any)
	if !ok {
		return d
	}
	commandID, _ := p["commandId"].(string)
	if commandID == "" {
		return d
	}
	d.ActionName = commandID
	if args, ok := p["args"]; ok {
		d.Payload = args
	}
	return d
}

// List returns the catalog in build order.
func (x *Index) List() []domain.ActionDescriptor {
	if x == nil {
		return nil
	}
	out := make([]domain.ActionDescriptor, len(x.list))
	copy(out, x.list)
	return out
}

// Lookup returns the descriptor with the given id.
func (x *Index) Lookup(id string) (domain.ActionDescriptor, bool) {
	if x == nil {
		return domain.ActionDescriptor{}, false
	}
	i, ok := x.byID[id]
	if !ok {
		return domain.ActionDescriptor{}, false
	}
	return x.list[i], true
}

// Len returns the number of actions.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.list)
}
