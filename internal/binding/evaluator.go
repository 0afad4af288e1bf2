// Package binding evaluates binding blocks against a session's state store.
//
// Evaluation is deterministic: selected bindings run in ascending blockId
// order and each one is isolated, so a failing binding is counted and logged
// without affecting the others.
package binding

import (
	"fmt"
	"sort"

	"blockshell/internal/domain"
	"blockshell/internal/pointer"
	"blockshell/internal/policy"
)

// Trigger is a dispatched event together with its payload.
type Trigger struct {
	SourceBlockID string
	ActionName    string
	Payload       any
}

// ApplyDerivedTick applies every enabled derived binding once, mutating
// state in place.
func ApplyDerivedTick(bundle *domain.Bundle, state domain.StateStore) domain.EvalResult {
	ids := selectBindings(bundle, func(data map[string]any) bool {
		return str(data, "mode") == string(domain.BindingModeDerived)
	})

	res := domain.EvalResult{Logs: []string{}}
	for _, id := range ids {
		b, err := Decode(bundle.Blocks[id])
		if err == nil {
			err = apply(b, state, nil)
		}
		record(&res, id, err)
	}
	return res
}

// ApplyTriggered applies every enabled triggered binding whose trigger
// matches t. Bindings whose access policy rejects caller are skipped.
func ApplyTriggered(bundle *domain.Bundle, state domain.StateStore, t Trigger, caller policy.Caller) domain.EvalResult {
	ids := selectBindings(bundle, func(data map[string]any) bool {
		if str(data, "mode") != string(domain.BindingModeTriggered) {
			return false
		}
		trig := triggerOf(data)
		return trig != nil && trig.SourceBlockID == t.SourceBlockID && trig.Name == t.ActionName
	})

	res := domain.EvalResult{Logs: []string{}}
	for _, id := range ids {
		b, err := Decode(bundle.Blocks[id])
		if err == nil {
			if !policy.Allowed(b.AccessPolicy, caller) {
				err = fmt.Errorf("access denied by policy")
			} else {
				err = apply(b, state, &t)
			}
		}
		record(&res, id, err)
	}
	return res
}

func selectBindings(bundle *domain.Bundle, match func(map[string]any) bool) []string {
	if bundle == nil {
		return nil
	}
	var ids []string
	for id, blk := range bundle.Blocks {
		if blk.BlockType != domain.BlockTypeBinding || blk.Data == nil {
			continue
		}
		if !boolean(blk.Data, "enabled") || !match(blk.Data) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func record(res *domain.EvalResult, id string, err error) {
	if err != nil {
		res.Skipped++
		res.Logs = append(res.Logs, fmt.Sprintf("binding %s: %v", id, err))
		return
	}
	res.Applied++
}

func apply(b domain.Binding, state domain.StateStore, t *Trigger) error {
	m := b.Mapping
	if m == nil {
		return errMissingMapping
	}

	switch m.Kind {
	case domain.MappingCopy:
		src, err := endpoint(b, m.From, "from", domain.Direction.Readable)
		if err != nil {
			return err
		}
		dst, err := endpoint(b, m.To, "to", domain.Direction.Writable)
		if err != nil {
			return err
		}
		val, err := read(state, src)
		if err != nil {
			return err
		}
		return write(state, dst, pointer.Clone(val))

	case domain.MappingSetLiteral:
		dst, err := endpoint(b, m.To, "to", domain.Direction.Writable)
		if err != nil {
			return err
		}
		return write(state, dst, pointer.Clone(m.Value))

	case domain.MappingSetPayload:
		if t == nil {
			return fmt.Errorf("setPayload needs a dispatched payload")
		}
		dst, err := endpoint(b, m.To, "to", domain.Direction.Writable)
		if err != nil {
			return err
		}
		val := t.Payload
		if m.Path != "" {
			v, ok := pointer.Get(t.Payload, m.Path)
			if !ok {
				return fmt.Errorf("payload has no value at %s", m.Path)
			}
			val = v
		}
		return write(state, dst, pointer.Clone(val))

	default:
		return fmt.Errorf("unsupported mapping kind %q", m.Kind)
	}
}

func endpoint(b domain.Binding, id, role string, allowed func(domain.Direction) bool) (domain.Endpoint, error) {
	if id == "" {
		return domain.Endpoint{}, fmt.Errorf("mapping has no %q endpoint", role)
	}
	ep, ok := b.Endpoint(id)
	if !ok {
		return domain.Endpoint{}, fmt.Errorf("unknown endpoint %q", id)
	}
	if !allowed(ep.Direction) {
		return domain.Endpoint{}, fmt.Errorf("endpoint %q has direction %q, cannot be used as %q", id, ep.Direction, role)
	}
	if ep.Target.BlockID == "" {
		return domain.Endpoint{}, fmt.Errorf("endpoint %q has no target block", id)
	}
	if _, err := pointer.Parse(ep.Target.Path); err != nil {
		return domain.Endpoint{}, fmt.Errorf("endpoint %q: %w %q", id, err, ep.Target.Path)
	}
	return ep, nil
}

func read(state domain.StateStore, ep domain.Endpoint) (any, error) {
	entry, ok := state[ep.Target.BlockID]
	if !ok {
		return nil, fmt.Errorf("source block %q has no state", ep.Target.BlockID)
	}
	val, ok := pointer.Get(entry, ep.Target.Path)
	if !ok {
		return nil, fmt.Errorf("no value at %s%s", ep.Target.BlockID, ep.Target.Path)
	}
	return val, nil
}

func write(state domain.StateStore, ep domain.Endpoint, val any) error {
	if ep.Target.Path == "/" {
		return fmt.Errorf("cannot replace the whole entry of %s", ep.Target.BlockID)
	}
	if !pointer.Set(state.Entry(ep.Target.BlockID), ep.Target.Path, val) {
		return fmt.Errorf("cannot write %s%s", ep.Target.BlockID, ep.Target.Path)
	}
	return nil
}
