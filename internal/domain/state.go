package domain

// StateStore maps a block id to its runtime entry, shaped {"state": value}.
// Endpoint paths such as /state/val address into the entry. One store belongs
// to one session.
type StateStore map[string]map[string]any

// Entry returns the entry for blockID, creating an empty one when absent.
func (s StateStore) Entry(blockID string) map[string]any {
	e, ok := s[blockID]
	if !ok || e == nil {
		e = map[string]any{}
		s[blockID] = e
	}
	return e
}
