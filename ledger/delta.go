package ledger

// EntryDelta is the change recorded for one key in a single transaction
// layer's delta map: a (current, previous) pair where each side is either
// present (non-nil) or absent (nil). The combinations encode:
//
//   - Previous == nil, Current != nil: created in this layer.
//   - Previous != nil, Current != nil, different: modified.
//   - Previous != nil, Current == nil: deleted.
//   - Previous != nil, Current != nil, equal: a pure read-through, kept
//     only to disambiguate "loaded but untouched" from "never observed".
type EntryDelta struct {
	Current  *Entry
	Previous *Entry
}

// IsReadThrough reports whether d records a load with no net change.
func (d EntryDelta) IsReadThrough() bool {
	if d.Current == nil || d.Previous == nil {
		return false
	}
	return d.Current.Equals(*d.Previous)
}

// IsCreate reports whether d records a brand new key.
func (d EntryDelta) IsCreate() bool {
	return d.Previous == nil && d.Current != nil
}

// IsDelete reports whether d records the removal of a previously-visible
// key.
func (d EntryDelta) IsDelete() bool {
	return d.Previous != nil && d.Current == nil
}

// HeaderDelta is the (current, previous) pair for the ledger header.
type HeaderDelta struct {
	Current  Header
	Previous Header
}

// TxnDelta is the observable change of one transaction layer: every key
// touched (created, modified, deleted, or merely read-through) mapped to
// its EntryDelta, plus the header delta. Map iteration order is
// irrelevant per spec.
type TxnDelta struct {
	Entries map[Key]EntryDelta
	Header  HeaderDelta
}

// NewTxnDelta returns an empty TxnDelta.
func NewTxnDelta() TxnDelta {
	return TxnDelta{Entries: make(map[Key]EntryDelta)}
}
