package ledgertxn

import "github.com/stellar/soroban-tools/ledger"

var _ EntryStore = (*LedgerTxn)(nil)

type txnState int

const (
	stateOpen txnState = iota
	stateSealed
	stateTerminal
)

// LedgerTxn is a nested, in-memory overlay on top of an EntryStore
// (another LedgerTxn or the root). It stages creates, modifications,
// deletes, and header edits in its own delta, resolving anything it
// hasn't touched by walking up to its parent. Nothing here is safe for
// concurrent use: a LedgerTxn and its handles are meant to be driven by
// one goroutine at a time, the way a single ledger-close pass would.
type LedgerTxn struct {
	ChildGuard

	parent      EntryStore
	enforceMeta bool
	state       txnState

	delta    ledger.TxnDelta
	liveKeys map[ledger.Key]struct{}

	headerLive bool
}

// Open attaches a new LedgerTxn as parent's sole active child. It fails
// if parent already has an active child. When enforceMeta is true (the
// normal case), every entry created or modified in this transaction has
// its LastModifiedLedgerSeq stamped to the header's LedgerSeq at commit
// time.
func Open(parent EntryStore, enforceMeta bool) (*LedgerTxn, error) {
	if err := parent.AttachChild(); err != nil {
		return nil, err
	}
	header, err := parent.GetHeader()
	if err != nil {
		parent.DetachChild()
		return nil, err
	}
	return &LedgerTxn{
		parent:      parent,
		enforceMeta: enforceMeta,
		state:       stateOpen,
		delta: ledger.TxnDelta{
			Entries: make(map[ledger.Key]ledger.EntryDelta),
			Header:  ledger.HeaderDelta{Current: header, Previous: header},
		},
		liveKeys: make(map[ledger.Key]struct{}),
	}, nil
}

func (t *LedgerTxn) checkAccessible() error {
	switch t.state {
	case stateTerminal:
		return ErrTerminal
	case stateSealed:
		return ErrSealed
	}
	if t.HasActiveChild() {
		return ErrActiveChild
	}
	return nil
}

// visible reports whether key currently resolves to a present entry, and
// returns it. It consults self's delta first, then the parent.
func (t *LedgerTxn) visible(key ledger.Key) (*ledger.Entry, error) {
	if d, ok := t.delta.Entries[key]; ok {
		return d.Current, nil
	}
	return t.parent.GetEntry(key)
}

// Create records a brand new entry, failing if the key is already
// visible as present anywhere in the ancestry.
func (t *LedgerTxn) Create(entry ledger.Entry) (*EntryHandle, error) {
	if err := t.checkAccessible(); err != nil {
		return nil, err
	}
	key := entry.Key()
	if _, live := t.liveKeys[key]; live {
		return nil, ErrKeyLive
	}
	cur, err := t.visible(key)
	if err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, ErrKeyExists
	}
	e := entry
	var previous *ledger.Entry
	if d, ok := t.delta.Entries[key]; ok && d.IsDelete() {
		previous = d.Previous
	}
	t.delta.Entries[key] = ledger.EntryDelta{Current: &e, Previous: previous}
	t.liveKeys[key] = struct{}{}
	return &EntryHandle{owner: t, key: key}, nil
}

// Load returns a mutable handle to key's current entry, or a nil handle
// if it does not exist. It fails if key already has a live handle in
// this transaction.
func (t *LedgerTxn) Load(key ledger.Key) (*EntryHandle, error) {
	if err := t.checkAccessible(); err != nil {
		return nil, err
	}
	if _, live := t.liveKeys[key]; live {
		return nil, ErrKeyLive
	}
	if d, ok := t.delta.Entries[key]; ok {
		if d.Current == nil {
			return nil, nil
		}
		t.liveKeys[key] = struct{}{}
		return &EntryHandle{owner: t, key: key}, nil
	}
	e, err := t.parent.GetEntry(key)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	prev := *e
	t.delta.Entries[key] = ledger.EntryDelta{Current: e, Previous: &prev}
	t.liveKeys[key] = struct{}{}
	return &EntryHandle{owner: t, key: key}, nil
}

// LoadWithoutRecord returns a read-only snapshot of key's current entry,
// or nil if it does not exist. Unlike Load it never claims exclusivity
// and never writes a read-through entry into this layer's delta.
func (t *LedgerTxn) LoadWithoutRecord(key ledger.Key) (*ConstEntryHandle, error) {
	if err := t.checkAccessible(); err != nil {
		return nil, err
	}
	e, err := t.visible(key)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	return &ConstEntryHandle{entry: *e}, nil
}

// Erase removes key, failing if it is not currently visible as present.
// If key was created in this same transaction, the delta entry is
// dropped entirely (net-zero); otherwise a deletion is recorded against
// whatever this layer's delta already carries, or against the parent's
// current value if key hadn't been touched here yet.
func (t *LedgerTxn) Erase(key ledger.Key) error {
	if err := t.checkAccessible(); err != nil {
		return err
	}
	if d, ok := t.delta.Entries[key]; ok {
		if d.Current == nil {
			return ErrKeyNotFound
		}
		delete(t.liveKeys, key)
		if d.IsCreate() {
			delete(t.delta.Entries, key)
			return nil
		}
		t.delta.Entries[key] = ledger.EntryDelta{Current: nil, Previous: d.Previous}
		return nil
	}
	e, err := t.parent.GetEntry(key)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrKeyNotFound
	}
	delete(t.liveKeys, key)
	t.delta.Entries[key] = ledger.EntryDelta{Current: nil, Previous: e}
	return nil
}

// LoadHeader returns a mutable handle to the transaction's header,
// failing if a header handle is already live.
func (t *LedgerTxn) LoadHeader() (*HeaderHandle, error) {
	if err := t.checkAccessible(); err != nil {
		return nil, err
	}
	if t.headerLive {
		return nil, ErrHeaderLive
	}
	t.headerLive = true
	return &HeaderHandle{owner: t}, nil
}

// GetDelta seals the transaction and returns its accumulated delta. The
// returned value is a defensive copy; mutating it has no effect on t.
func (t *LedgerTxn) GetDelta() (ledger.TxnDelta, error) {
	if err := t.checkSealable(); err != nil {
		return ledger.TxnDelta{}, err
	}
	t.state = stateSealed
	return t.copyDelta(), nil
}

// GetLiveEntries seals the transaction and returns the entries currently
// present in this layer's own delta (created, modified, or read-through
// entries with Current != nil). It does not enumerate the parent.
func (t *LedgerTxn) GetLiveEntries() ([]ledger.Entry, error) {
	if err := t.checkSealable(); err != nil {
		return nil, err
	}
	t.state = stateSealed
	out := make([]ledger.Entry, 0, len(t.delta.Entries))
	for _, d := range t.delta.Entries {
		if d.Current != nil {
			out = append(out, *d.Current)
		}
	}
	return out, nil
}

func (t *LedgerTxn) checkSealable() error {
	if t.state == stateTerminal {
		return ErrTerminal
	}
	if t.HasActiveChild() {
		return ErrActiveChild
	}
	return nil
}

func (t *LedgerTxn) copyDelta() ledger.TxnDelta {
	entries := make(map[ledger.Key]ledger.EntryDelta, len(t.delta.Entries))
	for k, v := range t.delta.Entries {
		entries[k] = v
	}
	return ledger.TxnDelta{Entries: entries, Header: t.delta.Header}
}

// UnsealHeader lets a sealed transaction's header be touched once more,
// via f, without unsealing the rest of the transaction. It is the
// narrow escape hatch used when a ledger-close step needs to bump the
// header (e.g. LedgerSeq) after the bulk of a transaction's effects have
// already been observed with GetDelta.
func (t *LedgerTxn) UnsealHeader(f func(h *ledger.Header)) error {
	if t.state != stateSealed {
		return ErrNotSealed
	}
	if t.headerLive {
		return ErrHeaderLive
	}
	t.headerLive = true
	f(&t.delta.Header.Current)
	t.headerLive = false
	return nil
}

// Commit folds this transaction's delta into its parent and marks it
// terminal. It fails if this transaction itself has an active child.
func (t *LedgerTxn) Commit() error {
	if t.state == stateTerminal {
		return ErrTerminal
	}
	if t.HasActiveChild() {
		return ErrActiveChild
	}
	if t.enforceMeta {
		t.stampLastModified()
	}
	if err := t.parent.CommitChild(t.delta); err != nil {
		return err
	}
	t.parent.DetachChild()
	t.state = stateTerminal
	return nil
}

// Rollback discards this transaction's delta and marks it terminal. It
// fails if this transaction itself has an active child.
func (t *LedgerTxn) Rollback() error {
	if t.state == stateTerminal {
		return ErrTerminal
	}
	if t.HasActiveChild() {
		return ErrActiveChild
	}
	t.parent.DetachChild()
	t.state = stateTerminal
	return nil
}

func (t *LedgerTxn) stampLastModified() {
	seq := t.delta.Header.Current.LedgerSeq
	for k, d := range t.delta.Entries {
		if d.Current == nil {
			continue
		}
		if d.Current.LastModifiedLedgerSeq() == seq {
			continue
		}
		stamped := d.Current.WithLastModifiedLedgerSeq(seq)
		d.Current = &stamped
		t.delta.Entries[k] = d
	}
}

// CommitChild implements EntryStore for a LedgerTxn acting as a parent:
// it folds a sealed grandchild's delta into this transaction's own, per
// the same commit-merge rules the root applies when persisting.
func (t *LedgerTxn) CommitChild(child ledger.TxnDelta) error {
	for key, cd := range child.Entries {
		if pd, ok := t.delta.Entries[key]; ok {
			if !entryPtrEqual(cd.Previous, pd.Current) {
				return ErrInvariantBroken
			}
			merged := ledger.EntryDelta{Current: cd.Current, Previous: pd.Previous}
			if merged.IsReadThrough() {
				delete(t.delta.Entries, key)
			} else {
				t.delta.Entries[key] = merged
			}
		} else if !cd.IsReadThrough() {
			t.delta.Entries[key] = cd
		}
	}
	if !child.Header.Previous.Equals(t.delta.Header.Current) {
		return ErrInvariantBroken
	}
	t.delta.Header.Current = child.Header.Current
	return nil
}

func entryPtrEqual(a, b *ledger.Entry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(*b)
}

// GetHeader implements EntryStore: the header currently visible within
// this transaction.
func (t *LedgerTxn) GetHeader() (ledger.Header, error) {
	return t.delta.Header.Current, nil
}

// GetEntry implements EntryStore: resolves key against this
// transaction's own delta, falling back to the parent.
func (t *LedgerTxn) GetEntry(key ledger.Key) (*ledger.Entry, error) {
	return t.visible(key)
}
