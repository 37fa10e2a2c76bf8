package ledgertxn

import "github.com/stellar/soroban-tools/ledger"

// EntryHandle is the mutable, exclusive borrow returned by Create and
// Load. While live it is the only way to read or mutate the entry it
// refers to; the owning transaction refuses to hand out a second handle
// for the same key until this one is released (by Release, by Erase, or
// implicitly when the owning transaction is committed or rolled back).
// Sealing the transaction with GetDelta does not release the handle.
type EntryHandle struct {
	owner    *LedgerTxn
	key      ledger.Key
	released bool
}

// Current returns the entry's present value. It panics if the handle has
// already been released (including by its transaction's Commit or
// Rollback) or the key has since been erased through it — both are
// programming errors, not runtime conditions a caller should need to
// branch on.
func (h *EntryHandle) Current() *ledger.Entry {
	if h.released || h.owner.state == stateTerminal {
		panic("ledgertxn: use of released EntryHandle")
	}
	d, ok := h.owner.delta.Entries[h.key]
	if !ok || d.Current == nil {
		panic("ledgertxn: EntryHandle refers to an absent entry")
	}
	return d.Current
}

// Set replaces the entry's current value in place, preserving the
// layer's recorded Previous.
func (h *EntryHandle) Set(e ledger.Entry) {
	if h.released || h.owner.state == stateTerminal {
		panic("ledgertxn: use of released EntryHandle")
	}
	d := h.owner.delta.Entries[h.key]
	d.Current = &e
	h.owner.delta.Entries[h.key] = d
}

// Erase deletes the entry through this handle; equivalent to calling
// Erase(key) on the owning transaction. The handle is released as a
// result.
func (h *EntryHandle) Erase() error {
	if h.released {
		return ErrHandleReleased
	}
	if err := h.owner.Erase(h.key); err != nil {
		return err
	}
	h.released = true
	return nil
}

// Release gives up the exclusive borrow without changing the entry,
// allowing the key to be loaded again in this transaction.
func (h *EntryHandle) Release() {
	if h.released {
		return
	}
	delete(h.owner.liveKeys, h.key)
	h.released = true
}

// ConstEntryHandle is the read-only snapshot returned by
// LoadWithoutRecord. It does not claim exclusivity and does not prevent
// the same key from being loaded (mutably or not) elsewhere in the same
// transaction.
type ConstEntryHandle struct {
	entry ledger.Entry
}

// Current returns the snapshotted entry value.
func (h *ConstEntryHandle) Current() ledger.Entry {
	return h.entry
}

// HeaderHandle is the mutable, exclusive borrow returned by LoadHeader.
type HeaderHandle struct {
	owner    *LedgerTxn
	released bool
}

// Header returns a pointer to the transaction's current header value;
// mutations through it are visible immediately to GetDelta and to the
// parent on commit.
func (h *HeaderHandle) Header() *ledger.Header {
	if h.released {
		panic("ledgertxn: use of released HeaderHandle")
	}
	return &h.owner.delta.Header.Current
}

// Release gives up the exclusive borrow on the header.
func (h *HeaderHandle) Release() {
	if h.released {
		return
	}
	h.owner.headerLive = false
	h.released = true
}
