package ledgertxn

import "github.com/stellar/soroban-tools/ledger"

// InflationWinner is one row of an inflation vote tally.
type InflationWinner struct {
	AccountID ledger.AccountID
	Votes     int64
}

// EntryStore is the parent a LedgerTxn is opened against: either another
// LedgerTxn (nesting) or the persistent root. Reads resolve through
// whatever layer implements it; commits fold a sealed child's delta into
// it. AttachChild/DetachChild enforce the single-active-child invariant
// at every level of nesting, including the root.
type EntryStore interface {
	GetHeader() (ledger.Header, error)

	// GetEntry returns the entry for key, or nil if it does not exist.
	GetEntry(key ledger.Key) (*ledger.Entry, error)

	// GetBestOffer returns the highest-priority (lowest price) offer
	// selling `selling` for `buying`, excluding any offer key present in
	// excluding, or nil if none remain.
	GetBestOffer(buying, selling ledger.Asset, excluding map[ledger.Key]bool) (*ledger.Entry, error)

	// GetOffersByAccountAndAsset returns every offer owned by account that
	// references asset on either side.
	GetOffersByAccountAndAsset(account ledger.AccountID, asset ledger.Asset) ([]ledger.Entry, error)

	// GetAllOffers returns every offer entry visible at this layer. It
	// backs LoadAllOffers; the root streams it from the offer lookup
	// table, a LedgerTxn composes it from its own delta and its parent.
	GetAllOffers() ([]ledger.Entry, error)

	// GetInflationWinners returns up to maxWinners accounts with at least
	// minVotes inflation votes, ordered by votes descending.
	GetInflationWinners(maxWinners int, minVotes int64) ([]InflationWinner, error)

	// CommitChild folds a sealed child's delta into this layer: in memory
	// for a LedgerTxn parent, as one atomic backing-store write for the
	// root.
	CommitChild(delta ledger.TxnDelta) error

	// AttachChild and DetachChild guard the single-active-child
	// invariant; AttachChild fails if a child is already attached.
	AttachChild() error
	DetachChild()
}

// ChildGuard implements the attach/detach half of EntryStore and is meant
// to be embedded by every EntryStore implementation (LedgerTxn and the
// root alike) so the invariant is enforced identically everywhere.
type ChildGuard struct {
	active bool
}

// AttachChild marks g as having an active child, failing if one is
// already attached.
func (g *ChildGuard) AttachChild() error {
	if g.active {
		return ErrActiveChild
	}
	g.active = true
	return nil
}

// DetachChild clears the active-child flag.
func (g *ChildGuard) DetachChild() {
	g.active = false
}

// HasActiveChild reports whether a child is currently attached.
func (g *ChildGuard) HasActiveChild() bool {
	return g.active
}
