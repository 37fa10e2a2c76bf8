package ledgertxn

import (
	"sort"

	"github.com/stellar/soroban-tools/ledger"
)

// offerMatches reports whether an offer entry buys exactly `buying` and
// sells exactly `selling`.
func offerMatches(o *ledger.OfferEntry, buying, selling ledger.Asset) bool {
	return o.Buying.Equals(buying) && o.Selling.Equals(selling)
}

// ownOfferOverrides returns this layer's view of every offer key it has
// touched: Current==nil for erased or zero-amount (erased-by-convention)
// offers, the live entry otherwise.
func (t *LedgerTxn) ownOfferOverrides() map[ledger.Key]*ledger.Entry {
	out := make(map[ledger.Key]*ledger.Entry, len(t.delta.Entries))
	for k, d := range t.delta.Entries {
		if k.Type != ledger.EntryTypeOffer {
			continue
		}
		if d.Current == nil || d.Current.Offer.Amount == 0 {
			out[k] = nil
			continue
		}
		out[k] = d.Current
	}
	return out
}

// LoadBestOffer returns the highest-priority (lowest price, ties by
// ascending offerID) offer visible at this layer for the given
// buying/selling pair, or nil if none exists.
func (t *LedgerTxn) LoadBestOffer(buying, selling ledger.Asset) (*ledger.Entry, error) {
	if err := t.checkAccessible(); err != nil {
		return nil, err
	}
	return t.GetBestOffer(buying, selling, nil)
}

// GetBestOffer implements EntryStore: the same overlay composition as
// LoadBestOffer, callable by a child regardless of whether this layer
// itself has been sealed or has an active child (the child already holds
// the exclusive access this layer would otherwise be gating).
// additionalExcluding, when non-nil, is unioned with this layer's own
// touched offer keys before asking the parent, and its keys are skipped
// among this layer's own offers as well.
func (t *LedgerTxn) GetBestOffer(buying, selling ledger.Asset, additionalExcluding map[ledger.Key]bool) (*ledger.Entry, error) {
	overrides := t.ownOfferOverrides()
	excluding := make(map[ledger.Key]bool, len(overrides)+len(additionalExcluding))
	for k := range overrides {
		excluding[k] = true
	}
	for k := range additionalExcluding {
		excluding[k] = true
	}
	parentBest, err := t.parent.GetBestOffer(buying, selling, excluding)
	if err != nil {
		return nil, err
	}
	best := parentBest
	for k, e := range overrides {
		if e == nil || additionalExcluding[k] || !offerMatches(e.Offer, buying, selling) {
			continue
		}
		if best == nil || betterOffer(e.Offer, best.Offer) {
			best = e
		}
	}
	return best, nil
}

// betterOffer reports whether a outranks b: lower price wins, ties
// broken by ascending offerID.
func betterOffer(a, b *ledger.OfferEntry) bool {
	if a.Price.Equal(b.Price) {
		return a.OfferID < b.OfferID
	}
	return a.Price.Less(b.Price)
}

// LoadOffersByAccountAndAsset returns every offer visible at this layer
// owned by account that references asset on either side.
func (t *LedgerTxn) LoadOffersByAccountAndAsset(account ledger.AccountID, asset ledger.Asset) ([]ledger.Entry, error) {
	if err := t.checkAccessible(); err != nil {
		return nil, err
	}
	return t.GetOffersByAccountAndAsset(account, asset)
}

// GetOffersByAccountAndAsset implements EntryStore.
func (t *LedgerTxn) GetOffersByAccountAndAsset(account ledger.AccountID, asset ledger.Asset) ([]ledger.Entry, error) {
	overrides := t.ownOfferOverrides()
	parentOffers, err := t.parent.GetOffersByAccountAndAsset(account, asset)
	if err != nil {
		return nil, err
	}
	var out []ledger.Entry
	for _, e := range parentOffers {
		key := e.Key()
		if ov, touched := overrides[key]; touched {
			if ov != nil && ov.Offer.SellerID == account &&
				(ov.Offer.Buying.Equals(asset) || ov.Offer.Selling.Equals(asset)) {
				out = append(out, *ov)
			}
			continue
		}
		out = append(out, e)
	}
	for k, e := range overrides {
		if e == nil {
			continue
		}
		if e.Offer.SellerID != account {
			continue
		}
		if !e.Offer.Buying.Equals(asset) && !e.Offer.Selling.Equals(asset) {
			continue
		}
		if containsParentKey(parentOffers, k) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func containsParentKey(entries []ledger.Entry, key ledger.Key) bool {
	for _, e := range entries {
		if e.Key() == key {
			return true
		}
	}
	return false
}

// LoadAllOffers materializes every offer visible at this layer, grouped
// by seller account.
func (t *LedgerTxn) LoadAllOffers() (map[ledger.AccountID][]ledger.Entry, error) {
	if err := t.checkAccessible(); err != nil {
		return nil, err
	}
	offers, err := t.GetAllOffers()
	if err != nil {
		return nil, err
	}
	out := make(map[ledger.AccountID][]ledger.Entry)
	for _, e := range offers {
		out[e.Offer.SellerID] = append(out[e.Offer.SellerID], e)
	}
	return out, nil
}

// GetAllOffers implements EntryStore.
func (t *LedgerTxn) GetAllOffers() ([]ledger.Entry, error) {
	overrides := t.ownOfferOverrides()
	parentOffers, err := t.parent.GetAllOffers()
	if err != nil {
		return nil, err
	}
	seen := make(map[ledger.Key]bool, len(overrides))
	var out []ledger.Entry
	for _, e := range parentOffers {
		key := e.Key()
		if ov, touched := overrides[key]; touched {
			seen[key] = true
			if ov != nil {
				out = append(out, *ov)
			}
			continue
		}
		out = append(out, e)
	}
	for k, e := range overrides {
		if seen[k] || e == nil {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

// QueryInflationWinners aggregates votes by inflationDest across
// accounts visible at this layer and returns the top maxWinners with at
// least minVotes, sorted by votes descending, ties broken by account ID
// descending. Accounts touched in this layer have their prior
// contribution (read from the parent) subtracted and their current one
// added on top of the parent's tally.
func (t *LedgerTxn) QueryInflationWinners(maxWinners int, minVotes int64) ([]InflationWinner, error) {
	if err := t.checkAccessible(); err != nil {
		return nil, err
	}
	return t.GetInflationWinners(maxWinners, minVotes)
}

// GetInflationWinners implements EntryStore.
func (t *LedgerTxn) GetInflationWinners(maxWinners int, minVotes int64) ([]InflationWinner, error) {
	touchedAccounts := make(map[ledger.Key]*ledger.Entry)
	for k, d := range t.delta.Entries {
		if k.Type == ledger.EntryTypeAccount {
			touchedAccounts[k] = d.Current
		}
	}
	parentWinners, err := t.parent.GetInflationWinners(maxWinners+len(touchedAccounts), 1)
	if err != nil {
		return nil, err
	}
	tally := make(map[ledger.AccountID]int64, len(parentWinners))
	for _, w := range parentWinners {
		tally[w.AccountID] = w.Votes
	}
	for k, cur := range touchedAccounts {
		prevEntry, err := t.parent.GetEntry(k)
		if err != nil {
			return nil, err
		}
		if prevEntry != nil && prevEntry.Account.InflationDest != nil {
			tally[*prevEntry.Account.InflationDest] -= prevEntry.Account.Balance
		}
		if cur != nil && cur.Account.InflationDest != nil {
			tally[*cur.Account.InflationDest] += cur.Account.Balance
		}
	}
	out := make([]InflationWinner, 0, len(tally))
	for dest, votes := range tally {
		if votes >= minVotes {
			out = append(out, InflationWinner{AccountID: dest, Votes: votes})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].AccountID > out[j].AccountID
	})
	if len(out) > maxWinners {
		out = out[:maxWinners]
	}
	return out, nil
}
