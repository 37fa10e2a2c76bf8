package ledgertxn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/soroban-tools/ledger"
)

// fakeStore is a minimal in-memory EntryStore stand-in for ledgertxnroot.Root,
// used to exercise LedgerTxn in isolation.
type fakeStore struct {
	ChildGuard
	header  ledger.Header
	entries map[ledger.Key]ledger.Entry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		header:  ledger.Header{LedgerSeq: 1},
		entries: make(map[ledger.Key]ledger.Entry),
	}
}

func (s *fakeStore) GetHeader() (ledger.Header, error) { return s.header, nil }

func (s *fakeStore) GetEntry(key ledger.Key) (*ledger.Entry, error) {
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *fakeStore) GetBestOffer(buying, selling ledger.Asset, excluding map[ledger.Key]bool) (*ledger.Entry, error) {
	var best *ledger.Entry
	for k, e := range s.entries {
		if e.Type != ledger.EntryTypeOffer || excluding[k] {
			continue
		}
		if !offerMatches(e.Offer, buying, selling) {
			continue
		}
		ec := e
		if best == nil || betterOffer(ec.Offer, best.Offer) {
			best = &ec
		}
	}
	return best, nil
}

func (s *fakeStore) GetOffersByAccountAndAsset(account ledger.AccountID, asset ledger.Asset) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range s.entries {
		if e.Type != ledger.EntryTypeOffer || e.Offer.SellerID != account {
			continue
		}
		if e.Offer.Buying.Equals(asset) || e.Offer.Selling.Equals(asset) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) GetAllOffers() ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range s.entries {
		if e.Type == ledger.EntryTypeOffer {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) GetInflationWinners(maxWinners int, minVotes int64) ([]InflationWinner, error) {
	tally := make(map[ledger.AccountID]int64)
	for _, e := range s.entries {
		if e.Type != ledger.EntryTypeAccount || e.Account.InflationDest == nil {
			continue
		}
		tally[*e.Account.InflationDest] += e.Account.Balance
	}
	var out []InflationWinner
	for dest, votes := range tally {
		if votes >= minVotes {
			out = append(out, InflationWinner{AccountID: dest, Votes: votes})
		}
	}
	return out, nil
}

func (s *fakeStore) CommitChild(delta ledger.TxnDelta) error {
	for k, d := range delta.Entries {
		if d.Current == nil {
			delete(s.entries, k)
			continue
		}
		s.entries[k] = *d.Current
	}
	s.header = delta.Header.Current
	return nil
}

func acc(id string) ledger.Entry {
	return ledger.Entry{Type: ledger.EntryTypeAccount, Account: &ledger.AccountEntry{AccountID: ledger.AccountID(id), Balance: 100}}
}

func TestCreateThenCommitIsVisibleToParent(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)

	key := ledger.AccountKey("a1")
	_, err = ltx.Create(acc("a1"))
	require.NoError(t, err)

	require.NoError(t, ltx.Commit())

	e, err := store.GetEntry(key)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.EqualValues(t, "a1", e.Account.AccountID)
}

func TestRollbackDiscardsChanges(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)

	_, err = ltx.Create(acc("a1"))
	require.NoError(t, err)
	require.NoError(t, ltx.Rollback())

	e, err := store.GetEntry(ledger.AccountKey("a1"))
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestCreateDuplicateKeyFails(t *testing.T) {
	store := newFakeStore()
	store.entries[ledger.AccountKey("a1")] = acc("a1")
	ltx, err := Open(store, true)
	require.NoError(t, err)

	_, err = ltx.Create(acc("a1"))
	assert.ErrorIs(t, err, ErrKeyExists)
}

func TestLoadSameKeyTwiceFails(t *testing.T) {
	store := newFakeStore()
	store.entries[ledger.AccountKey("a1")] = acc("a1")
	ltx, err := Open(store, true)
	require.NoError(t, err)

	h1, err := ltx.Load(ledger.AccountKey("a1"))
	require.NoError(t, err)
	require.NotNil(t, h1)

	_, err = ltx.Load(ledger.AccountKey("a1"))
	assert.ErrorIs(t, err, ErrKeyLive)

	h1.Release()
	h2, err := ltx.Load(ledger.AccountKey("a1"))
	require.NoError(t, err)
	require.NotNil(t, h2)
}

func TestOnlyOneActiveChild(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)

	child1, err := Open(ltx, true)
	require.NoError(t, err)

	_, err = Open(ltx, true)
	assert.ErrorIs(t, err, ErrActiveChild)

	require.NoError(t, child1.Rollback())

	child2, err := Open(ltx, true)
	require.NoError(t, err)
	require.NoError(t, child2.Rollback())
}

func TestSealedTransactionRejectsMutation(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)

	_, err = ltx.GetDelta()
	require.NoError(t, err)

	_, err = ltx.Create(acc("a1"))
	assert.ErrorIs(t, err, ErrSealed)

	_, err = ltx.Load(ledger.AccountKey("a1"))
	assert.ErrorIs(t, err, ErrSealed)
}

func TestCommitAfterTerminalFails(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)
	require.NoError(t, ltx.Commit())
	assert.ErrorIs(t, ltx.Commit(), ErrTerminal)
	assert.ErrorIs(t, ltx.Rollback(), ErrTerminal)
}

// S3 from the overlay-commit scenarios: a first transaction creates
// K1=E1 and commits it to the store; a second child is opened, and its
// grandchild erases K1 then re-creates it as E1 again. Folded into the
// child, the erase/re-create nets to a read-through, which is elided.
func TestNestedCreateEraseRecreateCollapsesToNoOp(t *testing.T) {
	store := newFakeStore()
	root, err := Open(store, true)
	require.NoError(t, err)
	_, err = root.Create(acc("a1"))
	require.NoError(t, err)
	require.NoError(t, root.Commit())

	child, err := Open(store, true)
	require.NoError(t, err)

	grandchild, err := Open(child, true)
	require.NoError(t, err)
	require.NoError(t, grandchild.Erase(ledger.AccountKey("a1")))
	_, err = grandchild.Create(acc("a1"))
	require.NoError(t, err)
	require.NoError(t, grandchild.Commit())

	delta, err := child.GetDelta()
	require.NoError(t, err)
	_, present := delta.Entries[ledger.AccountKey("a1")]
	assert.False(t, present, "collapsed read-through entries should be elided from the merged delta")

	require.NoError(t, child.Rollback())
}

func TestNestedCommitFailsWithActiveChild(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)
	child, err := Open(ltx, true)
	require.NoError(t, err)
	assert.ErrorIs(t, ltx.Commit(), ErrActiveChild)
	require.NoError(t, child.Rollback())
	require.NoError(t, ltx.Rollback())
}

func offerEntry(seller string, offerID int64, buying, selling ledger.Asset, price ledger.Price, amount int64) ledger.Entry {
	return ledger.Entry{
		Type: ledger.EntryTypeOffer,
		Offer: &ledger.OfferEntry{
			SellerID: ledger.AccountID(seller),
			OfferID:  offerID,
			Buying:   buying,
			Selling:  selling,
			Price:    price,
			Amount:   amount,
		},
	}
}

// S4: parent has two offers at the same price; child's modification to a
// worse price on one should not displace the other as best offer.
func TestLoadBestOfferOverlayOverride(t *testing.T) {
	buying := ledger.NativeAsset()
	selling := ledger.IssuedAsset("USD", "issuer")

	store := newFakeStore()
	store.entries[ledger.OfferKey("a1", 1)] = offerEntry("a1", 1, buying, selling, ledger.Price{N: 1, D: 1}, 7)
	store.entries[ledger.OfferKey("a1", 2)] = offerEntry("a1", 2, buying, selling, ledger.Price{N: 1, D: 1}, 1)

	child, err := Open(store, true)
	require.NoError(t, err)

	h, err := child.Load(ledger.OfferKey("a1", 1))
	require.NoError(t, err)
	modified := offerEntry("a1", 1, buying, selling, ledger.Price{N: 2, D: 1}, 7)
	h.Set(modified)

	best, err := child.LoadBestOffer(buying, selling)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.EqualValues(t, 2, best.Offer.OfferID)

	require.NoError(t, child.Rollback())
}

func TestQueryInflationWinnersBoundary(t *testing.T) {
	store := newFakeStore()
	dest := ledger.AccountID("a3")
	store.entries[ledger.AccountKey("a1")] = ledger.Entry{Type: ledger.EntryTypeAccount, Account: &ledger.AccountEntry{AccountID: "a1", Balance: 1_000_000_003, InflationDest: &dest}}
	store.entries[ledger.AccountKey("a2")] = ledger.Entry{Type: ledger.EntryTypeAccount, Account: &ledger.AccountEntry{AccountID: "a2", Balance: 1_000_000_007, InflationDest: &dest}}

	ltx, err := Open(store, true)
	require.NoError(t, err)

	winners, err := ltx.QueryInflationWinners(1, 2_000_000_010)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, dest, winners[0].AccountID)
	assert.EqualValues(t, 2_000_000_010, winners[0].Votes)

	winners, err = ltx.QueryInflationWinners(1, 2_000_000_011)
	require.NoError(t, err)
	assert.Empty(t, winners)

	require.NoError(t, ltx.Rollback())
}

func TestGetLiveEntriesReturnsOwnLayerOnly(t *testing.T) {
	store := newFakeStore()
	store.entries[ledger.AccountKey("a1")] = acc("a1")

	ltx, err := Open(store, true)
	require.NoError(t, err)

	_, err = ltx.Create(acc("a2"))
	require.NoError(t, err)
	h, err := ltx.Load(ledger.AccountKey("a1"))
	require.NoError(t, err)
	require.NoError(t, h.Erase())

	entries, err := ltx.GetLiveEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1, "erased a1 must not appear, a2 (created here) must")
	assert.Equal(t, ledger.AccountID("a2"), entries[0].Account.AccountID)

	require.NoError(t, ltx.Rollback())
}

func TestGetLiveEntriesSealsTransaction(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)

	_, err = ltx.GetLiveEntries()
	require.NoError(t, err)

	_, err = ltx.Create(acc("a1"))
	assert.ErrorIs(t, err, ErrSealed)

	require.NoError(t, ltx.Rollback())
}

func TestLoadHeaderRejectsSecondLiveHandle(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)

	h, err := ltx.LoadHeader()
	require.NoError(t, err)
	h.Header().LedgerSeq = 2

	_, err = ltx.LoadHeader()
	assert.ErrorIs(t, err, ErrHeaderLive)

	h.Release()
	h2, err := ltx.LoadHeader()
	require.NoError(t, err)
	assert.EqualValues(t, 2, h2.Header().LedgerSeq)

	require.NoError(t, ltx.Rollback())
}

func TestUnsealHeaderRequiresSealedState(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)

	err = ltx.UnsealHeader(func(h *ledger.Header) { h.LedgerSeq = 9 })
	assert.ErrorIs(t, err, ErrNotSealed)

	_, err = ltx.GetDelta()
	require.NoError(t, err)

	require.NoError(t, ltx.UnsealHeader(func(h *ledger.Header) { h.LedgerSeq = 9 }))

	delta, err := ltx.GetDelta()
	require.NoError(t, err)
	assert.EqualValues(t, 9, delta.Header.Current.LedgerSeq)

	require.NoError(t, ltx.Rollback())
}

func TestUnsealHeaderRejectsWhileHeaderLive(t *testing.T) {
	store := newFakeStore()
	ltx, err := Open(store, true)
	require.NoError(t, err)

	h, err := ltx.LoadHeader()
	require.NoError(t, err)

	_, err = ltx.GetDelta()
	require.NoError(t, err, "sealing does not itself require the header handle to be released")

	err = ltx.UnsealHeader(func(h *ledger.Header) { h.LedgerSeq = 5 })
	assert.ErrorIs(t, err, ErrHeaderLive)

	h.Release()
	require.NoError(t, ltx.UnsealHeader(func(h *ledger.Header) { h.LedgerSeq = 5 }))

	require.NoError(t, ltx.Rollback())
}
