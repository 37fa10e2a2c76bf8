package ledgertxnroot

import (
	"github.com/stellar/soroban-tools/ledger"
	"github.com/stellar/soroban-tools/sqlstore"
)

// PersistentStore is the durable backing a Root sits on top of. It is
// satisfied structurally by *sqlstore.Store; Root never depends on
// sqlstore's concrete type, only this interface.
type PersistentStore interface {
	GetHeader() (ledger.Header, error)
	GetEntry(key ledger.Key) (*ledger.Entry, error)
	StreamOffersByAssetPair(buying, selling ledger.Asset) ([]ledger.Entry, error)
	StreamOffersBySeller(seller ledger.AccountID) ([]ledger.Entry, error)
	StreamAllOffers() ([]ledger.Entry, error)
	StreamInflationWinners(minVotes int64) ([]sqlstore.InflationWinner, error)
	CommitChild(delta ledger.TxnDelta) error
}
