package sqlstore

import (
	"sort"

	sq "github.com/Masterminds/squirrel"

	"github.com/stellar/soroban-tools/ledger"
)

func upsertOfferIndex(stmtCache *sq.StmtCache, encodedKey []byte, entry ledger.Entry) error {
	o := entry.Offer
	_, err := sq.Replace(offersTableName).
		Columns("offer_key", "seller_id", "selling_type", "selling_code", "selling_issuer",
			"buying_type", "buying_code", "buying_issuer", "price_n", "price_d", "offer_id").
		Values(encodedKey, string(o.SellerID),
			int(o.Selling.Type), o.Selling.Code, string(o.Selling.Issuer),
			int(o.Buying.Type), o.Buying.Code, string(o.Buying.Issuer),
			o.Price.N, o.Price.D, o.OfferID).
		RunWith(stmtCache).Exec()
	return err
}

// StreamOffersByAssetPair returns every offer entry selling `selling`
// for `buying`, ordered by price ascending then offerID ascending —
// the order loadBestOffer relies on.
func (s *Store) StreamOffersByAssetPair(buying, selling ledger.Asset) ([]ledger.Entry, error) {
	q := sq.Select("le.payload").
		From(offersTableName+" ol").
		Join(entriesTableName+" le ON le.key = ol.offer_key").
		Where(sq.Eq{
			"ol.buying_type":    int(buying.Type),
			"ol.buying_code":    buying.Code,
			"ol.buying_issuer":  string(buying.Issuer),
			"ol.selling_type":   int(selling.Type),
			"ol.selling_code":   selling.Code,
			"ol.selling_issuer": string(selling.Issuer),
		}).
		OrderBy("ol.price_n * 1.0 / ol.price_d ASC", "ol.offer_id ASC")
	return s.queryOfferEntries(q)
}

// StreamOffersBySeller returns every offer entry owned by seller.
func (s *Store) StreamOffersBySeller(seller ledger.AccountID) ([]ledger.Entry, error) {
	q := sq.Select("le.payload").
		From(offersTableName+" ol").
		Join(entriesTableName+" le ON le.key = ol.offer_key").
		Where(sq.Eq{"ol.seller_id": string(seller)})
	return s.queryOfferEntries(q)
}

// StreamAllOffers returns every offer entry in the store.
func (s *Store) StreamAllOffers() ([]ledger.Entry, error) {
	q := sq.Select("payload").From(entriesTableName).Where(sq.Eq{"kind": int(ledger.EntryTypeOffer)})
	return s.queryOfferEntries(q)
}

func (s *Store) queryOfferEntries(q sq.SelectBuilder) ([]ledger.Entry, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Entry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		entry, err := decodeEntry(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// StreamInflationWinners aggregates votes by inflationDest across every
// account with an inflation destination set, returning pairs whose total
// meets minVotes, ordered by votes descending then account ID descending.
func (s *Store) StreamInflationWinners(minVotes int64) ([]InflationWinner, error) {
	sqlStr, args, err := sq.Select("payload").From(entriesTableName).
		Where(sq.Eq{"kind": int(ledger.EntryTypeAccount)}).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tally := make(map[ledger.AccountID]int64)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		entry, err := decodeEntry(payload)
		if err != nil {
			return nil, err
		}
		if entry.Account.InflationDest == nil {
			continue
		}
		tally[*entry.Account.InflationDest] += entry.Account.Balance
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []InflationWinner
	for dest, votes := range tally {
		if votes >= minVotes {
			out = append(out, InflationWinner{AccountID: dest, Votes: votes})
		}
	}
	sortInflationWinners(out)
	return out, nil
}

// InflationWinner mirrors ledgertxn.InflationWinner; sqlstore does not
// import package ledgertxn to avoid a dependency cycle, since
// ledgertxnroot (which does import ledgertxn) is what wires sqlstore in.
type InflationWinner struct {
	AccountID ledger.AccountID
	Votes     int64
}

func sortInflationWinners(w []InflationWinner) {
	sort.Slice(w, func(i, j int) bool {
		if w[i].Votes != w[j].Votes {
			return w[i].Votes > w[j].Votes
		}
		return w[i].AccountID > w[j].AccountID
	})
}
