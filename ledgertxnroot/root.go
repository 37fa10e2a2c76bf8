package ledgertxnroot

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stellar/soroban-tools/ledger"
	"github.com/stellar/soroban-tools/ledgertxn"
)

var _ ledgertxn.EntryStore = (*Root)(nil)

const (
	entryCacheName      = "entry"
	bestOffersCacheName = "best_offers"
)

type assetPairKey struct {
	Buying, Selling ledger.Asset
}

// Root is the persistent root of a LedgerTxn tree: it implements
// ledgertxn.EntryStore directly against a PersistentStore, fronted by a
// bounded entry cache and a bounded best-offers-per-asset-pair cache.
// A size of 0 for either disables that cache. Root is safe to serve
// independent transaction trees from different goroutines serially, but
// only one tree may be open against it at a time (enforced by the
// embedded ChildGuard).
type Root struct {
	ledgertxn.ChildGuard

	persistent PersistentStore
	metrics    *cacheMetrics

	entryCache      *lru.Cache
	bestOffersCache *lru.Cache
}

// New builds a Root over persistent. entryCacheSize and
// bestOffersCacheSize are the bounded LRU cache capacities; 0 disables
// the respective cache. metricsNamespace labels the prometheus
// collectors returned by Collectors.
func New(persistent PersistentStore, entryCacheSize, bestOffersCacheSize int, metricsNamespace string) (*Root, error) {
	r := &Root{persistent: persistent, metrics: newCacheMetrics(metricsNamespace)}
	if entryCacheSize > 0 {
		c, err := lru.New(entryCacheSize)
		if err != nil {
			return nil, err
		}
		r.entryCache = c
	}
	if bestOffersCacheSize > 0 {
		c, err := lru.New(bestOffersCacheSize)
		if err != nil {
			return nil, err
		}
		r.bestOffersCache = c
	}
	return r, nil
}

// Collectors returns the Root's prometheus collectors, for registration
// with a prometheus.Registerer.
func (r *Root) Collectors() []prometheus.Collector {
	return r.metrics.Collectors()
}

// GetHeader implements ledgertxn.EntryStore.
func (r *Root) GetHeader() (ledger.Header, error) {
	return r.persistent.GetHeader()
}

// GetEntry implements ledgertxn.EntryStore, serving from the entry cache
// when enabled.
func (r *Root) GetEntry(key ledger.Key) (*ledger.Entry, error) {
	if r.entryCache != nil {
		if v, ok := r.entryCache.Get(key); ok {
			r.metrics.hit(entryCacheName)
			if v == nil {
				return nil, nil
			}
			e := v.(ledger.Entry)
			return &e, nil
		}
		r.metrics.miss(entryCacheName)
	}
	e, err := r.persistent.GetEntry(key)
	if err != nil {
		return nil, err
	}
	if r.entryCache != nil {
		if e == nil {
			r.entryCache.Add(key, nil)
		} else {
			r.entryCache.Add(key, *e)
		}
	}
	return e, nil
}

// GetBestOffer implements ledgertxn.EntryStore. The asset pair's full
// price-sorted offer list is cached; excluding is applied on every call
// regardless of cache state, since it reflects per-call overlay state
// rather than backing-store state.
func (r *Root) GetBestOffer(buying, selling ledger.Asset, excluding map[ledger.Key]bool) (*ledger.Entry, error) {
	pair := assetPairKey{Buying: buying, Selling: selling}
	var offers []ledger.Entry
	if r.bestOffersCache != nil {
		if v, ok := r.bestOffersCache.Get(pair); ok {
			r.metrics.hit(bestOffersCacheName)
			offers = v.([]ledger.Entry)
		} else {
			r.metrics.miss(bestOffersCacheName)
		}
	}
	if offers == nil {
		var err error
		offers, err = r.persistent.StreamOffersByAssetPair(buying, selling)
		if err != nil {
			return nil, err
		}
		if r.bestOffersCache != nil {
			r.bestOffersCache.Add(pair, offers)
		}
	}
	for i := range offers {
		if !excluding[offers[i].Key()] {
			e := offers[i]
			return &e, nil
		}
	}
	return nil, nil
}

// GetOffersByAccountAndAsset implements ledgertxn.EntryStore.
func (r *Root) GetOffersByAccountAndAsset(account ledger.AccountID, asset ledger.Asset) ([]ledger.Entry, error) {
	offers, err := r.persistent.StreamOffersBySeller(account)
	if err != nil {
		return nil, err
	}
	var out []ledger.Entry
	for _, o := range offers {
		if o.Offer.Buying.Equals(asset) || o.Offer.Selling.Equals(asset) {
			out = append(out, o)
		}
	}
	return out, nil
}

// GetAllOffers implements ledgertxn.EntryStore.
func (r *Root) GetAllOffers() ([]ledger.Entry, error) {
	return r.persistent.StreamAllOffers()
}

// GetInflationWinners implements ledgertxn.EntryStore.
func (r *Root) GetInflationWinners(maxWinners int, minVotes int64) ([]ledgertxn.InflationWinner, error) {
	winners, err := r.persistent.StreamInflationWinners(minVotes)
	if err != nil {
		return nil, err
	}
	if len(winners) > maxWinners {
		winners = winners[:maxWinners]
	}
	out := make([]ledgertxn.InflationWinner, len(winners))
	for i, w := range winners {
		out[i] = ledgertxn.InflationWinner{AccountID: w.AccountID, Votes: w.Votes}
	}
	return out, nil
}

// CommitChild implements ledgertxn.EntryStore: applies delta as one
// atomic backing-store transaction, then invalidates every cache entry
// delta touched — on both success and failure, so a partially-applied
// write can never be served back out of a stale cache.
func (r *Root) CommitChild(delta ledger.TxnDelta) error {
	err := r.persistent.CommitChild(delta)
	r.invalidate(delta)
	return err
}

func (r *Root) invalidate(delta ledger.TxnDelta) {
	touchedOffers := false
	if r.entryCache != nil {
		for key := range delta.Entries {
			r.entryCache.Remove(key)
			if key.Type == ledger.EntryTypeOffer {
				touchedOffers = true
			}
		}
	} else {
		for key := range delta.Entries {
			if key.Type == ledger.EntryTypeOffer {
				touchedOffers = true
				break
			}
		}
	}
	if touchedOffers && r.bestOffersCache != nil {
		r.bestOffersCache.Purge()
	}
}
