package ledger

import "fmt"

// EntryType discriminates the tagged union of LedgerKey/LedgerEntry.
type EntryType int

const (
	EntryTypeAccount EntryType = iota
	EntryTypeTrustLine
	EntryTypeOffer
	EntryTypeData
)

func (t EntryType) String() string {
	switch t {
	case EntryTypeAccount:
		return "Account"
	case EntryTypeTrustLine:
		return "TrustLine"
	case EntryTypeOffer:
		return "Offer"
	case EntryTypeData:
		return "Data"
	default:
		return fmt.Sprintf("EntryType(%d)", int(t))
	}
}

// Key identifies one ledger entry. It is a tagged union over the four
// entry kinds; only the fields relevant to Type are meaningful, mirroring
// stellar-core's LedgerKey. Key is comparable and therefore usable as a
// Go map key directly.
type Key struct {
	Type EntryType

	// Account, TrustLine, Offer
	AccountID AccountID

	// TrustLine
	Asset Asset

	// Offer
	OfferID int64

	// Data
	DataName string
}

// AccountKey builds the key for an account entry.
func AccountKey(id AccountID) Key {
	return Key{Type: EntryTypeAccount, AccountID: id}
}

// TrustLineKey builds the key for a trust line entry.
func TrustLineKey(id AccountID, asset Asset) Key {
	return Key{Type: EntryTypeTrustLine, AccountID: id, Asset: asset}
}

// OfferKey builds the key for an offer entry.
func OfferKey(seller AccountID, offerID int64) Key {
	return Key{Type: EntryTypeOffer, AccountID: seller, OfferID: offerID}
}

// DataKey builds the key for a data entry.
func DataKey(id AccountID, name string) Key {
	return Key{Type: EntryTypeData, AccountID: id, DataName: name}
}

func (k Key) String() string {
	switch k.Type {
	case EntryTypeAccount:
		return fmt.Sprintf("Account(%s)", k.AccountID)
	case EntryTypeTrustLine:
		return fmt.Sprintf("TrustLine(%s,%s)", k.AccountID, k.Asset)
	case EntryTypeOffer:
		return fmt.Sprintf("Offer(%s,%d)", k.AccountID, k.OfferID)
	case EntryTypeData:
		return fmt.Sprintf("Data(%s,%s)", k.AccountID, k.DataName)
	default:
		return "Key(invalid)"
	}
}

// AccountEntry is the payload of an Account ledger entry.
type AccountEntry struct {
	AccountID      AccountID
	Balance        int64
	SeqNum         int64
	InflationDest  *AccountID
	HomeDomain     string
	Thresholds     [4]byte // master weight, low, medium, high
	LastModifiedLedgerSeq uint32
}

// TrustLineEntry is the payload of a TrustLine ledger entry.
type TrustLineEntry struct {
	AccountID             AccountID
	Asset                 Asset
	Balance               int64
	Limit                 int64
	Flags                 uint32
	LastModifiedLedgerSeq uint32
}

// OfferEntry is the payload of an Offer ledger entry.
type OfferEntry struct {
	SellerID              AccountID
	OfferID               int64
	Selling               Asset
	Buying                Asset
	Amount                int64
	Price                 Price
	Flags                 uint32
	LastModifiedLedgerSeq uint32
}

// DataEntry is the payload of a Data ledger entry.
type DataEntry struct {
	AccountID             AccountID
	Name                  string
	Value                 []byte
	LastModifiedLedgerSeq uint32
}

// Entry is the tagged-union payload parallel to Key. Exactly one of the
// embedded pointers is non-nil, selected by Type.
type Entry struct {
	Type EntryType

	Account   *AccountEntry
	TrustLine *TrustLineEntry
	Offer     *OfferEntry
	Data      *DataEntry
}

// Key returns the Key identifying e.
func (e Entry) Key() Key {
	switch e.Type {
	case EntryTypeAccount:
		return AccountKey(e.Account.AccountID)
	case EntryTypeTrustLine:
		return TrustLineKey(e.TrustLine.AccountID, e.TrustLine.Asset)
	case EntryTypeOffer:
		return OfferKey(e.Offer.SellerID, e.Offer.OfferID)
	case EntryTypeData:
		return DataKey(e.Data.AccountID, e.Data.Name)
	default:
		panic(fmt.Sprintf("ledger: invalid entry type %d", int(e.Type)))
	}
}

// LastModifiedLedgerSeq returns the entry's bookkeeping field regardless
// of concrete type.
func (e Entry) LastModifiedLedgerSeq() uint32 {
	switch e.Type {
	case EntryTypeAccount:
		return e.Account.LastModifiedLedgerSeq
	case EntryTypeTrustLine:
		return e.TrustLine.LastModifiedLedgerSeq
	case EntryTypeOffer:
		return e.Offer.LastModifiedLedgerSeq
	case EntryTypeData:
		return e.Data.LastModifiedLedgerSeq
	default:
		panic(fmt.Sprintf("ledger: invalid entry type %d", int(e.Type)))
	}
}

// WithLastModifiedLedgerSeq returns a copy of e with its bookkeeping field
// set to seq.
func (e Entry) WithLastModifiedLedgerSeq(seq uint32) Entry {
	switch e.Type {
	case EntryTypeAccount:
		acc := *e.Account
		acc.LastModifiedLedgerSeq = seq
		return Entry{Type: e.Type, Account: &acc}
	case EntryTypeTrustLine:
		tl := *e.TrustLine
		tl.LastModifiedLedgerSeq = seq
		return Entry{Type: e.Type, TrustLine: &tl}
	case EntryTypeOffer:
		o := *e.Offer
		o.LastModifiedLedgerSeq = seq
		return Entry{Type: e.Type, Offer: &o}
	case EntryTypeData:
		d := *e.Data
		d.LastModifiedLedgerSeq = seq
		return Entry{Type: e.Type, Data: &d}
	default:
		panic(fmt.Sprintf("ledger: invalid entry type %d", int(e.Type)))
	}
}

// Equals reports whether e and other have identical keys and payloads.
// LastModifiedLedgerSeq participates in the comparison, matching
// stellar-core's LedgerEntry equality.
func (e Entry) Equals(other Entry) bool {
	if e.Type != other.Type {
		return false
	}
	switch e.Type {
	case EntryTypeAccount:
		a, b := e.Account, other.Account
		if (a.InflationDest == nil) != (b.InflationDest == nil) {
			return false
		}
		if a.InflationDest != nil && *a.InflationDest != *b.InflationDest {
			return false
		}
		return a.AccountID == b.AccountID && a.Balance == b.Balance &&
			a.SeqNum == b.SeqNum && a.HomeDomain == b.HomeDomain &&
			a.Thresholds == b.Thresholds &&
			a.LastModifiedLedgerSeq == b.LastModifiedLedgerSeq
	case EntryTypeTrustLine:
		a, b := e.TrustLine, other.TrustLine
		return a.AccountID == b.AccountID && a.Asset.Equals(b.Asset) &&
			a.Balance == b.Balance && a.Limit == b.Limit && a.Flags == b.Flags &&
			a.LastModifiedLedgerSeq == b.LastModifiedLedgerSeq
	case EntryTypeOffer:
		a, b := e.Offer, other.Offer
		return a.SellerID == b.SellerID && a.OfferID == b.OfferID &&
			a.Selling.Equals(b.Selling) && a.Buying.Equals(b.Buying) &&
			a.Amount == b.Amount && a.Price.Equal(b.Price) && a.Flags == b.Flags &&
			a.LastModifiedLedgerSeq == b.LastModifiedLedgerSeq
	case EntryTypeData:
		a, b := e.Data, other.Data
		return a.AccountID == b.AccountID && a.Name == b.Name &&
			string(a.Value) == string(b.Value) &&
			a.LastModifiedLedgerSeq == b.LastModifiedLedgerSeq
	default:
		return false
	}
}
