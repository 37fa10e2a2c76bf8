package ledger

// Header is the global ledger metadata. There is exactly one logical
// header per layer.
type Header struct {
	LedgerVersion uint32
	LedgerSeq     uint32
	TotalCoins    int64
	BaseFee       uint32
	BaseReserve   uint32
	MaxTxSetSize  uint32
	InflationSeq  uint32
}

// Equals reports whether h and other hold identical field values.
func (h Header) Equals(other Header) bool {
	return h == other
}
