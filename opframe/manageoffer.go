package opframe

import (
	"github.com/stellar/soroban-tools/ledger"
	"github.com/stellar/soroban-tools/ledgertxn"
)

// ManageOfferOp creates, updates, or (when Amount == 0) deletes a single
// offer owned by SellerID.
type ManageOfferOp struct {
	SellerID ledger.AccountID
	OfferID  int64
	Selling  ledger.Asset
	Buying   ledger.Asset
	Amount   int64
	Price    ledger.Price
}

func (op *ManageOfferOp) key() ledger.Key {
	return ledger.OfferKey(op.SellerID, op.OfferID)
}

func (op *ManageOfferOp) CheckValid(checker SignatureChecker, ledgerVersion uint32, ltx *ledgertxn.LedgerTxn, forApply bool) (ResultCode, error) {
	return runCheckValid(ltx, func(nested *ledgertxn.LedgerTxn) (ResultCode, error) {
		code, err := checkSourceAccount(checker, ledgerVersion, nested, op.SellerID, ThresholdMedium)
		if err != nil || code != ResultInner {
			return code, err
		}
		if op.Selling.Equals(op.Buying) {
			return ResultNotSupported, nil
		}
		if op.Amount < 0 {
			return ResultNotSupported, nil
		}
		if op.Amount > 0 && (op.Price.N <= 0 || op.Price.D <= 0) {
			return ResultNotSupported, nil
		}
		return ResultInner, nil
	})
}

func (op *ManageOfferOp) Apply(checker SignatureChecker, app AppContext, ltx *ledgertxn.LedgerTxn) (ResultCode, error) {
	if code, err := op.CheckValid(checker, app.LedgerVersion, ltx, true); err != nil || code != ResultInner {
		return code, err
	}

	handle, err := ltx.Load(op.key())
	if err != nil {
		return ResultNotSupported, err
	}

	if op.Amount == 0 {
		if handle == nil {
			return ResultNotSupported, nil
		}
		if err := handle.Erase(); err != nil {
			return ResultNotSupported, err
		}
		return ResultInner, nil
	}

	entry := ledger.Entry{
		Type: ledger.EntryTypeOffer,
		Offer: &ledger.OfferEntry{
			SellerID: op.SellerID,
			OfferID:  op.OfferID,
			Selling:  op.Selling,
			Buying:   op.Buying,
			Amount:   op.Amount,
			Price:    op.Price,
		},
	}

	if handle != nil {
		handle.Set(entry)
		handle.Release()
		return ResultInner, nil
	}

	if _, err := ltx.Create(entry); err != nil {
		return ResultNotSupported, err
	}
	return ResultInner, nil
}
