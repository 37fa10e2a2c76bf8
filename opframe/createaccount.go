package opframe

import (
	"github.com/stellar/soroban-tools/ledger"
	"github.com/stellar/soroban-tools/ledgertxn"
)

// CreateAccountOp funds a brand new account from an existing one.
type CreateAccountOp struct {
	SourceAccount   ledger.AccountID
	Destination     ledger.AccountID
	StartingBalance int64
}

func (op *CreateAccountOp) CheckValid(checker SignatureChecker, ledgerVersion uint32, ltx *ledgertxn.LedgerTxn, forApply bool) (ResultCode, error) {
	return runCheckValid(ltx, func(nested *ledgertxn.LedgerTxn) (ResultCode, error) {
		code, err := checkSourceAccount(checker, ledgerVersion, nested, op.SourceAccount, ThresholdMedium)
		if err != nil || code != ResultInner {
			return code, err
		}
		if op.StartingBalance <= 0 {
			return ResultNotSupported, nil
		}
		dest, err := nested.LoadWithoutRecord(ledger.AccountKey(op.Destination))
		if err != nil {
			return ResultNoAccount, err
		}
		if dest != nil {
			return ResultNotSupported, nil
		}
		return ResultInner, nil
	})
}

func (op *CreateAccountOp) Apply(checker SignatureChecker, app AppContext, ltx *ledgertxn.LedgerTxn) (ResultCode, error) {
	if code, err := op.CheckValid(checker, app.LedgerVersion, ltx, true); err != nil || code != ResultInner {
		return code, err
	}

	sourceHandle, err := ltx.Load(ledger.AccountKey(op.SourceAccount))
	if err != nil {
		return ResultNoAccount, err
	}
	source := sourceHandle.Current()
	updatedAccount := *source.Account
	updatedAccount.Balance -= op.StartingBalance
	sourceHandle.Set(ledger.Entry{Type: ledger.EntryTypeAccount, Account: &updatedAccount})
	sourceHandle.Release()

	if _, err := ltx.Create(ledger.Entry{
		Type: ledger.EntryTypeAccount,
		Account: &ledger.AccountEntry{
			AccountID: op.Destination,
			Balance:   op.StartingBalance,
		},
	}); err != nil {
		return ResultNotSupported, err
	}

	return ResultInner, nil
}
