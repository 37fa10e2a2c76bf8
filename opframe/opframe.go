// Package opframe is a thin illustrative layer showing how a block-apply
// driver would sit on top of package ledgertxn: each operation frame
// validates by opening (and always discarding) a nested LedgerTxn, then,
// on Apply, re-validates and mutates the real transaction directly.
package opframe

import (
	"github.com/stellar/soroban-tools/ledger"
	"github.com/stellar/soroban-tools/ledgertxn"
)

// ResultCode is the outcome surfaced to the block-apply driver.
type ResultCode int

const (
	ResultInner ResultCode = iota
	ResultBadAuth
	ResultNoAccount
	ResultNotSupported
)

func (c ResultCode) String() string {
	switch c {
	case ResultInner:
		return "opINNER"
	case ResultBadAuth:
		return "opBAD_AUTH"
	case ResultNoAccount:
		return "opNO_ACCOUNT"
	case ResultNotSupported:
		return "opNOT_SUPPORTED"
	default:
		return "opUNKNOWN"
	}
}

// ThresholdLevel selects which signing-threshold slot (AccountEntry's
// Thresholds[1..3]) an operation is checked against. Index 0 is the
// account's master weight and is never an operation's own threshold.
type ThresholdLevel int

const (
	ThresholdLow ThresholdLevel = iota + 1
	ThresholdMedium
	ThresholdHigh
)

// SignatureChecker abstracts the outer transaction frame's signature
// verification, which is all opframe needs from it.
type SignatureChecker interface {
	CheckSignature(account ledger.AccountID, level ThresholdLevel) bool
}

// AppContext carries the ambient state an operation needs beyond the
// transaction it mutates.
type AppContext struct {
	LedgerVersion uint32
}

// signatureCheckBoundary is the ledger version at and after which
// signature verification moves from checkValid into the outer
// transaction frame.
const signatureCheckBoundary = 10

// Frame is one ledger operation: validate-without-mutating, then
// validate-and-apply.
type Frame interface {
	// CheckValid opens a nested LedgerTxn off ltx, validates against it,
	// and always discards the nested transaction — it never leaves a
	// mutation behind, even on success.
	CheckValid(checker SignatureChecker, ledgerVersion uint32, ltx *ledgertxn.LedgerTxn, forApply bool) (ResultCode, error)

	// Apply re-runs CheckValid and, only if it succeeds, performs the
	// operation's mutations directly against ltx.
	Apply(checker SignatureChecker, app AppContext, ltx *ledgertxn.LedgerTxn) (ResultCode, error)
}

// runCheckValid is the shared validate-without-mutating skeleton every
// Frame implementation drives: it opens a nested transaction, lets
// checkFn observe/validate against it, and rolls it back unconditionally.
func runCheckValid(ltx *ledgertxn.LedgerTxn, checkFn func(nested *ledgertxn.LedgerTxn) (ResultCode, error)) (ResultCode, error) {
	nested, err := ledgertxn.Open(ltx, true)
	if err != nil {
		return ResultNoAccount, err
	}
	code, checkErr := checkFn(nested)
	if err := nested.Rollback(); err != nil {
		return ResultNoAccount, err
	}
	return code, checkErr
}

// checkSourceAccount loads source from ltx, returning opNO_ACCOUNT if it
// does not exist, and verifying the signature threshold for
// ledgerVersion < signatureCheckBoundary.
func checkSourceAccount(checker SignatureChecker, ledgerVersion uint32, ltx *ledgertxn.LedgerTxn, source ledger.AccountID, level ThresholdLevel) (ResultCode, error) {
	h, err := ltx.LoadWithoutRecord(ledger.AccountKey(source))
	if err != nil {
		return ResultNoAccount, err
	}
	if h == nil {
		return ResultNoAccount, nil
	}
	if ledgerVersion < signatureCheckBoundary {
		if !checker.CheckSignature(source, level) {
			return ResultBadAuth, nil
		}
	}
	return ResultInner, nil
}
