package ledgertxn

import "github.com/stellar/go/support/errors"

// Misuse errors. Per the design, misuse is a programming bug: the callee
// returns one of these sentinels and leaves the transaction's state (and
// its parent) unchanged. Callers are expected to treat these as fatal to
// the current LedgerTxn and roll it back, not to retry against the same
// handle.
var (
	ErrActiveChild      = errors.New("ledgertxn: parent already has an active child")
	ErrSealed           = errors.New("ledgertxn: transaction is sealed")
	ErrTerminal         = errors.New("ledgertxn: transaction already committed or rolled back")
	ErrKeyExists        = errors.New("ledgertxn: key already exists in self or an ancestor")
	ErrKeyNotFound      = errors.New("ledgertxn: key does not exist in self or any ancestor")
	ErrKeyLive          = errors.New("ledgertxn: key already has a live handle in this transaction")
	ErrHeaderLive       = errors.New("ledgertxn: header already has a live handle in this transaction")
	ErrNotSealed        = errors.New("ledgertxn: unsealHeader requires a sealed transaction")
	ErrHandleReleased   = errors.New("ledgertxn: handle has already been released")
	ErrInvariantBroken  = errors.New("ledgertxn: internal invariant violated during commit merge")
)
