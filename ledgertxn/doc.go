// Package ledgertxn implements a nested, transactional overlay over a
// persistent ledger store. A LedgerTxn stages creates, modifications,
// deletes, and header edits against its parent (another LedgerTxn or the
// persistent root from package ledgertxnroot), merging them into the
// parent's own delta only on Commit.
package ledgertxn
