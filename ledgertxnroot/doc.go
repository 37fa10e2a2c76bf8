// Package ledgertxnroot implements the persistent root of a LedgerTxn
// tree: package ledgertxn's EntryStore interface backed by a durable
// PersistentStore, fronted by bounded entry and best-offers caches.
package ledgertxnroot
