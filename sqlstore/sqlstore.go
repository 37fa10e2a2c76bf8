// Package sqlstore is a SQLite-backed reference implementation of the
// persistent store a ledgertxnroot.Root sits on top of. Its schema is
// deliberately minimal: three tables, no secondary bookkeeping beyond
// what the overlay's derived queries need.
package sqlstore

import (
	"database/sql"
	"embed"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/stellar/go/support/errors"
	supportlog "github.com/stellar/go/support/log"

	"github.com/stellar/soroban-tools/internal/util"
	"github.com/stellar/soroban-tools/ledger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	headerTableName  = "ledger_header"
	entriesTableName = "ledger_entries"
	offersTableName  = "offer_lookup"

	executeWALCheckpointFrequency = 1000
)

// Store is a SQLite-backed persistent store opened in WAL mode.
type Store struct {
	db        *sqlx.DB
	txCounter int

	logger           *supportlog.Entry
	checkpointPanics prometheus.Counter
}

// Open opens (or creates) the SQLite file at path in WAL mode and brings
// its schema up to date via embedded sql-migrate migrations. The store
// logs through its own standalone logger.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_wal_autocheckpoint=0&_synchronous=NORMAL", path))
	if err != nil {
		return nil, errors.Wrap(err, "open failed")
	}
	if err := runMigrations(db.DB); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "could not run migrations")
	}
	return &Store{
		db:     db,
		logger: supportlog.New(),
		checkpointPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: "sqlstore",
			Name:      "wal_checkpoint_panics_total",
			Help:      "Number of panics recovered from the background WAL checkpoint routine.",
		}),
	}, nil
}

// Collectors returns the store's prometheus collectors, for registration
// with a prometheus.Registerer.
func (s *Store) Collectors() []prometheus.Collector {
	return []prometheus.Collector{s.checkpointPanics}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func runMigrations(db *sql.DB) error {
	m := &migrate.AssetMigrationSource{
		Asset: migrations.ReadFile,
		AssetDir: func() func(string) ([]string, error) {
			return func(path string) ([]string, error) {
				dirEntry, err := migrations.ReadDir(path)
				if err != nil {
					return nil, err
				}
				entries := make([]string, 0, len(dirEntry))
				for _, e := range dirEntry {
					entries = append(entries, e.Name())
				}
				return entries, nil
			}
		}(),
		Dir: "migrations",
	}
	_, err := migrate.ExecMax(db, "sqlite3", m, migrate.Up, 0)
	return err
}

// GetHeader returns the singleton ledger header row.
func (s *Store) GetHeader() (ledger.Header, error) {
	var h ledger.Header
	sqlStr, args, err := sq.Select(
		"ledger_version", "ledger_seq", "total_coins", "base_fee", "base_reserve", "max_tx_set_size", "inflation_seq",
	).From(headerTableName).Where(sq.Eq{"id": 0}).ToSql()
	if err != nil {
		return h, err
	}
	row := s.db.QueryRow(sqlStr, args...)
	err = row.Scan(&h.LedgerVersion, &h.LedgerSeq, &h.TotalCoins, &h.BaseFee, &h.BaseReserve, &h.MaxTxSetSize, &h.InflationSeq)
	return h, err
}

// GetEntry returns the entry for key, or nil if absent.
func (s *Store) GetEntry(key ledger.Key) (*ledger.Entry, error) {
	encodedKey, err := encodeKey(key)
	if err != nil {
		return nil, err
	}
	sqlStr, args, err := sq.Select("payload").From(entriesTableName).Where(sq.Eq{"key": encodedKey}).ToSql()
	if err != nil {
		return nil, err
	}
	var payload []byte
	err = s.db.QueryRow(sqlStr, args...).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry, err := decodeEntry(payload)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CommitChild applies delta as one atomic database transaction: every
// entry touched is upserted or deleted, the offer lookup index is kept
// in step, and the header is replaced wholesale.
func (s *Store) CommitChild(delta ledger.TxnDelta) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	stmtCache := sq.NewStmtCache(tx)
	defer stmtCache.Clear()

	for key, d := range delta.Entries {
		encodedKey, err := encodeKey(key)
		if err != nil {
			tx.Rollback()
			return err
		}
		if d.Current == nil {
			if err := deleteEntry(stmtCache, encodedKey, key); err != nil {
				tx.Rollback()
				return err
			}
			continue
		}
		if err := upsertEntry(stmtCache, encodedKey, key, *d.Current); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := writeHeader(stmtCache, delta.Header.Current); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.maybeCheckpoint()
	return nil
}

// maybeCheckpoint fires a background WAL checkpoint every
// executeWALCheckpointFrequency commits. It runs off the hot commit path,
// on a goroutine guarded by util.MonitoredRoutine so a checkpoint failure
// never takes the process down with it.
func (s *Store) maybeCheckpoint() {
	s.txCounter = (s.txCounter + 1) % executeWALCheckpointFrequency
	if s.txCounter != 0 {
		return
	}
	util.MonitoredRoutine(util.MonitoredRoutineConfiguration{
		Log:           s.logger,
		PanicsCounter: s.checkpointPanics,
	}, func() {
		if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			s.logger.WithError(err).Warn("wal checkpoint failed")
		}
	})
}

func writeHeader(stmtCache *sq.StmtCache, h ledger.Header) error {
	_, err := sq.Update(headerTableName).
		Set("ledger_version", h.LedgerVersion).
		Set("ledger_seq", h.LedgerSeq).
		Set("total_coins", h.TotalCoins).
		Set("base_fee", h.BaseFee).
		Set("base_reserve", h.BaseReserve).
		Set("max_tx_set_size", h.MaxTxSetSize).
		Set("inflation_seq", h.InflationSeq).
		Where(sq.Eq{"id": 0}).
		RunWith(stmtCache).Exec()
	return err
}

func upsertEntry(stmtCache *sq.StmtCache, encodedKey []byte, key ledger.Key, entry ledger.Entry) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	_, err = sq.Replace(entriesTableName).
		Columns("key", "kind", "payload", "last_modified").
		Values(encodedKey, int(key.Type), payload, entry.LastModifiedLedgerSeq()).
		RunWith(stmtCache).Exec()
	if err != nil {
		return err
	}
	if key.Type != ledger.EntryTypeOffer {
		return nil
	}
	return upsertOfferIndex(stmtCache, encodedKey, entry)
}

func deleteEntry(stmtCache *sq.StmtCache, encodedKey []byte, key ledger.Key) error {
	_, err := sq.Delete(entriesTableName).Where(sq.Eq{"key": encodedKey}).RunWith(stmtCache).Exec()
	if err != nil {
		return err
	}
	if key.Type != ledger.EntryTypeOffer {
		return nil
	}
	_, err = sq.Delete(offersTableName).Where(sq.Eq{"offer_key": encodedKey}).RunWith(stmtCache).Exec()
	return err
}
