// Package storage owns the single embedded database file that holds all
// durable state. Every named top-level collection lives in one row of the
// collections table as a JSON document, and every store operation runs
// inside a single immediate-mode transaction, so read-modify-write cycles
// are serialized and either fully applied or not at all.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	_ "modernc.org/sqlite"

	"github.com/minimart/minimart/internal/config"
)

// Fixed top-level collection names. The database file contains exactly
// these rows and nothing else.
const (
	CollectionProducts      = "products"
	CollectionCarts         = "carts"
	CollectionOrders        = "orders"
	CollectionUsers         = "users"
	CollectionSessions      = "sessions"
	CollectionNextProductID = "next_product_id"
	CollectionNextOrderID   = "next_order_id"
)

var emptyDefaults = map[string]string{
	CollectionProducts:      "{}",
	CollectionCarts:         "{}",
	CollectionOrders:        "{}",
	CollectionUsers:         "{}",
	CollectionSessions:      "{}",
	CollectionNextProductID: "1",
	CollectionNextOrderID:   "1",
}

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the database file and bootstraps the schema.
// Parent directories are created if needed. The handle is long-lived;
// callers must Close it on shutdown.
func New(cfg *config.Config) (*Store, error) {
	logger := slog.Default().With(slog.String("component", "storage"))

	dir := filepath.Dir(cfg.Storage.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// Immediate transactions take the write lock up front, so two
	// read-modify-write cycles on the same collection cannot interleave.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate", cfg.Storage.Path)

	db, err := otelsql.Open("sqlite", dsn, otelsql.WithAttributes(semconv.DBSystemSqlite))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// The file supports exactly one writer; extra pool connections only
	// produce SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &Store{db: db, logger: logger}

	if err := s.bootstrap(); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}

	logger.Info("storage initialized", slog.String("path", cfg.Storage.Path))

	return s, nil
}

// NewWithDB wraps an existing handle. Used by tests that substitute a
// mocked database; no schema bootstrap is performed.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db, logger: slog.Default().With(slog.String("component", "storage"))}
}

func (s *Store) bootstrap() error {
	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			doc BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Seed each collection with its empty default so a fresh file already
	// carries the full layout.
	for name, doc := range emptyDefaults {
		_, err := s.db.Exec(
			`INSERT INTO collections (name, doc, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO NOTHING`,
			name, []byte(doc), time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("seeding collection %s: %w", name, err)
		}
	}

	return nil
}

// Tx gives collection-level access within one storage transaction.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// Get returns the raw document for a collection. A missing row reports
// ok=false and no error.
func (t *Tx) Get(name string) ([]byte, bool, error) {
	var doc []byte

	err := t.tx.QueryRowContext(t.ctx, `SELECT doc FROM collections WHERE name = ?`, name).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading collection %s: %w", name, err)
	}

	return doc, true, nil
}

// Put replaces the document for a collection.
func (t *Tx) Put(name string, doc []byte) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO collections (name, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		name, doc, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing collection %s: %w", name, err)
	}

	return nil
}

// Update runs fn inside a single transaction. Reads may also write here:
// defensive decoding persists collection resets from within a read path.
// Returning an error rolls back everything fn did.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&Tx{ctx: ctx, tx: dbTx}); err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", slog.String("error", rbErr.Error()))
		}

		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Ping reports whether the database file is reachable. Used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
