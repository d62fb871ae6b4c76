package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/factura-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/factura-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// Store is a SQLite database giving access to the site and invoice stores
// through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in dataDir.
// If dataDir is empty, defaults to <data dir>/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := file.DataDir()
		if err != nil {
			return nil, fmt.Errorf("getting data directory: %w", err)
		}
		dataDir = filepath.Join(home, "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "factura.db")

	// WAL lets the TUI read while a fetch writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SiteStore returns a SiteStore backed by this store.
func (s *Store) SiteStore() driven.SiteStore {
	return &siteStore{store: s}
}

// InvoiceStore returns an InvoiceStore backed by this store.
func (s *Store) InvoiceStore() driven.InvoiceStore {
	return &invoiceStore{store: s}
}

const versionQuery = "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"

// migration is one numbered *.up.sql file.
type migration struct {
	version int
	name    string
}

// migrate applies every migration newer than the recorded version, each in
// its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	current, err := s.Version()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	pending, err := pendingMigrations(fsys, current)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := s.apply(fsys, m); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}
	return nil
}

// pendingMigrations lists up migrations above current, oldest first.
// Files without a numeric prefix are ignored.
func pendingMigrations(fsys fs.FS, current int) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	var pending []migration
	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		pending = append(pending, migration{version: version, name: name})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })
	return pending, nil
}

func (s *Store) apply(fsys fs.FS, m migration) error {
	script, err := fs.ReadFile(fsys, m.name)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(string(script)); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return err
	}
	return tx.Commit()
}

// Version returns the highest applied migration.
func (s *Store) Version() (int, error) {
	var v int
	err := s.db.QueryRow(versionQuery).Scan(&v)
	return v, err
}
