package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/bmatcuk/doublestar/v4"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aretw0/jot/pkg/adapters/sqlite/migrations"
	"github.com/aretw0/jot/pkg/core"
)

// DefaultFilename is the database file created inside a vault directory.
const DefaultFilename = "jot.db"

// Config holds the configuration for the SQLite backend.
type Config struct {
	// Path is the database file. A directory gets DefaultFilename appended.
	Path      string
	MustExist bool
	Logger    *slog.Logger
}

// Backend implements core.Backend on a SQLite key/value table.
type Backend struct {
	db     *sql.DB
	path   string
	config Config

	mu        sync.RWMutex
	lastWrite *time.Time
}

// NewBackend opens (or creates) the database. The schema is applied by Initialize.
func NewBackend(config Config) (*Backend, error) {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	path := config.Path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFilename)
	} else if filepath.Ext(path) == "" {
		path = filepath.Join(path, DefaultFilename)
	}

	if config.MustExist {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("database does not exist: %s", path)
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode keeps readers off the writer's back.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Backend{db: db, path: path, config: config}, nil
}

var _ core.Backend = (*Backend)(nil)

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Path returns the database file path.
func (b *Backend) Path() string {
	return b.path
}

// Initialize runs pending migrations.
func (b *Backend) Initialize(ctx context.Context) error {
	if err := b.migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Get implements core.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// Set implements core.Backend.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	b.config.Logger.Debug("key written", "key", key)
	b.recordWrite()
	return nil
}

// Remove implements core.Backend. A missing key is not an error.
func (b *Backend) Remove(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	b.recordWrite()
	return nil
}

// Keys implements core.Backend. Patterns follow doublestar semantics, not SQL GLOB.
func (b *Backend) Keys(ctx context.Context, pattern string) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		if pattern != "" {
			match, err := doublestar.Match(pattern, key)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// migrate applies every .up.sql file newer than the recorded version.
func (b *Backend) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	row := b.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := b.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		b.config.Logger.Debug("migration applied", "name", name)
	}
	return nil
}

// BackendState exposes internal state for observability.
type BackendState struct {
	Path      string     `json:"path"`
	LastWrite *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return BackendState{Path: b.path, LastWrite: b.lastWrite}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "sqlite-backend"
}

var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)

func (b *Backend) recordWrite() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	b.lastWrite = &now
}
