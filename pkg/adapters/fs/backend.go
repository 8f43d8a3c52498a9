package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/jot/pkg/core"
)

// KeySeparator splits a key into path segments: "notes:abc" is stored at "notes/abc.<ext>".
const KeySeparator = ":"

// Backend implements core.Backend with one file per key under a vault directory.
type Backend struct {
	Path   string
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastWrite     *time.Time
}

// Config holds the configuration for the filesystem backend.
type Config struct {
	Path         string
	Ext          string // file extension without dot, e.g. "json"; defaults to "json"
	MustExist    bool
	Logger       *slog.Logger
	ErrorHandler func(error) // receives runtime watcher errors
}

// NewBackend creates a new filesystem-backed key/value store.
func NewBackend(config Config) *Backend {
	if config.Ext == "" {
		config.Ext = "json"
	}
	config.Ext = strings.TrimPrefix(config.Ext, ".")
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Backend{
		Path:   config.Path,
		config: config,
	}
}

var _ core.Backend = (*Backend)(nil)

// Initialize makes sure the vault directory exists.
func (b *Backend) Initialize(ctx context.Context) error {
	if b.config.MustExist {
		info, err := os.Stat(b.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("vault path does not exist: %s", b.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat vault: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", b.Path)
		}
		return nil
	}

	if err := os.MkdirAll(b.Path, 0755); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}
	return nil
}

// Get reads the file holding key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := b.pathFor(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set writes value atomically (temp file + rename).
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	fullPath, err := b.pathFor(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := writeFileAtomic(fullPath, value, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	b.config.Logger.Debug("key written", "key", key, "path", fullPath)
	b.recordWrite()
	return nil
}

// Remove deletes the file holding key. A missing file is not an error.
func (b *Backend) Remove(ctx context.Context, key string) error {
	fullPath, err := b.pathFor(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	b.config.Logger.Debug("key removed", "key", key)
	b.recordWrite()
	return nil
}

// Keys walks the vault and returns the keys matching pattern.
func (b *Backend) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(b.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != b.Path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		key, ok := b.keyFor(path)
		if !ok {
			return nil
		}
		if pattern != "" {
			match, err := doublestar.Match(pattern, key)
			if err != nil {
				return err
			}
			if !match {
				return nil
			}
		}
		keys = append(keys, key)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(keys)
	return keys, nil
}

// pathFor maps a key to its file: segments split on KeySeparator become directories.
func (b *Backend) pathFor(key string) (string, error) {
	if err := core.ValidateKey(key); err != nil {
		return "", err
	}

	segments := strings.Split(key, KeySeparator)
	for _, s := range segments {
		if s == "" || s == "." || strings.HasPrefix(s, ".") {
			return "", fmt.Errorf("%w: %q", core.ErrInvalidKey, key)
		}
	}

	rel := filepath.Join(segments...) + "." + b.config.Ext
	return filepath.Join(b.Path, rel), nil
}

// keyFor maps a file path back to its key. It reports false for files that
// do not hold a value (other extensions, temp files).
func (b *Backend) keyFor(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, TempFilePrefix) {
		return "", false
	}

	suffix := "." + b.config.Ext
	if !strings.HasSuffix(base, suffix) {
		return "", false
	}

	rel, err := filepath.Rel(b.Path, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), suffix)
	return strings.ReplaceAll(rel, "/", KeySeparator), true
}
