package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/jot/pkg/adapters/fs"
	"github.com/aretw0/jot/pkg/adapters/memory"
	"github.com/aretw0/jot/pkg/adapters/sqlite"
	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/storage"
)

// Init prepares the vault at uri and returns its note repository.
// The uri is adapter-specific: a directory for "fs", a directory or database
// file for "sqlite", ignored for "memory".
func Init(uri string, opts ...Option) (*storage.NoteRepository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initRepository(context.Background(), uri, o)
}

func initRepository(ctx context.Context, uri string, o *options) (*storage.NoteRepository, error) {
	codec, err := storage.CodecByName(o.codec)
	if err != nil {
		return nil, err
	}

	backend := o.backend
	if backend == nil {
		switch o.adapter {
		case "fs":
			backend = initFS(uri, codec, o)
		case "sqlite":
			backend, err = initSQLite(uri, o)
		case "memory":
			backend = memory.NewBackend()
		default:
			return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := backend.Initialize(ctx); err != nil {
		if c, ok := backend.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		return nil, err
	}

	adapter := storage.NewAdapter(backend, storage.Config{Codec: codec, Logger: o.logger})
	return storage.NewNoteRepository(adapter), nil
}

// resolvePath applies the dev sandbox rules to a user path.
func resolvePath(path string, o *options) string {
	tempDir, _ := o.config["temp_dir"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	useTemp := tempDir || (IsDevRun() && devSafety)
	resolved := ResolveVaultPath(path, useTemp)

	if useTemp && o.logger != nil && resolved != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}
	return resolved
}

// initFS builds the filesystem backend; values use the codec's extension.
func initFS(path string, codec storage.Codec, o *options) core.Backend {
	mustExist, _ := o.config["must_exist"].(bool)
	errorHandler, _ := o.config["error_handler"].(func(error))

	return fs.NewBackend(fs.Config{
		Path:         resolvePath(path, o),
		Ext:          codec.Name(),
		MustExist:    mustExist,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	})
}

func initSQLite(path string, o *options) (core.Backend, error) {
	mustExist, _ := o.config["must_exist"].(bool)

	return sqlite.NewBackend(sqlite.Config{
		Path:      resolvePath(path, o),
		MustExist: mustExist,
		Logger:    o.logger,
	})
}
