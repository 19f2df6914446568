package store

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	capitol "github.com/sumiran35/capitol-shill"
)

// Store is a capitol.Store holding resources.
type Store interface {
	capitol.Store
	Close() error
}

// Open returns the store designated by dsn:
//   - "postgres://..." or "postgresql://..." is a postgres database,
//   - "sqlite:path", or a path ending in ".db" or ".sqlite", is a sqlite database,
//   - any other path is a csv file.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch kind, target := Kind(dsn); kind {
	case "postgres":
		return OpenPostgres(ctx, target)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		return OpenSQLite(target)
	default:
		return csvCloser{NewCSV(target)}, nil
	}
}

// Kind returns the backing ("csv", "sqlite" or "postgres") designated by dsn, and its target.
func Kind(dsn string) (kind, target string) {
	switch {
	case dsn == "":
		return "csv", DefaultPath
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite:")
	case strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return "sqlite", dsn
	default:
		return "csv", dsn
	}
}

// LockFor returns the single-writer lock of the store designated by dsn.
func LockFor(dsn string) *Lock {
	kind, target := Kind(dsn)
	if kind == "postgres" {
		// not a file, the lock lives in the temp dir.
		target = filepath.Join(os.TempDir(), fmt.Sprintf("capshill-%x", sha1.Sum([]byte(target))))
	}
	return NewLock(target)
}

type csvCloser struct{ *CSV }

func (csvCloser) Close() error { return nil }
