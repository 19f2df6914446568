package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// DefaultLockTTL is the age after which a lock file is considered abandoned.
const DefaultLockTTL = 30 * time.Minute

// ErrLocked is returned when another writer holds the lock.
var ErrLocked = errors.New("another writer is active")

// Lock is a lock file allowing a single writer on a store.
type Lock struct {
	Path string
	TTL  time.Duration
}

// NewLock returns the lock guarding the store at path.
func NewLock(path string) *Lock {
	return &Lock{Path: path + ".lock", TTL: DefaultLockTTL}
}

// Acquire takes the lock. A lock older than TTL is taken over.
// The returned function releases it.
func (l *Lock) Acquire() (release func(), err error) {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return nil, fmt.Errorf("lock error: %w", err)
	}
	for {
		f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = fmt.Fprintf(f, `{"pid":%d,"time":%d}`+"\n", os.Getpid(), time.Now().Unix())
			_ = f.Close()
			return func() { _ = os.Remove(l.Path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("lock error: %w", err)
		}
		fi, err := os.Stat(l.Path)
		if err != nil {
			continue // released meanwhile
		}
		if age := time.Since(fi.ModTime()); age >= l.TTL {
			log.Printf("lock-stale path=%s age=%v", l.Path, age.Round(time.Second))
			_ = os.Remove(l.Path)
			continue
		}
		return nil, fmt.Errorf("%w: %s", ErrLocked, l.Path)
	}
}
