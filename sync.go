package capitol

import (
	"context"
	"fmt"
	"log"

	"github.com/sumiran35/capitol-shill/date"
)

// Source provides the trades disclosed in a date range.
//
// An error means nothing usable could be fetched at all. A partial fetch is
// reported as a shorter slice and a nil error.
type Source interface {
	Fetch(ctx context.Context, r date.Range) ([]Trade, error)
}

// Store persists the snapshot of all known trades.
//
// Save replaces the whole snapshot atomically: a failed Save leaves the
// previous snapshot in place.
type Store interface {
	Load() ([]Trade, error)
	Save([]Trade) error
}

// State is a step of a Sync.
type State int

const (
	NoLocalData State = iota
	IncrementalFetch
	FullFetch
	Merging
	Persisted
	Unchanged // nothing was fetched, the store was not written
)

func (s State) String() string {
	switch s {
	case NoLocalData:
		return "no-local-data"
	case IncrementalFetch:
		return "incremental-fetch"
	case FullFetch:
		return "full-fetch"
	case Merging:
		return "merging"
	case Persisted:
		return "persisted"
	case Unchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SyncResult describes what a Sync did.
type SyncResult struct {
	Window  date.Range
	State   State // last state reached
	Fetched int   // trades returned by the source
	Added   int   // trades with a key that was not in the store
	Updated int   // trades replaced by a newer observation
	Trades  []Trade
}

// Syncer brings a Store up to date with a Source.
type Syncer struct {
	Store  Store
	Source Source
	// Lookback is the number of days fetched when the store is empty, DefaultLookback if zero.
	Lookback int
	// Today returns the current day, date.Today if nil.
	Today func() date.Date
}

func (s *Syncer) today() date.Date {
	if s.Today != nil {
		return s.Today()
	}
	return date.Today()
}

func (s *Syncer) lookback() int {
	if s.Lookback > 0 {
		return s.Lookback
	}
	return DefaultLookback
}

// Window returns the range to fetch given the current snapshot.
//
// It starts at the watermark itself so that trades filed late on that day are
// picked up; the merge absorbs the ones already known.
func (s *Syncer) Window(existing []Trade) date.Range {
	today := s.today()
	if len(existing) == 0 {
		return date.Last(today, s.lookback())
	}
	return date.NewRange(Watermark(existing, today), today)
}

// Sync loads the snapshot, fetches the trades since its watermark, merges and saves them.
//
// Fetch errors are returned as is, together with the unmodified snapshot, so that the caller
// can fall back to it. When the source returns nothing the snapshot is returned and the store
// is not written.
func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	existing, err := s.Store.Load()
	if err != nil {
		return res, fmt.Errorf("load error: %w", err)
	}
	res.Trades = existing
	res.Window = s.Window(existing)

	if len(existing) == 0 {
		s.enter(&res, NoLocalData)
		s.enter(&res, FullFetch)
	} else {
		s.enter(&res, IncrementalFetch)
	}

	fresh, err := s.Source.Fetch(ctx, res.Window)
	if err != nil {
		return res, fmt.Errorf("fetch error %v: %w", res.Window, err)
	}
	res.Fetched = len(fresh)

	// anything before the window was not asked for.
	kept := fresh[:0:0]
	for _, t := range fresh {
		if t.TransactionDate.Before(res.Window.From) {
			log.Printf("sync-skip-out-of-window key=%v window=%v", t.Key(), res.Window)
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		s.enter(&res, Unchanged)
		return res, nil
	}

	s.enter(&res, Merging)
	m := Merge(existing, kept)
	res.Added, res.Updated = m.Added, len(m.Updated)

	if err := s.Store.Save(m.Trades); err != nil {
		return res, fmt.Errorf("persist error: %w", err)
	}
	res.Trades = m.Trades
	s.enter(&res, Persisted)
	return res, nil
}

func (s *Syncer) enter(res *SyncResult, state State) {
	res.State = state
	log.Printf("sync-state state=%v window=%v existing=%d fetched=%d added=%d updated=%d",
		state, res.Window, len(res.Trades), res.Fetched, res.Added, res.Updated)
}
