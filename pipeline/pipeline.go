// Package pipeline serves the trades snapshot to the command line and the
// http server: it syncs the store, falls back to the last saved snapshot when
// the listing cannot be reached, and enriches the result with sectors.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/enrich"
)

// DefaultTTL is how long a Result is reused before syncing again.
const DefaultTTL = time.Hour

const resultKey = "result"

// Locker guards the store against concurrent writers.
type Locker interface {
	Acquire() (release func(), err error)
}

// Result is a snapshot ready to be displayed.
type Result struct {
	RunID    string
	At       time.Time
	Trades   []capitol.Trade
	Sync     capitol.SyncResult
	Warning  string // set when the snapshot could not be refreshed
	Enriched bool
	// Metadata of the tickers looked up while enriching.
	Metadata map[string]enrich.Metadata
}

// Pipeline runs a Syncer at most once per TTL.
type Pipeline struct {
	Syncer   *capitol.Syncer
	Lock     Locker          // optional
	Enricher *enrich.Enricher // optional
	TTL      time.Duration

	mu    sync.Mutex
	cache *cache.Cache
}

// New returns a Pipeline with a result cache of ttl, DefaultTTL if zero.
func New(s *capitol.Syncer, lock Locker, e *enrich.Enricher, ttl time.Duration) *Pipeline {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Pipeline{Syncer: s, Lock: lock, Enricher: e, TTL: ttl, cache: cache.New(ttl, 2*ttl)}
}

// Data returns the current snapshot, syncing it first unless a Result younger than the TTL exists.
func (p *Pipeline) Data(ctx context.Context) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cache == nil {
		p.cache = cache.New(p.TTL, 2*p.TTL)
	}
	if v, ok := p.cache.Get(resultKey); ok {
		return v.(Result), nil
	}
	res, err := p.run(ctx)
	if err != nil {
		return res, err
	}
	p.cache.Set(resultKey, res, cache.DefaultExpiration)
	return res, nil
}

// Refresh drops the cached Result and runs again.
func (p *Pipeline) Refresh(ctx context.Context) (Result, error) {
	p.mu.Lock()
	if p.cache != nil {
		p.cache.Delete(resultKey)
	}
	p.mu.Unlock()
	return p.Data(ctx)
}

func (p *Pipeline) run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString(), At: time.Now()}
	log.Printf("pipeline-start run=%s", res.RunID)

	sr, err := p.sync(ctx)
	res.Sync = sr
	if err != nil {
		// show the last snapshot rather than nothing.
		res.Warning = fmt.Sprintf("could not refresh trades, showing the last saved snapshot: %v", err)
		log.Printf("pipeline-fallback run=%s: %v", res.RunID, err)
		trades, lerr := p.Syncer.Store.Load()
		if lerr != nil {
			return res, fmt.Errorf("sync error: %w; fallback error: %w", err, lerr)
		}
		res.Trades = trades
	} else {
		res.Trades = sr.Trades
	}

	if p.Enricher != nil && needsEnrichment(res.Trades) {
		c := enrich.NewBatchCache()
		res.Trades = p.Enricher.Enrich(ctx, res.Trades, c)
		res.Enriched = true
		res.Metadata = enrich.Known(c)
	}
	log.Printf("pipeline-done run=%s trades=%d state=%v warning=%t", res.RunID, len(res.Trades), sr.State, res.Warning != "")
	return res, nil
}

func (p *Pipeline) sync(ctx context.Context) (capitol.SyncResult, error) {
	if p.Lock != nil {
		release, err := p.Lock.Acquire()
		if err != nil {
			return capitol.SyncResult{}, err
		}
		defer release()
	}
	return p.Syncer.Sync(ctx)
}

func needsEnrichment(trades []capitol.Trade) bool {
	for _, t := range trades {
		if t.Sector == "" {
			return true
		}
	}
	return false
}
