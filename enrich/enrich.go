// Package enrich adds market metadata, such as the sector, to trades.
//
// Lookups are cached in a cache owned by the caller, one per batch: nothing
// outlives the batch unless the caller keeps the cache.
package enrich

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	capitol "github.com/sumiran35/capitol-shill"
)

// Unknown is the value of any metadata that could not be found.
const Unknown = "Unknown"

// Metadata describes the issuer of a ticker.
type Metadata struct {
	Name      string `json:"name"`
	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
	MarketCap int64  `json:"market_cap"`
}

// Default returns the metadata of an unknown ticker.
func Default() Metadata {
	return Metadata{Name: Unknown, Sector: Unknown, Industry: Unknown}
}

// Lookup finds the metadata of a ticker.
type Lookup interface {
	Lookup(ctx context.Context, ticker string) (Metadata, error)
}

// NewBatchCache returns a cache for one enrichment batch.
func NewBatchCache() *cache.Cache {
	return cache.New(cache.NoExpiration, 0)
}

// Known returns the metadata found so far in c, by ticker.
func Known(c *cache.Cache) map[string]Metadata {
	res := make(map[string]Metadata, c.ItemCount())
	for ticker, item := range c.Items() {
		if m, ok := item.Object.(Metadata); ok {
			res[ticker] = m
		}
	}
	return res
}

// Enricher fills the sector of trades.
type Enricher struct {
	Lookup Lookup
}

// Valid reports whether ticker can be looked up.
func Valid(ticker string) bool {
	ticker = strings.TrimSpace(ticker)
	return ticker != "" && !strings.Contains(ticker, capitol.UnknownTicker) && strings.Trim(ticker, "-") != ""
}

// Info returns the metadata of ticker, from c when already known.
//
// Invalid tickers and failed lookups yield Default(). Failures are not cached,
// so the next batch tries again.
func (e *Enricher) Info(ctx context.Context, ticker string, c *cache.Cache) Metadata {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !Valid(ticker) {
		return Default()
	}
	if v, ok := c.Get(ticker); ok {
		return v.(Metadata)
	}
	m, err := e.Lookup.Lookup(ctx, ticker)
	if err != nil {
		log.Printf("enrich-lookup-failed ticker=%s: %v", ticker, err)
		return Default()
	}
	c.Set(ticker, m, cache.DefaultExpiration)
	return m
}

// Enrich returns a copy of trades where trades without a sector get the one of their ticker.
// Trades that already have a sector are left as is.
func (e *Enricher) Enrich(ctx context.Context, trades []capitol.Trade, c *cache.Cache) []capitol.Trade {
	start := time.Now()
	res := make([]capitol.Trade, len(trades))
	copy(res, trades)
	n := 0
	for i := range res {
		if res[i].Sector != "" {
			continue
		}
		if ctx.Err() != nil {
			// out of time, the rest stays unknown.
			res[i].Sector = Unknown
			continue
		}
		res[i].Sector = e.Info(ctx, res[i].Ticker, c).Sector
		n++
	}
	log.Printf("enrich trades=%d enriched=%d tickers=%d in=%v", len(trades), n, c.ItemCount(), time.Since(start).Round(time.Millisecond))
	return res
}
