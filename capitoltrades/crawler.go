package capitoltrades

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/date"
)

const (
	// DefaultMaxPages bounds a crawl.
	DefaultMaxPages = 50
	// DefaultMinDelay and DefaultMaxDelay bound the pause between two pages.
	DefaultMinDelay = 1 * time.Second
	DefaultMaxDelay = 3 * time.Second
)

// PageFetcher returns the rows of one page (starting at 1) of trades in a range.
//
// An empty page means there is no more data.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int, r date.Range) ([]RawRow, error)
}

// Crawler walks the listing pages one after the other.
type Crawler struct {
	Fetcher PageFetcher
	// MaxPages bounds the number of pages fetched, DefaultMaxPages if zero.
	MaxPages int
	// The pause between two pages is drawn uniformly in [MinDelay, MaxDelay].
	MinDelay, MaxDelay time.Duration
	// Sleep pauses for d, or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Today is used to read relative dates, date.Today if nil.
	Today func() date.Date
	// Verbose logs every skipped row.
	Verbose bool
}

// NewCrawler returns a Crawler over f with the default page cap and pacing.
func NewCrawler(f PageFetcher) *Crawler {
	return &Crawler{
		Fetcher:  f,
		MaxPages: DefaultMaxPages,
		MinDelay: DefaultMinDelay,
		MaxDelay: DefaultMaxDelay,
	}
}

// Crawl returns the trades of every page in r, in listing order.
//
// The crawl stops at the first empty page, at MaxPages, or at the first page
// that fails. A failed page is not fatal: the trades read so far are returned
// without error. Only a first page failing for another reason than a timeout
// is returned as an error, as nothing could be fetched at all.
func (c *Crawler) Crawl(ctx context.Context, r date.Range) ([]capitol.Trade, error) {
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	today := date.Today()
	if c.Today != nil {
		today = c.Today()
	}

	var trades []capitol.Trade
	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			if err := c.sleep(ctx, c.delay()); err != nil {
				return trades, err
			}
		}
		rows, err := c.Fetcher.FetchPage(ctx, page, r)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			// the caller gave up, only a page deadline is an end of data.
			return trades, ctx.Err()
		case errors.Is(err, ErrTimeout):
			log.Printf("crawl-end-timeout page=%d trades=%d: %v", page, len(trades), err)
			return trades, nil
		case page == 1 && len(trades) == 0:
			return nil, fmt.Errorf("fetch error page %d: %w", page, err)
		default:
			log.Printf("crawl-end-error page=%d trades=%d: %v", page, len(trades), err)
			return trades, nil
		}
		if len(rows) == 0 {
			log.Printf("crawl-end page=%d trades=%d", page, len(trades))
			return trades, nil
		}

		kept := 0
		for i, row := range rows {
			rec, ok := ParseRow(row)
			if !ok {
				c.skip(page, i, "malformed row", row)
				continue
			}
			t, ok := Normalize(rec, today)
			if !ok {
				c.skip(page, i, "no transaction date", row)
				continue
			}
			trades = append(trades, t)
			kept++
		}
		log.Printf("crawl-page page=%d rows=%d trades=%d", page, len(rows), kept)
	}
	log.Printf("crawl-end-max-pages pages=%d trades=%d", maxPages, len(trades))
	return trades, nil
}

func (c *Crawler) skip(page, i int, reason string, row RawRow) {
	if c.Verbose {
		log.Printf("crawl-skip page=%d row=%d reason=%q cells=%q", page, i, reason, row)
	}
}

// delay draws the pause before the next page.
func (c *Crawler) delay() time.Duration {
	if c.MaxDelay <= c.MinDelay {
		return c.MinDelay
	}
	return c.MinDelay + rand.N(c.MaxDelay-c.MinDelay+1)
}

func (c *Crawler) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
