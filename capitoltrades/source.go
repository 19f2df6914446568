// Package capitoltrades reads disclosed trades from the capitoltrades.com listing.
//
// A Client fetches one page of the listing as rows of cell texts, ParseRow and
// Normalize turn a row into a capitol.Trade, and a Crawler walks the pages of
// a date range. Source ties them together behind capitol.Source.
package capitoltrades

import (
	"context"
	"time"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/date"
)

// Source fetches trades by crawling the listing, one browsing session per Fetch.
type Source struct {
	BaseURL string
	Timeout time.Duration // per page
	// Crawler settings, its Fetcher is replaced at each Fetch.
	Crawler Crawler
}

// NewSource returns a Source on baseURL with the default settings.
func NewSource(baseURL string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		BaseURL: baseURL,
		Timeout: DefaultTimeout,
		Crawler: *NewCrawler(nil),
	}
}

// Fetch implements capitol.Source.
func (s *Source) Fetch(ctx context.Context, r date.Range) ([]capitol.Trade, error) {
	client, err := NewClient(s.BaseURL, s.Timeout)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	c := s.Crawler
	c.Fetcher = client
	return c.Crawl(ctx, r)
}

// MaxDuration is the longest a Fetch can take: every page loading until its
// timeout, after the longest pause.
func (s *Source) MaxDuration() time.Duration {
	pages := s.Crawler.MaxPages
	if pages <= 0 {
		pages = DefaultMaxPages
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return time.Duration(pages)*timeout + time.Duration(pages-1)*s.Crawler.MaxDelay
}

var _ capitol.Source = (*Source)(nil)
