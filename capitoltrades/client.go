package capitoltrades

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/sumiran35/capitol-shill/date"
)

const (
	// DefaultBaseURL is the address of the trades listing.
	DefaultBaseURL = "https://www.capitoltrades.com/trades"
	// PageSize is the number of rows requested per page.
	PageSize = 96
	// DefaultTimeout bounds the load of a single page.
	DefaultTimeout = 60 * time.Second

	consentCookie = "cookie-consent"
	userAgent     = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	maxPageBytes  = 16 << 20
)

// ErrTimeout is returned when a page did not load in time.
var ErrTimeout = errors.New("page load timeout")

// Client fetches listing pages within one browsing session: cookies, including
// the consent one, are kept from page to page.
type Client struct {
	base    *url.URL
	timeout time.Duration
	http    *http.Client
}

// NewClient returns a Client with a fresh session. A zero timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:    base,
		timeout: timeout,
		http:    &http.Client{Jar: jar, Transport: http.DefaultTransport.(*http.Transport).Clone()},
	}, nil
}

// URL returns the address of a page of trades in r.
func (c *Client) URL(page int, r date.Range) string {
	u := *c.base
	q := u.Query()
	q.Set("txDate", r.String())
	q.Set("pageSize", strconv.Itoa(PageSize))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage returns the rows of a page (starting at 1) of trades in r.
//
// The first page also dismisses the cookie banner, if any, for the rest of the session.
// A page that does not load within the client's timeout returns ErrTimeout.
func (c *Client) FetchPage(ctx context.Context, page int, r date.Range) ([]RawRow, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addr := c.URL(page, r)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	p, err := parsePage(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, c.classify(ctx, fmt.Errorf("parse error page %d: %w", page, err))
	}
	if page == 1 && p.consent {
		c.acceptCookies()
	}
	return p.rows, nil
}

// acceptCookies records the consent in the session, the way the banner button does.
func (c *Client) acceptCookies() {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{
		Name:  consentCookie,
		Value: "all",
		Path:  "/",
	}})
	log.Printf("consent-accepted host=%s", c.base.Host)
}

// classify turns deadline errors of a page load into ErrTimeout.
func (c *Client) classify(ctx context.Context, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w after %v: %w", ErrTimeout, c.timeout, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}

// Close ends the session.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
