package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// DefaultQuoteURL is the quote summary endpoint, the ticker is appended to it.
const DefaultQuoteURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary/"

// DefaultCrumbURL returns the crumb of the current session.
const DefaultCrumbURL = "https://query1.finance.yahoo.com/v1/test/getcrumb"

// DefaultCookieURLs are visited to get the session cookies before asking for a crumb.
var DefaultCookieURLs = []string{"https://fc.yahoo.com", "https://finance.yahoo.com"}

/*
	{
	  "quoteSummary": {
	    "result": [{
	      "assetProfile": {"sector": "Technology", "industry": "Consumer Electronics"},
	      "price": {"shortName": "Apple Inc.", "marketCap": {"raw": 3400000000000, "fmt": "3.4T"}}
	    }],
	    "error": null
	  }
	}
*/
const (
	namePath      = "$.quoteSummary.result[0].price.shortName"
	sectorPath    = "$.quoteSummary.result[0].assetProfile.sector"
	industryPath  = "$.quoteSummary.result[0].assetProfile.industry"
	marketCapPath = "$.quoteSummary.result[0].price.marketCap.raw"
)

// Yahoo looks up ticker metadata in the Yahoo Finance quote summary.
//
// The quote summary answers only within a session: cookies from CookieURLs
// and the crumb from CrumbURL, sent along every query. The crumb is fetched
// once, and again when a query is refused.
type Yahoo struct {
	BaseURL    string
	CrumbURL   string
	CookieURLs []string

	session *http.Client // not cached
	client  *http.Client // cached for the day, same cookies
	limiter *rate.Limiter

	mu    sync.Mutex
	crumb string
}

// NewYahoo returns a Yahoo client on baseURL (DefaultQuoteURL if empty), with
// responses cached in cacheDir for the day and at most rps requests per second.
func NewYahoo(baseURL, cacheDir string, rps float64) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultQuoteURL
	}
	if rps <= 0 {
		rps = 2
	}
	// cookiejar.New never fails with these options.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	client := daily(cacheDir)
	client.Jar = jar
	return &Yahoo{
		BaseURL:    baseURL,
		CrumbURL:   DefaultCrumbURL,
		CookieURLs: DefaultCookieURLs,
		session:    &http.Client{Jar: jar, Timeout: 20 * time.Second},
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Lookup implements Lookup. Fields missing from the answer are left to their default.
func (y *Yahoo) Lookup(ctx context.Context, ticker string) (Metadata, error) {
	crumb, err := y.getCrumb(ctx, "")
	if err != nil {
		return Default(), fmt.Errorf("yahoo session: %w", err)
	}
	var jobj any
	err = y.query(ctx, ticker, crumb, &jobj)
	var serr *statusError
	if errors.As(err, &serr) && (serr.Code == http.StatusUnauthorized || serr.Code == http.StatusForbidden) {
		log.Printf("yahoo-crumb-refused ticker=%s status=%d", ticker, serr.Code)
		if crumb, err = y.getCrumb(ctx, crumb); err != nil {
			return Default(), fmt.Errorf("yahoo session: %w", err)
		}
		err = y.query(ctx, ticker, crumb, &jobj)
	}
	if err != nil {
		return Default(), fmt.Errorf("error retrieving %q: %w", ticker, err)
	}

	m := Default()
	found := false
	if s, ok := getString(namePath, jobj); ok {
		m.Name, found = s, true
	}
	if s, ok := getString(sectorPath, jobj); ok {
		m.Sector, found = s, true
	}
	if s, ok := getString(industryPath, jobj); ok {
		m.Industry, found = s, true
	}
	if jval, err := jsonpath.Get(marketCapPath, jobj); err == nil {
		if v, ok := first(jval).(float64); ok {
			m.MarketCap, found = int64(v), true
		}
	}
	if !found {
		return m, fmt.Errorf("no metadata for %q", ticker)
	}
	return m, nil
}

func (y *Yahoo) query(ctx context.Context, ticker, crumb string, jobj any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	addr := y.BaseURL + url.PathEscape(ticker) + "?modules=assetProfile,price&crumb=" + url.QueryEscape(crumb)
	return jwget(ctx, y.client, addr, jobj)
}

// getCrumb returns the session crumb. It starts a new session when there is
// none yet, or when the current crumb is still the refused one.
func (y *Yahoo) getCrumb(ctx context.Context, refused string) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.crumb != "" && y.crumb != refused {
		return y.crumb, nil
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return "", err
	}
	for _, addr := range y.CookieURLs {
		// only the cookies matter, the status does not.
		if _, err := y.get(ctx, addr); err != nil && !errors.As(err, new(*statusError)) {
			log.Printf("yahoo-session-visit-failed url=%s: %v", addr, err)
		}
	}
	body, err := y.get(ctx, y.CrumbURL)
	if err != nil {
		return "", err
	}
	crumb := strings.TrimSpace(body)
	if crumb == "" {
		return "", fmt.Errorf("empty crumb from %s", y.CrumbURL)
	}
	y.crumb = crumb
	log.Printf("yahoo-session-ready")
	return crumb, nil
}

// get returns the body of addr, fetched with the session client. A non 200 answer is a *statusError.
func (y *Yahoo) get(ctx context.Context, addr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := y.session.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", newStatusError(resp)
	}
	return string(body), nil
}

func getString(path string, jobj any) (string, bool) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return "", false
	}
	s, ok := first(jval).(string)
	return s, ok && s != ""
}

// first unwraps single answer lists, jsonpath is never clear about whether it returns a list of 1 answer or a single answer.
func first(jval any) any {
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		return jlist[0]
	}
	return jval
}
