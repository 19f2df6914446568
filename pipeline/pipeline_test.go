package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/date"
	"github.com/sumiran35/capitol-shill/enrich"
	"github.com/sumiran35/capitol-shill/store"
)

type source struct {
	calls  int
	err    error
	trades []capitol.Trade
}

func (s *source) Fetch(context.Context, date.Range) ([]capitol.Trade, error) {
	s.calls++
	return s.trades, s.err
}

type sectors map[string]string

func (s sectors) Lookup(_ context.Context, ticker string) (enrich.Metadata, error) {
	if sector, ok := s[ticker]; ok {
		m := enrich.Default()
		m.Sector = sector
		return m, nil
	}
	return enrich.Metadata{}, errors.New("unknown")
}

var today = date.MustParse("2025-11-21")

func trade(on, ticker string) capitol.Trade {
	return capitol.Trade{
		Senator:         "Jane Doe",
		Ticker:          ticker,
		TransactionDate: date.MustParse(on),
		Type:            "Buy",
		AmountEst:       decimal.NewFromInt(8000),
		AssetType:       capitol.AssetTypeStock,
	}
}

func setup(t *testing.T, src *source) (*Pipeline, *store.CSV) {
	t.Helper()
	st := store.NewCSV(filepath.Join(t.TempDir(), "trades.csv"))
	s := &capitol.Syncer{Store: st, Source: src, Today: func() date.Date { return today }}
	p := New(s, store.NewLock(st.Path), &enrich.Enricher{Lookup: sectors{"AAPL": "Technology"}}, time.Hour)
	return p, st
}

func TestDataIsCached(t *testing.T) {
	src := &source{trades: []capitol.Trade{trade("2025-11-20", "AAPL")}}
	p, _ := setup(t, src)

	first, err := p.Data(context.Background())
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	second, err := p.Data(context.Background())
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source fetched %d times, want 1 within the TTL", src.calls)
	}
	if first.RunID == "" || first.RunID != second.RunID {
		t.Errorf("RunID = %q then %q, want the same cached run", first.RunID, second.RunID)
	}
	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("source fetched %d times after Refresh, want 2", src.calls)
	}
}

func TestDataEnriches(t *testing.T) {
	src := &source{trades: []capitol.Trade{trade("2025-11-20", "AAPL"), trade("2025-11-20", "ZZZ")}}
	p, st := setup(t, src)
	res, err := p.Data(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Enriched || res.Trades[0].Sector != "Technology" || res.Trades[1].Sector != enrich.Unknown {
		t.Errorf("Data() = %+v, want enriched sectors", res.Trades)
	}
	if _, failed := res.Metadata["ZZZ"]; failed || res.Metadata["AAPL"].Sector != "Technology" {
		t.Errorf("Data().Metadata = %v, want AAPL only", res.Metadata)
	}
	saved, _ := st.Load()
	for _, tr := range saved {
		if tr.Sector != "" {
			t.Errorf("enrichment was persisted: %+v", tr)
		}
	}
}

func TestDataFallsBack(t *testing.T) {
	src := &source{err: errors.New("no network")}
	p, st := setup(t, src)
	saved := []capitol.Trade{trade("2025-11-01", "AAPL")}
	if err := st.Save(saved); err != nil {
		t.Fatal(err)
	}
	res, err := p.Data(context.Background())
	if err != nil {
		t.Fatalf("Data() error = %v, want a fallback", err)
	}
	if !strings.Contains(res.Warning, "no network") {
		t.Errorf("Warning = %q, want the sync error", res.Warning)
	}
	if len(res.Trades) != 1 || res.Trades[0].Ticker != "AAPL" {
		t.Errorf("Trades = %v, want the saved snapshot", res.Trades)
	}
}

func TestDataLocked(t *testing.T) {
	src := &source{trades: []capitol.Trade{trade("2025-11-20", "AAPL")}}
	p, st := setup(t, src)
	release, err := store.NewLock(st.Path).Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	res, err := p.Data(context.Background())
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if src.calls != 0 {
		t.Errorf("source fetched while another writer holds the lock")
	}
	if res.Warning == "" {
		t.Errorf("Warning is empty, want the lock error")
	}
}
