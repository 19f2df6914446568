package capitol

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sumiran35/capitol-shill/date"
)

// T is a helper for test to create a trade from consts.
func T(on, senator, ticker string, amount int64, typ string) Trade {
	return Trade{
		Senator:          senator,
		Ticker:           ticker,
		AssetDescription: ticker + " Inc",
		TransactionDate:  date.MustParse(on),
		Type:             typ,
		AmountEst:        decimal.NewFromInt(amount),
		AssetType:        AssetTypeStock,
	}
}

// memStore is an in-memory Store that counts its saves.
type memStore struct {
	trades []Trade
	saves  int
	err    error
}

func (m *memStore) Load() ([]Trade, error) { return append([]Trade(nil), m.trades...), nil }
func (m *memStore) Save(trades []Trade) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.trades = append([]Trade(nil), trades...)
	return nil
}

// sourceFunc adapts a function to Source.
type sourceFunc func(ctx context.Context, r date.Range) ([]Trade, error)

func (f sourceFunc) Fetch(ctx context.Context, r date.Range) ([]Trade, error) { return f(ctx, r) }

// fixed returns a Source always returning trades, and records requested windows.
func fixed(windows *[]date.Range, trades ...Trade) Source {
	return sourceFunc(func(_ context.Context, r date.Range) ([]Trade, error) {
		*windows = append(*windows, r)
		return append([]Trade(nil), trades...), nil
	})
}

func equalTrades(a, b []Trade) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
