package cmd

import (
	"context"
	"path/filepath"
	"testing"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/store"
)

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "trades.csv")
	out := "sqlite:" + filepath.Join(dir, "trades.db")
	want := []capitol.Trade{
		trade("Jane Doe", "AAPL", "", "Buy", 8000),
		trade("John Roe", "XOM", "Energy", "Sell", 175000),
	}
	if err := store.NewCSV(in).Save(want); err != nil {
		t.Fatal(err)
	}

	n, err := Copy(context.Background(), in, out)
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Copy() = %d, want 2", n)
	}

	st, err := store.Open(context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	got, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := check(want, got); err != nil {
		t.Errorf("copied history differs: %v", err)
	}
}

func TestCheck(t *testing.T) {
	a := trade("Jane Doe", "AAPL", "", "Buy", 8000)
	b := trade("Jane Doe", "AAPL", "", "Sell", 8000)
	if err := check([]capitol.Trade{a}, []capitol.Trade{a}); err != nil {
		t.Errorf("check() error = %v", err)
	}
	if err := check([]capitol.Trade{a}, nil); err == nil {
		t.Errorf("check() of a missing trade error = nil")
	}
	if err := check([]capitol.Trade{a, a}, []capitol.Trade{a, b}); err == nil {
		t.Errorf("check() of a different trade error = nil")
	}
}
