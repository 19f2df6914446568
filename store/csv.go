// Package store persists snapshots of trades.
//
// Every backing replaces the whole snapshot on Save, atomically: readers see
// either the previous snapshot or the new one, never a mix.
package store

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/date"
)

// DefaultPath is where the CSV snapshot lives when nothing else is configured.
const DefaultPath = "data/processed/senate_trades_history.csv"

// Columns is the header of the CSV snapshot, and the column names of the sql tables.
var Columns = []string{
	"senator",
	"ticker",
	"asset_description",
	"transaction_date",
	"disclosure_date",
	"type",
	"amount_est",
	"asset_type",
	"sector",
}

// CSV stores the snapshot in a single csv file.
type CSV struct {
	Path string
}

// NewCSV returns a CSV store at path.
func NewCSV(path string) *CSV { return &CSV{Path: path} }

// Load reads the snapshot. A missing file is an empty snapshot.
func (s *CSV) Load() ([]capitol.Trade, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	defer f.Close()
	return readCSV(f, s.Path)
}

func readCSV(r io.Reader, name string) ([]capitol.Trade, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse error %s: %w", name, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, required := range []string{"senator", "ticker", "transaction_date", "amount_est", "type"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("parse error %s: missing column %q", name, required)
		}
	}
	// optional columns read as empty
	get := func(rec []string, col string) string {
		if i, ok := index[col]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var trades []capitol.Trade
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return trades, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse error %s:%d: %w", name, line, err)
		}
		t, err := fromRecord(get, rec)
		if err != nil {
			return nil, fmt.Errorf("parse error %s:%d: %w", name, line, err)
		}
		if keep(t, fmt.Sprintf("%s:%d", name, line)) {
			trades = append(trades, t)
		}
	}
}

// keep reports whether a loaded trade holds its required fields.
// Rows that do not are dropped and logged, like rows the crawler cannot parse.
func keep(t capitol.Trade, at string) bool {
	if err := t.Validate(); err != nil {
		log.Printf("load-skip at=%s err=%q", at, err)
		return false
	}
	return true
}

func fromRecord(get func([]string, string) string, rec []string) (capitol.Trade, error) {
	t := capitol.Trade{
		Senator:          get(rec, "senator"),
		Ticker:           get(rec, "ticker"),
		AssetDescription: get(rec, "asset_description"),
		Type:             get(rec, "type"),
		AssetType:        get(rec, "asset_type"),
		Sector:           get(rec, "sector"),
	}
	var err error
	if t.TransactionDate, err = parseDate(get(rec, "transaction_date")); err != nil {
		return t, err
	}
	if t.DisclosureDate, err = parseDate(get(rec, "disclosure_date")); err != nil {
		return t, err
	}
	if s := get(rec, "amount_est"); s != "" {
		if t.AmountEst, err = decimal.NewFromString(s); err != nil {
			return t, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}
	return t, nil
}

// parseDate reads a stored date, "" being the zero date.
// A timestamp written by other tools ("2025-01-02 00:00:00") is truncated to its day.
func parseDate(s string) (date.Date, error) {
	if s == "" {
		return date.Date{}, nil
	}
	if len(s) > len(date.DateFormat) {
		s = s[:len(date.DateFormat)]
	}
	return date.Parse(s)
}

func toRecord(t capitol.Trade) []string {
	return []string{
		t.Senator,
		t.Ticker,
		t.AssetDescription,
		t.TransactionDate.String(),
		t.DisclosureDate.String(),
		t.Type,
		t.AmountEst.String(),
		t.AssetType,
		t.Sector,
	}
}

// Save replaces the snapshot with trades.
//
// The file is written next to its final location then renamed over it.
func (s *CSV) Save(trades []capitol.Trade) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op once renamed

	if err := writeCSV(f, trades); err != nil {
		f.Close()
		return fmt.Errorf("persist error: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	return nil
}

func writeCSV(f *os.File, trades []capitol.Trade) error {
	bufw := bufio.NewWriter(f)
	if err := Encode(bufw, trades); err != nil {
		return err
	}
	if err := bufw.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// Encode writes trades to w in the csv format of the store, header first.
func Encode(w io.Writer, trades []capitol.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write(toRecord(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var _ capitol.Store = (*CSV)(nil)
