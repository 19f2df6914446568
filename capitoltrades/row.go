package capitoltrades

import (
	"strings"
	"unicode/utf8"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/date"
	"github.com/sumiran35/capitol-shill/normalize"
)

// MinCells is the number of cells of a well formed listing row.
const MinCells = 9

// RawRow is the text of the cells of one table row, in order.
type RawRow []string

// RawRecord names the cells of a RawRow.
type RawRecord struct {
	Politician string // name, then party, chamber and state
	Issuer     string // description, then ticker
	Published  string // disclosure date
	Traded     string // transaction date
	FiledAfter string
	Owner      string
	Type       string
	Size       string
	Price      string
}

// ParseRow names the cells of row.
//
// It returns false for rows that must be skipped: fewer than MinCells cells,
// text that is not valid UTF-8, or an empty politician, issuer or trade date.
func ParseRow(row RawRow) (RawRecord, bool) {
	if len(row) < MinCells {
		return RawRecord{}, false
	}
	for _, cell := range row[:MinCells] {
		if !utf8.ValidString(cell) {
			return RawRecord{}, false
		}
	}
	rec := RawRecord{
		Politician: row[0],
		Issuer:     row[1],
		Published:  row[2],
		Traded:     row[3],
		FiledAfter: row[4],
		Owner:      row[5],
		Type:       row[6],
		Size:       row[7],
		Price:      row[8],
	}
	for _, required := range []string{rec.Politician, rec.Issuer, rec.Traded} {
		if strings.TrimSpace(required) == "" {
			return RawRecord{}, false
		}
	}
	return rec, true
}

// Normalize converts rec into a Trade.
//
// It returns false when the transaction date cannot be read; an unreadable
// disclosure date is left zero.
func Normalize(rec RawRecord, today date.Date) (capitol.Trade, bool) {
	traded, ok := normalize.Date(rec.Traded, today)
	if !ok {
		return capitol.Trade{}, false
	}
	published, _ := normalize.Date(rec.Published, today)
	senator, _ := normalize.Person(rec.Politician)
	description, ticker := normalize.Issuer(rec.Issuer)
	return capitol.Trade{
		Senator:          senator,
		Ticker:           ticker,
		AssetDescription: description,
		TransactionDate:  traded,
		DisclosureDate:   published,
		Type:             normalize.Type(rec.Type),
		AmountEst:        normalize.Amount(rec.Size),
		AssetType:        capitol.AssetTypeStock,
	}, true
}
