package capitol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sumiran35/capitol-shill/date"
)

// AssetTypeStock is the asset type of every trade read from the listing.
const AssetTypeStock = "Stock"

// UnknownTicker is the ticker of a trade whose issuer has no market symbol.
const UnknownTicker = "UNKNOWN"

// Trade is one disclosed transaction.
type Trade struct {
	Senator          string
	Ticker           string // upper case, or UnknownTicker
	AssetDescription string
	TransactionDate  date.Date
	DisclosureDate   date.Date // zero when unknown
	Type             string    // title-cased direction: Buy, Sell, ...
	AmountEst        decimal.Decimal
	AssetType        string
	Sector           string // empty until enriched
}

// Key identifies a trade for deduplication.
//
// There is no stable identifier in the listing, this tuple is a heuristic natural key:
// two genuinely distinct trades sharing it are collapsed into one.
type Key struct {
	TransactionDate date.Date
	Senator         string
	Ticker          string
	AmountEst       string // canonical decimal text, decimal.Decimal is not comparable
	Type            string
}

// String returns a readable form of the key, for logs.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", k.TransactionDate, k.Senator, k.Ticker, k.AmountEst, k.Type)
}

// Key returns the deduplication key of t.
func (t Trade) Key() Key {
	return Key{
		TransactionDate: t.TransactionDate,
		Senator:         t.Senator,
		Ticker:          t.Ticker,
		AmountEst:       t.AmountEst.String(),
		Type:            t.Type,
	}
}

// Equal reports whether t and x hold the same values.
func (t Trade) Equal(x Trade) bool {
	return t.Senator == x.Senator &&
		t.Ticker == x.Ticker &&
		t.AssetDescription == x.AssetDescription &&
		t.TransactionDate == x.TransactionDate &&
		t.DisclosureDate == x.DisclosureDate &&
		t.Type == x.Type &&
		t.AmountEst.Equal(x.AmountEst) &&
		t.AssetType == x.AssetType &&
		t.Sector == x.Sector
}

// IsBuy reports whether the trade is a purchase.
func (t Trade) IsBuy() bool { return strings.Contains(strings.ToLower(t.Type), "buy") }

// IsSell reports whether the trade is a sale.
func (t Trade) IsSell() bool { return strings.Contains(strings.ToLower(t.Type), "sell") }

// Validate checks the required fields of t.
func (t Trade) Validate() error {
	switch {
	case t.Senator == "":
		return fmt.Errorf("missing senator")
	case t.Ticker == "":
		return fmt.Errorf("missing ticker")
	case t.TransactionDate.IsZero():
		return fmt.Errorf("missing transaction date")
	case t.AmountEst.IsNegative():
		return fmt.Errorf("negative amount %v", t.AmountEst)
	}
	return nil
}

// MarshalJSON writes the trade with the snake_case column names used by every store.
// sector and disclosure_date are always present, null when unknown.
func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("senator", t.Senator)
	w.Append("ticker", t.Ticker)
	w.Append("asset_description", t.AssetDescription)
	w.Append("transaction_date", t.TransactionDate)
	w.Append("disclosure_date", t.DisclosureDate)
	w.Append("type", t.Type)
	w.Append("amount_est", t.AmountEst.InexactFloat64())
	w.Append("asset_type", t.AssetType)
	w.Nullable("sector", t.Sector)
	return w.MarshalJSON()
}

// UnmarshalJSON reads the format written by MarshalJSON.
func (t *Trade) UnmarshalJSON(data []byte) error {
	var aux struct {
		Senator          string          `json:"senator"`
		Ticker           string          `json:"ticker"`
		AssetDescription string          `json:"asset_description"`
		TransactionDate  date.Date       `json:"transaction_date"`
		DisclosureDate   date.Date       `json:"disclosure_date"`
		Type             string          `json:"type"`
		AmountEst        decimal.Decimal `json:"amount_est"`
		AssetType        string          `json:"asset_type"`
		Sector           *string         `json:"sector"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Trade{
		Senator:          aux.Senator,
		Ticker:           aux.Ticker,
		AssetDescription: aux.AssetDescription,
		TransactionDate:  aux.TransactionDate,
		DisclosureDate:   aux.DisclosureDate,
		Type:             aux.Type,
		AmountEst:        aux.AmountEst,
		AssetType:        aux.AssetType,
	}
	if aux.Sector != nil {
		t.Sector = *aux.Sector
	}
	return nil
}
