// Package normalize turns the free text cells of the trades listing into typed values.
//
// Every function here is total: malformed input maps to a sentinel value
// (UnknownTicker, a zero amount, a false ok) and never to an error.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sumiran35/capitol-shill/date"
)

// UnknownTicker is the ticker of an issuer listed without a market symbol.
const UnknownTicker = "UNKNOWN"

// DateLayout is the listing's "day abbreviated-month year" format.
const DateLayout = "2 Jan 2006"

// lines splits s on line breaks, trims each line and drops empty ones.
func lines(s string) []string {
	var res []string
	for _, l := range strings.Split(strings.ReplaceAll(s, "\r", ""), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			res = append(res, l)
		}
	}
	return res
}

// Person returns the name of the official in a person cell, and whatever follows it
// (party, chamber and state).
func Person(s string) (name, affiliation string) {
	l := lines(s)
	switch len(l) {
	case 0:
		return "", ""
	case 1:
		return l[0], ""
	default:
		return l[0], strings.Join(l[1:], " ")
	}
}

// Issuer splits an issuer cell into the asset description and its ticker.
//
// "Huntington Bancshares Inc\nHBAN:US" yields ("Huntington Bancshares Inc", "HBAN").
// A cell without a second line yields UnknownTicker.
func Issuer(s string) (description, ticker string) {
	l := lines(s)
	if len(l) == 0 {
		return "", UnknownTicker
	}
	description = l[0]
	if len(l) < 2 {
		return description, UnknownTicker
	}
	ticker = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(l[1]), ":US"))
	if ticker == "" {
		return description, UnknownTicker
	}
	return description, strings.ToUpper(ticker)
}

// Date parses a listing date relative to today.
//
// Relative tokens win over absolute dates: any text containing "Yesterday" is
// today-1 and any text containing "Today" is today. It returns false when s is
// not a date.
func Date(s string, today date.Date) (date.Date, bool) {
	s = strings.Join(strings.Fields(s), " ")
	switch {
	case s == "":
		return date.Date{}, false
	case strings.Contains(s, "Yesterday"):
		return today.Add(-1), true
	case strings.Contains(s, "Today"):
		return today, true
	}
	// The listing sometimes spells September in four letters.
	s = strings.Replace(s, "Sept ", "Sep ", 1)
	d, err := date.ParseLayout(DateLayout, s)
	if err != nil {
		return date.Date{}, false
	}
	return d, true
}

var multipliers = map[byte]decimal.Decimal{
	'K': decimal.NewFromInt(1_000),
	'M': decimal.NewFromInt(1_000_000),
}

// bound parses one side of a range, with its optional unit.
func bound(s string) (v decimal.Decimal, unit byte, ok bool) {
	if s == "" {
		return v, 0, false
	}
	if _, isUnit := multipliers[s[len(s)-1]]; isUnit {
		unit = s[len(s)-1]
		s = s[:len(s)-1]
	}
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return decimal.Zero, 0, false
	}
	return v, unit, true
}

// Amount estimates the dollar amount of a bucketed size such as "100K–250K":
// the mean of both bounds, with K and M units applied. Anything that is not a
// two bound range is 0.
//
// A bound without unit takes the unit of the other one, so "1–5M" is 3M.
func Amount(s string) decimal.Decimal {
	s = strings.ToUpper(s)
	s = strings.NewReplacer("$", "", ",", "", " ", "", "\n", "", "\t", "").Replace(s)

	parts := strings.Split(s, "–")
	if len(parts) != 2 {
		parts = strings.Split(s, "-")
	}
	if len(parts) != 2 {
		return decimal.Zero
	}
	lo, lu, ok := bound(parts[0])
	if !ok {
		return decimal.Zero
	}
	hi, hu, ok := bound(parts[1])
	if !ok {
		return decimal.Zero
	}
	if lu == 0 {
		lu = hu
	}
	if hu == 0 {
		hu = lu
	}
	if m, ok := multipliers[lu]; ok {
		lo = lo.Mul(m)
	}
	if m, ok := multipliers[hu]; ok {
		hi = hi.Mul(m)
	}
	return lo.Add(hi).Div(decimal.NewFromInt(2))
}

// Type title-cases a transaction direction, "buy" and "BUY" both giving "Buy".
func Type(s string) string {
	// a Caser is stateful, one per call.
	return cases.Title(language.English).String(strings.TrimSpace(s))
}
