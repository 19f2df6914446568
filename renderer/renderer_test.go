package renderer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/date"
)

func trades() []capitol.Trade {
	return []capitol.Trade{
		{
			Senator: "Jane Doe", Ticker: "AAPL", AssetDescription: "Apple <b>Inc</b>",
			TransactionDate: date.MustParse("2025-11-18"), DisclosureDate: date.MustParse("2025-11-20"),
			Type: "Buy", AmountEst: decimal.NewFromInt(175000), AssetType: capitol.AssetTypeStock, Sector: "Technology",
		},
		{
			Senator: "John Roe", Ticker: "XOM", AssetDescription: "Exxon | Mobil",
			TransactionDate: date.MustParse("2025-11-19"),
			Type: "Sell", AmountEst: decimal.NewFromInt(8000), AssetType: capitol.AssetTypeStock, Sector: "Oil & Gas",
		},
	}
}

func TestRenderSummary(t *testing.T) {
	s := capitol.Summarize(trades(), capitol.Filter{}, date.MustParse("2025-11-21"))
	got := RenderSummary(&SummaryView{Summary: s, Warning: "could not refresh trades"})

	for _, want := range []string{
		"# Capitol Trades",
		"> **Warning:** could not refresh trades",
		"| Fresh | 2025-11-19 | 2 |",
		"| $183,000 | $175,000 | $8,000 | 2 |",
		"| Technology | $175,000 | 95.6% |",
		"| Oil & Gas | $8,000 | 4.4% |",
		"| AAPL | 1 |",
		"| 2025-11-20 | 2025-11-18 | Jane Doe | AAPL | Buy | $175,000 | Technology | Apple Inc |",
		"| n/a | 2025-11-19 | John Roe | XOM | Sell | $8,000 | Oil & Gas | Exxon \\| Mobil |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderSummary() does not contain %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "error") {
		t.Errorf("RenderSummary() failed:\n%s", got)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	s := capitol.Summarize(nil, capitol.Filter{Ticker: "AAPL"}, date.MustParse("2025-11-21"))
	got := RenderSummary(&SummaryView{Summary: s, Filter: capitol.Filter{Ticker: "AAPL"}})
	for _, want := range []string{
		"| Stale | n/a | 0 |",
		"ticker: AAPL;",
		"No sector information.",
		"No trades found matching filters.",
		"No trades.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderSummary() does not contain %q:\n%s", want, got)
		}
	}
}

func TestRenderTrades(t *testing.T) {
	v := &SummaryView{Summary: capitol.Summary{Log: trades()}, LogSize: 1}
	if len(v.Shown()) != 1 {
		t.Errorf("Shown() = %d trades, want 1", len(v.Shown()))
	}
	got := RenderTrades(trades())
	if !strings.HasPrefix(got, "# Trades") || strings.Count(got, "\n|") != 4 {
		t.Errorf("RenderTrades() =\n%s", got)
	}
}

func TestHelpers(t *testing.T) {
	if got := usd(decimal.RequireFromString("1234567.5")); got != "$1,234,568" {
		t.Errorf("usd() = %q", got)
	}
	if got := text("<script>x</script>a  <i>b</i>\nc|d"); got != `a b c\|d` {
		t.Errorf("text() = %q", got)
	}
	if got := pct(decimal.NewFromInt(1), decimal.Zero); got != "0%" {
		t.Errorf("pct() = %q", got)
	}
}
