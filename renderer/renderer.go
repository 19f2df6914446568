// Package renderer renders trade summaries as markdown.
package renderer

import (
	"embed"
	"fmt"
	"html"
	"io/fs"
	"strings"
	"text/template"

	"github.com/Rhymond/go-money"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/date"
)

//go:embed *.md
var templates embed.FS

// SummaryView is what the summary template displays.
type SummaryView struct {
	capitol.Summary
	Filter  capitol.Filter
	Warning string
	LogSize int // number of trades listed, all if zero
}

// Shown returns the trades of the log to display.
func (v *SummaryView) Shown() []capitol.Trade {
	if v.LogSize > 0 && len(v.Log) > v.LogSize {
		return v.Log[:v.LogSize]
	}
	return v.Log
}

// RenderSummary renders the dashboard of v to a markdown string.
func RenderSummary(v *SummaryView) string {
	partials := map[string]string{
		"summary_status":  "summary_status.md",
		"summary_volume":  "summary_volume.md",
		"summary_sectors": "summary_sectors.md",
		"summary_tickers": "summary_tickers.md",
		"trades_log":      "trades_log.md",
	}
	return renderTemplate("summary", "summary.md", partials, v)
}

// RenderTrades renders trades as a markdown table.
func RenderTrades(trades []capitol.Trade) string {
	partials := map[string]string{
		"trades_log": "trades_log.md",
	}
	return renderTemplate("trades", "trades.md", partials, trades)
}

var policy = bluemonday.StrictPolicy()

var funcs = template.FuncMap{
	"usd":  usd,
	"day":  day,
	"text": text,
	"join": strings.Join,
	"pct":  pct,
}

// usd formats an amount of dollars, without cents.
func usd(d decimal.Decimal) string {
	s := money.New(d.Round(0).IntPart()*100, money.USD).Display()
	return strings.TrimSuffix(s, ".00")
}

// day formats a date, unknown dates as "n/a".
func day(d date.Date) string {
	if d.IsZero() {
		return "n/a"
	}
	return d.String()
}

// text removes any markup from s and makes it safe in a table cell.
func text(s string) string {
	s = html.UnescapeString(policy.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// pct formats part/total as a percentage.
func pct(part, total decimal.Decimal) string {
	if total.IsZero() {
		return "0%"
	}
	return part.Mul(decimal.NewFromInt(100)).Div(total).StringFixed(1) + "%"
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
