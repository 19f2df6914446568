package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/date"
	"github.com/sumiran35/capitol-shill/enrich"
	"github.com/sumiran35/capitol-shill/pipeline"
	"github.com/sumiran35/capitol-shill/renderer"
)

// filterFlags are the flags shared by the commands listing trades.
type filterFlags struct {
	senators string
	sectors  string
	ticker   string
}

func (p *filterFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.senators, "senator", "", "Comma separated senators to keep.")
	f.StringVar(&p.sectors, "sector", "", "Comma separated sectors to keep.")
	f.StringVar(&p.ticker, "ticker", "", "Ticker to keep.")
}

func (p *filterFlags) Filter() capitol.Filter {
	return capitol.Filter{
		Senators: splitList(p.senators),
		Sectors:  splitList(p.sectors),
		Ticker:   strings.ToUpper(strings.TrimSpace(p.ticker)),
	}
}

func splitList(s string) []string {
	var list []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}

// showCmd holds the flags for the 'show' subcommand.
type showCmd struct {
	filterFlags
	offline bool
	size    int
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display a dashboard of the disclosed trades" }
func (*showCmd) Usage() string {
	return `capshill show [-senator <names>] [-sector <sectors>] [-ticker <ticker>] [-offline]

  Syncs the trades history, then displays the data freshness, trade volumes,
  sectors, most traded tickers and latest disclosures.
  See 'capshill topic show'.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	c.filterFlags.SetFlags(f)
	f.BoolVar(&c.offline, "offline", false, "Show the saved history without syncing it.")
	f.IntVar(&c.size, "n", 20, "Number of latest disclosures listed, all if zero.")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, ok := openApp(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer app.Close()

	res, err := load(ctx, app, c.offline)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	filter := c.Filter()
	v := &renderer.SummaryView{
		Summary: capitol.Summarize(res.Trades, filter, date.Today()),
		Filter:  filter,
		Warning: res.Warning,
		LogSize: c.size,
	}
	printMarkdown(renderer.RenderSummary(v))
	return subcommands.ExitSuccess
}

// load returns the enriched trades of app, synced first unless offline.
func load(ctx context.Context, app *App, offline bool) (pipeline.Result, error) {
	if !offline {
		return app.Pipeline.Data(ctx)
	}
	trades, err := app.Store.Load()
	if err != nil {
		return pipeline.Result{}, err
	}
	trades = app.Pipeline.Enricher.Enrich(ctx, trades, enrich.NewBatchCache())
	return pipeline.Result{Trades: trades, Enriched: true}, nil
}
