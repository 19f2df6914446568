package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/renderer"
	"github.com/sumiran35/capitol-shill/store"
)

type tradesCmd struct {
	filterFlags
	format string
	sync   bool
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "list the trades of the history" }
func (*tradesCmd) Usage() string {
	return `capshill trades [-f csv|json|md] [-sync] [-senator <names>] [-sector <sectors>] [-ticker <ticker>]

  Lists the saved trades, in the store order.

Usage Examples:
# Exports the AAPL trades as json.
$ capshill trades -f json -ticker AAPL > aapl.json

`
}

func (c *tradesCmd) SetFlags(f *flag.FlagSet) {
	c.filterFlags.SetFlags(f)
	f.StringVar(&c.format, "f", "md", "Output format: csv, json or md.")
	f.BoolVar(&c.sync, "sync", false, "Sync and enrich the history first.")
}

func (c *tradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch c.format {
	case "csv", "json", "md":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	app, ok := openApp(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer app.Close()

	var trades []capitol.Trade
	if c.sync {
		res, err := app.Pipeline.Data(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if res.Warning != "" {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", res.Warning)
		}
		trades = res.Trades
	} else {
		var err error
		if trades, err = app.Store.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %q: %v\n", app.Config.Store, err)
			return subcommands.ExitFailure
		}
	}

	if err := writeTrades(os.Stdout, c.format, c.Filter().Apply(trades)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// writeTrades writes trades to w in format.
func writeTrades(w io.Writer, format string, trades []capitol.Trade) error {
	switch format {
	case "csv":
		return store.Encode(w, trades)
	case "json":
		if trades == nil {
			trades = []capitol.Trade{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(trades)
	case "md":
		return writeMarkdown(w, renderer.RenderTrades(trades))
	}
	return fmt.Errorf("unknown format %q", format)
}
