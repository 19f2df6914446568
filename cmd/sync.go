package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/sumiran35/capitol-shill/store"
)

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "fetch the trades disclosed since the last sync" }
func (*syncCmd) Usage() string {
	return `capshill sync

  Reads the trades history, fetches the listing pages since its most recent
  trade date, merges the new trades and saves the history back.
  See 'capshill topic sync'.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, ok := openApp(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer app.Close()

	release, err := app.Lock.Acquire()
	if errors.Is(err, store.ErrLocked) {
		fmt.Fprintf(os.Stderr, "Error: a sync is already running on %q\n", app.Config.Store)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locking the store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer release()

	res, err := app.Syncer.Sync(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error syncing %v: %v\n", res.Window, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%v: window %v, fetched %d, added %d, updated %d, %d trades in %s\n",
		res.State, res.Window, res.Fetched, res.Added, res.Updated, len(res.Trades), app.Config.Store)
	return subcommands.ExitSuccess
}
