package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/store"
)

type copyCmd struct {
	in  string
	out string
}

func (*copyCmd) Name() string { return "copy" }
func (*copyCmd) Synopsis() string {
	return "copies the trades history from one store to another"
}
func (*copyCmd) Usage() string {
	return `capshill copy -in <store> -out <store>

  Replaces the history of the -out store with the one of the -in store, then
  reads it back to check both are identical. Stores are named as in -store.

Usage Examples:
# Moves the default csv history into a sqlite database.
$ capshill copy -in data/processed/senate_trades_history.csv -out sqlite:data/trades.db

`
}

func (c *copyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "in", "", "The store to read the history from.")
	f.StringVar(&c.out, "out", "", "The store to write the history to.")
}

func (c *copyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.in == "" || c.out == "" {
		fmt.Fprintln(os.Stderr, "Error: -in and -out flags are required.")
		return subcommands.ExitUsageError
	}
	if c.in == c.out {
		fmt.Fprintln(os.Stderr, "Error: -in and -out must be different stores.")
		return subcommands.ExitUsageError
	}

	n, err := Copy(ctx, c.in, c.out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Successfully copied %d trades to %s\n", n, c.out)
	return subcommands.ExitSuccess
}

// Copy replaces the history of the store out with the one of in, and checks it
// reads back the same. It returns the number of trades copied.
func Copy(ctx context.Context, in, out string) (int, error) {
	src, err := store.Open(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("cannot open %q: %w", in, err)
	}
	defer src.Close()
	dst, err := store.Open(ctx, out)
	if err != nil {
		return 0, fmt.Errorf("cannot open %q: %w", out, err)
	}
	defer dst.Close()

	release, err := store.LockFor(out).Acquire()
	if err != nil {
		return 0, fmt.Errorf("cannot lock %q: %w", out, err)
	}
	defer release()

	trades, err := src.Load()
	if err != nil {
		return 0, err
	}
	if err := dst.Save(trades); err != nil {
		return 0, err
	}

	copied, err := dst.Load()
	if err != nil {
		return 0, err
	}
	if err := check(trades, copied); err != nil {
		return 0, fmt.Errorf("copy of %q differs: %w", out, err)
	}
	return len(trades), nil
}

// check returns the differences between want and got, in order.
func check(want, got []capitol.Trade) error {
	if len(want) != len(got) {
		return fmt.Errorf("%d trades, want %d", len(got), len(want))
	}
	var errs []error
	for i := range want {
		if !want[i].Equal(got[i]) {
			errs = append(errs, fmt.Errorf("trade %d is %v, want %v", i, got[i].Key(), want[i].Key()))
		}
	}
	return errors.Join(errs...)
}
