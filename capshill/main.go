// Command capshill keeps a local history of the trades disclosed by US senators.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/sumiran35/capitol-shill/cmd"
	"github.com/sumiran35/capitol-shill/docs"
)

func main() {
	name := path.Base(os.Args[0])
	completion().Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion describes the command line for shell completion.
// Install it with COMP_INSTALL=1 capshill.
func completion() *complete.Command {
	filters := map[string]complete.Predictor{
		"senator": predict.Something,
		"sector":  predict.Something,
		"ticker":  predict.Something,
	}
	with := func(flags map[string]complete.Predictor) map[string]complete.Predictor {
		for k, v := range filters {
			flags[k] = v
		}
		return flags
	}
	topics, _ := docs.GetAllTopics()

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"store":     predict.Files("*"),
			"base-url":  predict.Something,
			"max-pages": predict.Something,
			"v":         predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"sync": {},
			"show": {Flags: with(map[string]complete.Predictor{
				"offline": predict.Nothing,
				"n":       predict.Something,
			})},
			"trades": {Flags: with(map[string]complete.Predictor{
				"f":    predict.Set{"csv", "json", "md"},
				"sync": predict.Nothing,
			})},
			"serve": {Flags: map[string]complete.Predictor{"addr": predict.Something}},
			"copy": {Flags: map[string]complete.Predictor{
				"in":  predict.Files("*"),
				"out": predict.Files("*"),
			}},
			"topic": {Args: predict.Set(append(topics, "readme", "*"))},
			"help":  {},
			"flags": {},
		},
	}
}
