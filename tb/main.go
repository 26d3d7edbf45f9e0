// Command tb keeps a personal stock trading journal.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/tradebook/cmd"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "tb")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	completion(commander).Complete("tb")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion builds the shell completion tree from the registered commands.
func completion(commander *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flags(flag.CommandLine),
	}
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		root.Sub[c.Name()] = &complete.Command{Flags: flags(fs)}
	})
	return root
}

// predictors of the flags with known values.
var predictors = map[string]complete.Predictor{
	"book":      predict.Files("*.jsonl"),
	"data":      predict.Dirs("*"),
	"o":         predict.Files("*.csv"),
	"side":      predict.Set{"buy", "sell"},
	"provider":  predict.Set{"yahoo", "tradegate"},
	"raw":       predict.Nothing,
	"json":      predict.Nothing,
	"currency":  predict.Set{"EUR", "USD", "GBP", "CHF", "JPY", "CNY"},
	"watchlist": predict.Something,
}

func flags(fs *flag.FlagSet) map[string]complete.Predictor {
	res := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := predictors[f.Name]; ok {
			res[f.Name] = p
			return
		}
		res[f.Name] = predict.Something
	})
	return res
}
