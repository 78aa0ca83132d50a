// Command market queries the market-data core from a terminal: quotes,
// history, indicators, news, risk levels, screens and cache maintenance.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"
)

var (
	configPath = flag.String("config", "config.yaml", "path to the YAML configuration file")
	jsonOutput = flag.Bool("json", false, "print results as JSON instead of a table")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&quoteCmd{}, "market data")
	commander.Register(&historyCmd{}, "market data")
	commander.Register(&indicatorsCmd{}, "market data")
	commander.Register(&newsCmd{}, "market data")
	commander.Register(&riskCmd{}, "market data")
	commander.Register(&screenCmd{}, "screener")
	commander.Register(&purgeCmd{}, "maintenance")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := commander.Execute(ctx)
	stop()
	os.Exit(int(code))
}
