package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"stock_terminal/internal/feature/marketdata/domain/entity"
)

type historyCmd struct {
	last int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show daily closes of a symbol" }
func (*historyCmd) Usage() string {
	return `history [-last N] SYMBOL:
  Print the daily series of SYMBOL, oldest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.last, "last", 30, "only print the last N points (0 prints everything)")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "history: exactly one symbol is required")
		return subcommands.ExitUsageError
	}
	if c.last < 0 {
		fmt.Fprintln(os.Stderr, "history: -last must not be negative")
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.close()

	res, err := e.coord.Resolve(ctx, f.Arg(0), entity.KindHistory)
	if err != nil {
		return fail(err)
	}
	if err := writeHistory(os.Stdout, res, c.last, *jsonOutput); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// writeHistory prints the tail of the series held by res.
func writeHistory(w io.Writer, res *entity.Result, last int, asJSON bool) error {
	var points []entity.Point
	if res.Series != nil {
		points = res.Series.Points
	}
	if last > 0 && len(points) > last {
		points = points[len(points)-last:]
	}
	if asJSON {
		return printJSON(w, struct {
			Symbol string         `json:"symbol"`
			Source string         `json:"source"`
			Stale  bool           `json:"stale"`
			Points []entity.Point `json:"points"`
		}{res.Symbol, res.Source, res.Stale, points})
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "# %s from %s", res.Symbol, res.Source)
	if res.Stale {
		fmt.Fprint(tw, " (stale)")
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DATE\tCLOSE\tVOLUME")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\n", p.Date.Format(time.DateOnly), p.Close, p.Volume)
	}
	return tw.Flush()
}
