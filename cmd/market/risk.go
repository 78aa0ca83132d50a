package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/marketdata/domain/indicator"
)

type riskCmd struct{}

func (*riskCmd) Name() string     { return "risk" }
func (*riskCmd) Synopsis() string { return "show range volatility and stop/target levels" }
func (*riskCmd) Usage() string {
	return `risk SYMBOL [SYMBOL...]:
  Derive the session range volatility, a 2% stop loss and a 5% take profit
  from the latest quote. The score is the volatility capped at 10.
`
}

func (c *riskCmd) SetFlags(f *flag.FlagSet) {}

func (c *riskCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "risk: at least one symbol is required")
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.close()

	rows := make([]indicator.Risk, 0, f.NArg())
	for _, sym := range f.Args() {
		res, err := e.coord.Resolve(ctx, sym, entity.KindQuote)
		if errors.Is(err, domain.ErrNoDataAvailable) {
			fmt.Fprintf(os.Stderr, "%s: N/A\n", sym)
			continue
		}
		if err != nil {
			return fail(err)
		}
		rows = append(rows, indicator.RiskOf(*res.Quote))
	}

	if err := writeRisk(os.Stdout, rows, *jsonOutput); err != nil {
		return fail(err)
	}
	if len(rows) == 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeRisk(w io.Writer, rows []indicator.Risk, asJSON bool) error {
	if asJSON {
		return printJSON(w, rows)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SYMBOL\tPRICE\tVOL%\tSTOP\tTARGET\tSCORE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%.1f\n",
			r.Symbol, r.Price.StringFixed(2), r.Volatility, r.StopLoss.StringFixed(2), r.TakeProfit.StringFixed(2), r.Score)
	}
	return tw.Flush()
}
