package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"stock_terminal/internal/app/di"
	"stock_terminal/internal/feature/marketdata/domain/indicator"
	"stock_terminal/internal/feature/marketdata/usecase"
	screenerentity "stock_terminal/internal/feature/screener/domain/entity"
)

type indicatorsCmd struct{}

func (*indicatorsCmd) Name() string     { return "indicators" }
func (*indicatorsCmd) Synopsis() string { return "compute RSI, SMAs, momentum and trend of symbols" }
func (*indicatorsCmd) Usage() string {
	return `indicators SYMBOL [SYMBOL...]:
  Compute the technical indicators from the daily history of each symbol.
  Indicators that need more history than available are shown as N/A.
`
}

func (c *indicatorsCmd) SetFlags(f *flag.FlagSet) {}

// indicatorRow is one symbol's output.
type indicatorRow struct {
	Symbol     string                `json:"symbol"`
	Source     string                `json:"source"`
	Stale      bool                  `json:"stale"`
	Signal     screenerentity.Signal `json:"signal"`
	Indicators indicator.Snapshot    `json:"indicators"`
}

func (c *indicatorsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "indicators: at least one symbol is required")
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.close()

	uc := usecase.NewIndicatorUsecase(e.coord, di.IndicatorParams(e.cfg))
	th := di.Thresholds(e.cfg)

	rows := make([]indicatorRow, 0, f.NArg())
	for _, sym := range f.Args() {
		res, snap, err := uc.Indicators(ctx, sym)
		if err != nil {
			return fail(fmt.Errorf("%s: %w", sym, err))
		}
		rows = append(rows, indicatorRow{
			Symbol:     res.Symbol,
			Source:     res.Source,
			Stale:      res.Stale,
			Signal:     screenerentity.DeriveSignal(snap, th),
			Indicators: snap,
		})
	}

	if err := writeIndicators(os.Stdout, rows, *jsonOutput); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func writeIndicators(w io.Writer, rows []indicatorRow, asJSON bool) error {
	if asJSON {
		return printJSON(w, rows)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SYMBOL\tLAST\tRSI\tSMA_S\tSMA_L\tMOM%\tDAY%\tTREND\tSIGNAL")
	for _, r := range rows {
		s := r.Indicators
		trend := string(s.Trend)
		if trend == "" {
			trend = "N/A"
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Symbol, s.LastClose, na(s.RSI, 1), na(s.SMAShort, 2), na(s.SMALong, 2),
			na(s.Momentum, 2), na(s.DayChange, 2), trend, r.Signal)
	}
	return tw.Flush()
}
