package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"stock_terminal/internal/app/di"
	"stock_terminal/internal/feature/screener/domain/entity"
	"stock_terminal/internal/feature/screener/usecase"
)

type screenCmd struct {
	symbols        string
	sector         string
	preset         string
	trend          string
	signal         string
	order          string
	limit          int
	minRSI         optFloat
	maxRSI         optFloat
	momentumAbove  optFloat
	dayChangeAbove optFloat
}

func (*screenCmd) Name() string     { return "screen" }
func (*screenCmd) Synopsis() string { return "filter a universe of symbols on their indicators" }
func (*screenCmd) Usage() string {
	return `screen [-preset NAME | criteria flags] [-sector NAME | -symbols A,B]:
  Screen the configured universe (or a sector, or explicit symbols).
  Presets: ` + strings.Join(entity.PresetNames(), ", ") + `
  -limit keeps the first N matches in universe order and sorts only those;
  it is not a top-N over the whole universe.
`
}

func (c *screenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "comma separated symbols to screen")
	f.StringVar(&c.sector, "sector", "", "screen a configured sector")
	f.StringVar(&c.preset, "preset", "", "use a built-in preset instead of the criteria flags")
	f.StringVar(&c.trend, "trend", "", "UP, DOWN or FLAT")
	f.StringVar(&c.signal, "signal", "", "BUY, SELL or HOLD")
	f.StringVar(&c.order, "order", "", "rsi_asc, momentum_desc or day_change_desc")
	f.IntVar(&c.limit, "limit", 0, "keep the first N matches in universe order, then sort them (0 keeps all)")
	f.Var(&c.minRSI, "min-rsi", "minimum RSI, inclusive")
	f.Var(&c.maxRSI, "max-rsi", "maximum RSI, inclusive")
	f.Var(&c.momentumAbove, "momentum-above", "momentum in percent must exceed this value")
	f.Var(&c.dayChangeAbove, "day-change-above", "day change in percent must exceed this value")
}

// request converts the flags into a screener request.
func (c *screenCmd) request() (usecase.Request, error) {
	trend, err := entity.ParseTrend(c.trend)
	if err != nil {
		return usecase.Request{}, err
	}
	signal, err := entity.ParseSignal(c.signal)
	if err != nil {
		return usecase.Request{}, err
	}
	order, err := entity.ParseOrder(c.order)
	if err != nil {
		return usecase.Request{}, err
	}
	var symbols []string
	for _, s := range strings.Split(c.symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	return usecase.Request{
		Symbols: symbols,
		Sector:  c.sector,
		Preset:  c.preset,
		Criteria: entity.Criteria{
			MinRSI:         c.minRSI.v,
			MaxRSI:         c.maxRSI.v,
			Trend:          trend,
			MomentumAbove:  c.momentumAbove.v,
			DayChangeAbove: c.dayChangeAbove.v,
			Signal:         signal,
		},
		Order: order,
		Limit: c.limit,
	}, nil
}

func (c *screenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.close()

	cands, err := di.NewScreener(e.cfg, e.coord).Run(ctx, req)
	if err != nil {
		return fail(err)
	}
	if err := writeCandidates(os.Stdout, cands, *jsonOutput); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func writeCandidates(w io.Writer, cands []entity.Candidate, asJSON bool) error {
	if asJSON {
		if cands == nil {
			cands = []entity.Candidate{}
		}
		return printJSON(w, cands)
	}
	if len(cands) == 0 {
		_, err := fmt.Fprintln(w, "no symbol matched")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SYMBOL\tSIGNAL\tRSI\tMOM%\tDAY%\tTREND\tSOURCE")
	for _, cand := range cands {
		s := cand.Snapshot
		src := cand.Source
		if cand.Stale {
			src += " (stale)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			cand.Symbol, cand.Signal, na(s.RSI, 1), na(s.Momentum, 2), na(s.DayChange, 2), s.Trend, src)
	}
	return tw.Flush()
}
