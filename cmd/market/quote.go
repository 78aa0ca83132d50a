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
)

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "show the latest quote of one or more symbols" }
func (*quoteCmd) Usage() string {
	return `quote SYMBOL [SYMBOL...]:
  Resolve the latest quote through the cache and the provider chain.
  Symbols without data are shown as N/A.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "quote: at least one symbol is required")
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.close()

	results := make([]*entity.Result, 0, f.NArg())
	missing := 0
	for _, sym := range f.Args() {
		res, err := e.coord.Resolve(ctx, sym, entity.KindQuote)
		switch {
		case errors.Is(err, domain.ErrNoDataAvailable):
			missing++
			results = append(results, &entity.Result{Symbol: sym, Kind: entity.KindQuote})
		case err != nil:
			return fail(err)
		default:
			results = append(results, res)
		}
	}

	if err := writeQuotes(os.Stdout, results, *jsonOutput); err != nil {
		return fail(err)
	}
	if missing == len(results) {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// writeQuotes prints one row per result; a result without a quote is N/A.
func writeQuotes(w io.Writer, results []*entity.Result, asJSON bool) error {
	if asJSON {
		return printJSON(w, results)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SYMBOL\tPRICE\tCHANGE%\tHIGH\tLOW\tVOLUME\tSOURCE")
	for _, r := range results {
		if r.Quote == nil {
			fmt.Fprintf(tw, "%s\tN/A\tN/A\tN/A\tN/A\tN/A\t-\n", r.Symbol)
			continue
		}
		q := r.Quote
		src := r.Source
		if r.Stale {
			src += " (stale)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			q.Symbol, q.Price.StringFixed(2), q.ChangePercent.StringFixed(2),
			q.High.StringFixed(2), q.Low.StringFixed(2), q.Volume, src)
	}
	return tw.Flush()
}
