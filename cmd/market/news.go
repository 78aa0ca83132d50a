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

type newsCmd struct {
	limit int
}

func (*newsCmd) Name() string     { return "news" }
func (*newsCmd) Synopsis() string { return "show recent company news of a symbol" }
func (*newsCmd) Usage() string {
	return `news [-limit N] SYMBOL:
  Print the latest company headlines of SYMBOL, newest first. Only providers
  with a news endpoint are asked; news is cached like quotes.
`
}

func (c *newsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", 10, "print at most N articles (0 prints everything)")
}

func (c *newsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "news: exactly one symbol is required")
		return subcommands.ExitUsageError
	}
	if c.limit < 0 {
		fmt.Fprintln(os.Stderr, "news: -limit must not be negative")
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.close()

	res, err := e.coord.Resolve(ctx, f.Arg(0), entity.KindNews)
	if err != nil {
		return fail(err)
	}
	if err := writeNews(os.Stdout, res, c.limit, *jsonOutput); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func writeNews(w io.Writer, res *entity.Result, limit int, asJSON bool) error {
	articles := res.News
	if articles == nil {
		articles = []entity.Article{}
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	if asJSON {
		return printJSON(w, struct {
			Symbol   string           `json:"symbol"`
			Source   string           `json:"source"`
			Stale    bool             `json:"stale"`
			Articles []entity.Article `json:"articles"`
		}{res.Symbol, res.Source, res.Stale, articles})
	}
	if len(articles) == 0 {
		_, err := fmt.Fprintf(w, "no recent news for %s\n", res.Symbol)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "PUBLISHED\tSOURCE\tHEADLINE")
	for _, a := range articles {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.PublishedAt.Format(time.DateTime), a.Source, a.Headline)
	}
	return tw.Flush()
}
