package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
)

type purgeCmd struct {
	olderThan time.Duration
}

func (*purgeCmd) Name() string     { return "purge" }
func (*purgeCmd) Synopsis() string { return "delete old cache records" }
func (*purgeCmd) Usage() string {
	return `purge [-older-than DURATION]:
  Delete cache records fetched before now-DURATION. Stale records are what
  the terminal falls back to when every provider fails, so keep them long
  enough to cover provider outages.
`
}

func (c *purgeCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.olderThan, "older-than", 7*24*time.Hour, "age of the records to delete")
}

func (c *purgeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.olderThan < 0 {
		fmt.Fprintln(os.Stderr, "purge: -older-than must not be negative")
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.close()

	n, err := e.store.Purge(ctx, c.olderThan)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("purged %d cache records older than %s\n", n, c.olderThan)
	return subcommands.ExitSuccess
}
