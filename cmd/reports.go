package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/renderer"
)

// report loads the app book and prints either the JSON of data(b) or the
// markdown of md(b).
func report(asJSON bool, data func(*tradebook.Book) any, md func(b *tradebook.Book, currency string) string) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return failf("%v", err)
	}
	b, err := DecodeBook(cfg)
	if err != nil {
		return failf("could not load book %q: %v", cfg.BookFile, err)
	}
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data(b)); err != nil {
			return failf("%v", err)
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(md(b, currency(cfg)))
	return subcommands.ExitSuccess
}

// --- Positions Command ---

type positionsCmd struct {
	json bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display the position of every stock" }
func (*positionsCmd) Usage() string {
	return `tb positions [-json]

  Displays, for every stock, the quantities bought, sold and held, the average
  buy price, the total cost and revenue, and the realized P&L.
`
}
func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the positions as JSON")
}
func (c *positionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	positions := func(b *tradebook.Book) []tradebook.StockPosition { return tradebook.ComputePositions(b.Trades()) }
	return report(c.json,
		func(b *tradebook.Book) any { return positions(b) },
		func(b *tradebook.Book, cur string) string { return renderer.PositionsMarkdown(positions(b), cur) },
	)
}

// --- Monthly Command ---

type monthlyCmd struct {
	months int
	json   bool
}

func (*monthlyCmd) Name() string     { return "monthly" }
func (*monthlyCmd) Synopsis() string { return "display the trading activity per month" }
func (*monthlyCmd) Usage() string {
	return `tb monthly [-months <n>] [-json]

  Displays the amounts bought and sold, the realized P&L and the number of
  trades of the most recent months with activity.
`
}
func (c *monthlyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.months, "months", tradebook.MonthlyStatsWindow, "Number of months to display, 0 for all")
	f.BoolVar(&c.json, "json", false, "Print the stats as JSON")
}
func (c *monthlyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.months < 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	stats := func(b *tradebook.Book) []tradebook.MonthlyStat {
		return tradebook.ComputeMonthlyStatsWindow(b.Trades(), c.months)
	}
	return report(c.json,
		func(b *tradebook.Book) any { return stats(b) },
		func(b *tradebook.Book, cur string) string { return renderer.MonthlyMarkdown(stats(b), cur) },
	)
}

// --- Roundtrips Command ---

type roundtripsCmd struct {
	json bool
}

func (*roundtripsCmd) Name() string     { return "roundtrips" }
func (*roundtripsCmd) Synopsis() string { return "display the roundtrips and their returns" }
func (*roundtripsCmd) Usage() string {
	return `tb roundtrips [-json]

  Displays every roundtrip with its return, then the average return and the
  win rate.
`
}
func (c *roundtripsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the roundtrips as JSON")
}
func (c *roundtripsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return report(c.json,
		func(b *tradebook.Book) any {
			rts := b.Roundtrips()
			return map[string]any{
				"roundtrips":      rts,
				"aggregateReturn": tradebook.AggregateReturn(rts),
				"winRate":         tradebook.WinRate(rts),
				"totalPnL":        tradebook.TotalRoundtripPnL(rts),
			}
		},
		func(b *tradebook.Book, cur string) string { return renderer.RoundtripsMarkdown(b.Roundtrips(), cur) },
	)
}

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	json bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display a summary of the trading journal" }
func (*summaryCmd) Usage() string {
	return `tb summary [-json]

  Displays the totals of the book: amounts traded, realized P&L of trades and
  roundtrips, average return and win rate.
`
}
func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the summary as JSON")
}
func (c *summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return report(c.json,
		func(b *tradebook.Book) any { return tradebook.NewSummary(b) },
		func(b *tradebook.Book, cur string) string { return renderer.SummaryMarkdown(tradebook.NewSummary(b), cur) },
	)
}

// --- Export Command ---

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the book as CSV" }
func (*exportCmd) Usage() string {
	return `tb export [-o <file>]

  Writes one CSV row per record, in book order.
`
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, stdout if missing")
}
func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return failf("%v", err)
	}
	b, err := DecodeBook(cfg)
	if err != nil {
		return failf("could not load book %q: %v", cfg.BookFile, err)
	}

	if c.output == "" {
		if err := tradebook.ExportCSV(stdout, b); err != nil {
			return failf("%v", err)
		}
		return subcommands.ExitSuccess
	}

	out, err := os.Create(c.output)
	if err != nil {
		return failf("%v", err)
	}
	if err := tradebook.ExportCSV(out, b); err != nil {
		out.Close()
		return failf("%v", err)
	}
	if err := out.Close(); err != nil {
		return failf("%v", err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", b.Len(), c.output)
	return subcommands.ExitSuccess
}
