package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/renderer"
)

// appendRecord validates a record and appends it to the app book.
func appendRecord(r tradebook.Record) subcommands.ExitStatus {
	if err := tradebook.ValidateRecord(r); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		return failf("%v", err)
	}
	b, err := DecodeBook(cfg)
	if err != nil {
		return failf("could not load book %q: %v", cfg.BookFile, err)
	}
	r = b.Append(r)[0]
	if err := EncodeBook(cfg, b); err != nil {
		return failf("could not save book %q: %v", cfg.BookFile, err)
	}
	fmt.Fprintf(stdout, "Recorded %s: %s\n", r.RecordID(), renderer.Record(r, currency(cfg)))
	return subcommands.ExitSuccess
}

// stockFlags are the flags shared by the commands that record a stock operation.
type stockFlags struct {
	date string
	code string
	name string
	memo string
}

func (s *stockFlags) set(f *flag.FlagSet) {
	f.StringVar(&s.date, "d", tradebook.Today().String(), "Date of the operation. See the user manual for supported date formats.")
	f.StringVar(&s.code, "c", "", "Stock code, e.g. 600000")
	f.StringVar(&s.name, "n", "", "Stock name")
	f.StringVar(&s.memo, "m", "", "An optional rationale or note for the record")
}

// --- Trade Commands ---

type tradeCmd struct {
	stockFlags
	side     tradebook.Side
	quantity string
	price    string
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	c.stockFlags.set(f)
	f.StringVar(&c.quantity, "q", "", "Number of shares")
	f.StringVar(&c.price, "p", "", "Price per share")
}

func (c *tradeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.quantity == "" || c.price == "" || (c.code == "" && c.name == "") {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := tradebook.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	q, err := parseQuantity("q", c.quantity)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	p, err := parseMoney("p", c.price)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return appendRecord(tradebook.NewTrade("", day, c.code, c.name, c.side, q, p, c.memo))
}

type buyCmd struct{ tradeCmd }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record the purchase of shares" }
func (*buyCmd) Usage() string {
	return `tb buy [-d <date>] -c <code> [-n <name>] -q <quantity> -p <price> [-m <memo>]

  Records a buy trade. It adds to the position and updates its average buy price.
`
}
func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	c.side = tradebook.Buy
	return c.tradeCmd.Execute(ctx, f, args...)
}

type sellCmd struct{ tradeCmd }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record the sale of shares" }
func (*sellCmd) Usage() string {
	return `tb sell [-d <date>] -c <code> [-n <name>] -q <quantity> -p <price> [-m <memo>]

  Records a sell trade. The realized P&L is computed at the average buy price
  of the position at the date of the sale.
`
}
func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	c.side = tradebook.Sell
	return c.tradeCmd.Execute(ctx, f, args...)
}

// --- Roundtrip Command ---

type roundtripCmd struct {
	stockFlags
	quantity  string
	buyPrice  string
	sellPrice string
	pnl       string
}

func (*roundtripCmd) Name() string     { return "roundtrip" }
func (*roundtripCmd) Synopsis() string { return "record a same-day buy then sell cycle" }
func (*roundtripCmd) Usage() string {
	return `tb roundtrip [-d <date>] -c <code> [-n <name>] -q <quantity> -buy <price> -sell <price> [-pnl <amount>] [-m <memo>]

  Records a roundtrip. Its realized P&L is (sell - buy) * quantity unless -pnl
  is given, e.g. to account for fees.
`
}

func (c *roundtripCmd) SetFlags(f *flag.FlagSet) {
	c.stockFlags.set(f)
	f.StringVar(&c.quantity, "q", "", "Number of shares")
	f.StringVar(&c.buyPrice, "buy", "", "Buy price per share")
	f.StringVar(&c.sellPrice, "sell", "", "Sell price per share")
	f.StringVar(&c.pnl, "pnl", "", "Realized P&L, computed from the prices if missing")
}

func (c *roundtripCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.quantity == "" || c.buyPrice == "" || c.sellPrice == "" || (c.code == "" && c.name == "") {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := tradebook.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	q, err := parseQuantity("q", c.quantity)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	buy, err := parseMoney("buy", c.buyPrice)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	sell, err := parseMoney("sell", c.sellPrice)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	rt := tradebook.NewRoundtrip("", day, c.code, c.name, q, buy, sell, c.memo)
	if c.pnl != "" {
		if rt.RealizedPnL, err = parseMoney("pnl", c.pnl); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}
	return appendRecord(rt)
}

// --- Edit Command ---

type editCmd struct {
	id string
	stockFlags
	side      string
	quantity  string
	price     string
	buyPrice  string
	sellPrice string
	pnl       string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit a record in place" }
func (*editCmd) Usage() string {
	return `tb edit -id <id> [-d <date>] [-c <code>] [-n <name>] [-m <memo>]
        [-side buy|sell] [-q <quantity>] [-p <price>]
        [-buy <price>] [-sell <price>] [-pnl <amount>]

  Changes the given fields of a record, keeping its position in the book.
  Editing the quantity or a price of a roundtrip recomputes its P&L unless
  -pnl is given.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Id of the record to edit")
	c.stockFlags.set(f)
	f.StringVar(&c.side, "side", "", "Trade side: buy or sell")
	f.StringVar(&c.quantity, "q", "", "Number of shares")
	f.StringVar(&c.price, "p", "", "Trade price per share")
	f.StringVar(&c.buyPrice, "buy", "", "Roundtrip buy price per share")
	f.StringVar(&c.sellPrice, "sell", "", "Roundtrip sell price per share")
	f.StringVar(&c.pnl, "pnl", "", "Roundtrip realized P&L")
}

func (c *editCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	given := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { given[fl.Name] = true })

	cfg, err := loadConfig()
	if err != nil {
		return failf("%v", err)
	}
	b, err := DecodeBook(cfg)
	if err != nil {
		return failf("could not load book %q: %v", cfg.BookFile, err)
	}
	r, ok := b.Get(c.id)
	if !ok {
		return failf("record %q not found", c.id)
	}

	edited, err := c.apply(r, given)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if err := tradebook.ValidateRecord(edited); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if err := b.Replace(edited); err != nil {
		return failf("%v", err)
	}
	if err := EncodeBook(cfg, b); err != nil {
		return failf("could not save book %q: %v", cfg.BookFile, err)
	}
	fmt.Fprintf(stdout, "Edited %s: %s\n", edited.RecordID(), renderer.Record(edited, currency(cfg)))
	return subcommands.ExitSuccess
}

// apply returns the record r with the given flags applied.
func (c *editCmd) apply(r tradebook.Record, given map[string]bool) (tradebook.Record, error) {
	var err error
	day := r.When()
	if given["d"] {
		if day, err = tradebook.ParseDate(c.date); err != nil {
			return nil, fmt.Errorf("invalid -d: %w", err)
		}
	}

	switch v := r.(type) {
	case tradebook.Trade:
		if given["buy"] || given["sell"] || given["pnl"] {
			return nil, fmt.Errorf("-buy, -sell and -pnl only apply to roundtrips")
		}
		v.Date = day
		c.applyStock(&v.StockCode, &v.StockName, &v.Memo, given)
		if given["side"] {
			v.Side = tradebook.Side(c.side)
		}
		if given["q"] {
			if v.Quantity, err = parseQuantity("q", c.quantity); err != nil {
				return nil, err
			}
		}
		if given["p"] {
			if v.Price, err = parseMoney("p", c.price); err != nil {
				return nil, err
			}
		}
		return v, nil

	case tradebook.Roundtrip:
		if given["side"] || given["p"] {
			return nil, fmt.Errorf("-side and -p only apply to trades")
		}
		v.Date = day
		c.applyStock(&v.StockCode, &v.StockName, &v.Memo, given)
		if given["q"] {
			if v.Quantity, err = parseQuantity("q", c.quantity); err != nil {
				return nil, err
			}
		}
		if given["buy"] {
			if v.BuyPrice, err = parseMoney("buy", c.buyPrice); err != nil {
				return nil, err
			}
		}
		if given["sell"] {
			if v.SellPrice, err = parseMoney("sell", c.sellPrice); err != nil {
				return nil, err
			}
		}
		switch {
		case given["pnl"]:
			if v.RealizedPnL, err = parseMoney("pnl", c.pnl); err != nil {
				return nil, err
			}
		case given["q"] || given["buy"] || given["sell"]:
			v.RealizedPnL = v.SellPrice.Sub(v.BuyPrice).Mul(v.Quantity)
		}
		return v, nil

	default:
		return nil, fmt.Errorf("cannot edit a %s record", r.What())
	}
}

func (c *editCmd) applyStock(code, name, memo *string, given map[string]bool) {
	if given["c"] {
		*code = c.code
	}
	if given["n"] {
		*name = c.name
	}
	if given["m"] {
		*memo = c.memo
	}
}

// --- Remove Command ---

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove records from the book" }
func (*rmCmd) Usage() string {
	return `tb rm <id>...

  Removes the records with the given ids. Nothing is removed if one of the ids
  is unknown.
`
}
func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		return failf("%v", err)
	}
	b, err := DecodeBook(cfg)
	if err != nil {
		return failf("could not load book %q: %v", cfg.BookFile, err)
	}
	for _, id := range f.Args() {
		if err := b.Delete(id); err != nil {
			return failf("%v", err)
		}
	}
	if err := EncodeBook(cfg, b); err != nil {
		return failf("could not save book %q: %v", cfg.BookFile, err)
	}
	fmt.Fprintf(stdout, "Removed %d records\n", f.NArg())
	return subcommands.ExitSuccess
}

// --- Format Command ---

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the book file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `tb fmt

  Validates and formats the book file. This command reads all records,
  validates them, sorts them by date, and writes them back in a canonical
  JSONL format. Records of the same day keep their order.
`
}
func (*fmtCmd) SetFlags(*flag.FlagSet) {}

func (*fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return failf("%v", err)
	}
	b, err := DecodeBook(cfg)
	if err != nil {
		return failf("could not load book %q: %v", cfg.BookFile, err)
	}

	invalid := 0
	for r := range b.All() {
		if err := tradebook.ValidateRecord(r); err != nil {
			fmt.Fprintln(os.Stderr, err)
			invalid++
		}
	}
	if invalid > 0 {
		return failf("%d invalid records, book left unchanged", invalid)
	}

	if err := EncodeBook(cfg, b.Fmt()); err != nil {
		return failf("could not save book %q: %v", cfg.BookFile, err)
	}
	fmt.Fprintf(os.Stderr, "✅ Successfully formatted %d records.\n", b.Len())
	return subcommands.ExitSuccess
}

// --- Log Command ---

type logCmd struct{}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list the records of the book" }
func (*logCmd) Usage() string {
	return `tb log

  Lists all records in book order with their id.
`
}
func (*logCmd) SetFlags(*flag.FlagSet) {}

func (*logCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return failf("%v", err)
	}
	b, err := DecodeBook(cfg)
	if err != nil {
		return failf("could not load book %q: %v", cfg.BookFile, err)
	}
	printMarkdown(renderer.RecordsMarkdown(b.Records(), currency(cfg)))
	return subcommands.ExitSuccess
}
