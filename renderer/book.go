// Package renderer renders the tradebook reports as markdown.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/tradebook"
)

// PositionsMarkdown renders the positions as a table, one row per stock.
func PositionsMarkdown(positions []tradebook.StockPosition, currency string) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Positions\n\n")
	if len(positions) == 0 {
		fmt.Fprint(&b, "No trades.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Stock | Bought | Sold | Holding | Avg Price | Cost | Revenue | Realized P&L |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|---:|")
	var cost, revenue, pnl tradebook.Money
	for _, p := range positions {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			cell(p.Key),
			p.BuyQuantity,
			p.SellQuantity,
			p.HoldingQuantity,
			p.AvgBuyPrice.Format(currency),
			p.TotalBuyCost.Format(currency),
			p.TotalSellRevenue.Format(currency),
			p.RealizedPnL.SignedString(currency),
		)
		cost = cost.Add(p.TotalBuyCost)
		revenue = revenue.Add(p.TotalSellRevenue)
		pnl = pnl.Add(p.RealizedPnL)
	}
	fmt.Fprintf(&b, "| **Total** | | | | | **%s** | **%s** | **%s** |\n",
		cost.Format(currency), revenue.Format(currency), pnl.SignedString(currency))
	return b.String()
}

// MonthlyMarkdown renders the monthly stats, oldest month first.
func MonthlyMarkdown(stats []tradebook.MonthlyStat, currency string) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Monthly Activity\n\n")
	if len(stats) == 0 {
		fmt.Fprint(&b, "No trades.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Month | Trades | Bought | Sold | P&L |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|")
	for _, m := range stats {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n",
			m.Month, m.Count, m.BuyAmount.Format(currency), m.SellAmount.Format(currency), m.PnL.SignedString(currency))
	}
	return b.String()
}

// RoundtripsMarkdown renders the roundtrips with their return, followed by
// the aggregate return and the win rate.
func RoundtripsMarkdown(rts []tradebook.Roundtrip, currency string) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Roundtrips\n\n")
	if len(rts) == 0 {
		fmt.Fprint(&b, "No roundtrips.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Date | Stock | Quantity | Buy | Sell | P&L | Return |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|")
	for _, r := range rts {
		m := r.Metrics()
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			r.Date,
			cell(stock(r.StockCode, r.StockName)),
			r.Quantity,
			r.BuyPrice.Format(currency),
			r.SellPrice.Format(currency),
			r.RealizedPnL.SignedString(currency),
			m.ReturnPct.SignedString(),
		)
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "- Total P&L: %s\n", tradebook.TotalRoundtripPnL(rts).SignedString(currency))
	fmt.Fprintf(&b, "- Average return: %s\n", tradebook.AggregateReturn(rts).SignedString())
	fmt.Fprintf(&b, "- Win rate: %s\n", tradebook.WinRate(rts))
	return b.String()
}

// SummaryMarkdown renders the dashboard of a book.
func SummaryMarkdown(s tradebook.Summary, currency string) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Trading Summary\n\n")
	if s.Records == 0 {
		fmt.Fprint(&b, "The book is empty.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "From %s to %s: %d trades, %d roundtrips, %d open positions.\n\n",
		s.First, s.Last, s.Trades, s.Roundtrips, s.OpenPositions)

	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Bought | %s |\n", s.TotalBuyCost.Format(currency))
	fmt.Fprintf(&b, "| Sold | %s |\n", s.TotalSellRevenue.Format(currency))
	fmt.Fprintf(&b, "| Trades P&L | %s |\n", s.TradePnL.SignedString(currency))
	fmt.Fprintf(&b, "| Roundtrips P&L | %s |\n", s.RoundtripPnL.SignedString(currency))
	fmt.Fprintf(&b, "| **Total P&L** | **%s** |\n", s.TotalPnL.SignedString(currency))

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "| Average return | %s |\n", s.AggregateReturn.SignedString())
		fmt.Fprintf(w, "| Win rate | %s |\n", s.WinRate)
		return s.Roundtrips > 0
	})
	return b.String()
}

// RecordsMarkdown renders the records in book order.
func RecordsMarkdown(records []tradebook.Record, currency string) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Records\n\n")
	if len(records) == 0 {
		fmt.Fprint(&b, "No records.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| ID | Date | Record | Memo |")
	fmt.Fprintln(&b, "|:---|:---|:---|:---|")
	for _, r := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", r.RecordID(), r.When(), cell(Record(r, currency)), cell(memo(r)))
	}
	return b.String()
}

// Record renders a record to a one line description.
func Record(r tradebook.Record, currency string) string {
	switch v := r.(type) {
	case tradebook.Trade:
		verb := "Bought"
		if v.Side == tradebook.Sell {
			verb = "Sold"
		}
		return fmt.Sprintf("%s %s %s at %s", verb, v.Quantity, stock(v.StockCode, v.StockName), v.Price.Format(currency))
	case tradebook.Roundtrip:
		return fmt.Sprintf("Roundtrip %s %s from %s to %s, %s",
			v.Quantity, stock(v.StockCode, v.StockName), v.BuyPrice.Format(currency), v.SellPrice.Format(currency),
			v.RealizedPnL.SignedString(currency))
	default:
		return string(r.What())
	}
}

func memo(r tradebook.Record) string {
	switch v := r.(type) {
	case tradebook.Trade:
		return v.Memo
	case tradebook.Roundtrip:
		return v.Memo
	}
	return ""
}
