package tradebook

import (
	"maps"
	"slices"
)

// MonthlyStatsWindow is the number of most recent months returned by ComputeMonthlyStats.
const MonthlyStatsWindow = 12

// MonthlyStat summarizes the trades of one calendar month.
type MonthlyStat struct {
	Month      string `json:"month"` // YYYY-MM
	BuyAmount  Money  `json:"buyAmount"`
	SellAmount Money  `json:"sellAmount"`
	PnL        Money  `json:"pnl"` // realized on the sells of the month, at the average cost of that time.
	Count      int    `json:"count"`
}

// ComputeMonthlyStats returns the stats of the last MonthlyStatsWindow months
// that have at least one trade, in ascending month order.
func ComputeMonthlyStats(trades []Trade) []MonthlyStat {
	return ComputeMonthlyStatsWindow(trades, MonthlyStatsWindow)
}

// ComputeMonthlyStatsWindow is like ComputeMonthlyStats but returns the last n
// months. If n <= 0 every month is returned.
//
// The running average cost is built over the full history, so months older
// than the window still weigh on the P&L of the months that are returned.
func ComputeMonthlyStatsWindow(trades []Trade, n int) []MonthlyStat {
	j := newJournal(trades)

	months := make(map[string]*MonthlyStat)
	costs := make(pools)
	for _, e := range j.events {
		key := e.date().MonthKey()
		m, ok := months[key]
		if !ok {
			m = &MonthlyStat{Month: key}
			months[key] = m
		}
		pool := costs.get(e.stock())

		switch v := e.(type) {
		case acquire:
			pool.acquire(v.quantity, v.cost)
			m.BuyAmount = m.BuyAmount.Add(v.cost)
		case dispose:
			m.SellAmount = m.SellAmount.Add(v.proceeds)
			m.PnL = m.PnL.Add(v.proceeds.Sub(pool.costOf(v.quantity)))
		}
		m.Count++
	}

	keys := slices.Sorted(maps.Keys(months))
	if n > 0 && len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	res := make([]MonthlyStat, 0, len(keys))
	for _, k := range keys {
		res = append(res, *months[k])
	}
	return res
}
