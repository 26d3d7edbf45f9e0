package tradebook

import (
	"gonum.org/v1/gonum/stat"
)

// RoundtripMetrics are the amounts and return of a single Roundtrip.
type RoundtripMetrics struct {
	BuyAmount  Money   `json:"buyAmount"`
	SellAmount Money   `json:"sellAmount"`
	ReturnPct  Percent `json:"returnPct"`
}

// Metrics computes the amounts and the return of the roundtrip.
//
// The return is RealizedPnL / BuyAmount * 100. A roundtrip with no
// investment (BuyAmount <= 0) reports a 0% return.
func (r Roundtrip) Metrics() RoundtripMetrics {
	m := RoundtripMetrics{
		BuyAmount:  r.BuyPrice.Mul(r.Quantity),
		SellAmount: r.SellPrice.Mul(r.Quantity),
	}
	if m.BuyAmount.IsPositive() {
		pct, _ := r.RealizedPnL.Ratio(m.BuyAmount).Shift(2).Float64()
		m.ReturnPct = Percent(pct)
	}
	return m
}

// qualifying returns the metrics of the roundtrips that have a positive investment.
func qualifying(rts []Roundtrip) []RoundtripMetrics {
	var res []RoundtripMetrics
	for _, r := range rts {
		if m := r.Metrics(); m.BuyAmount.IsPositive() {
			res = append(res, m)
		}
	}
	return res
}

// AggregateReturn is the arithmetic mean of the returns of every roundtrip
// with a positive investment. It is 0 when none qualifies.
//
// The mean is unweighted: a small and a large roundtrip count the same.
func AggregateReturn(rts []Roundtrip) Percent {
	ms := qualifying(rts)
	if len(ms) == 0 {
		return 0
	}
	returns := make([]float64, len(ms))
	for i, m := range ms {
		returns[i] = float64(m.ReturnPct)
	}
	return Percent(stat.Mean(returns, nil))
}

// WinRate is the percentage of roundtrips with a positive investment that
// realized a strictly positive P&L.
func WinRate(rts []Roundtrip) Percent {
	var total, wins float64
	for _, r := range rts {
		if !r.Metrics().BuyAmount.IsPositive() {
			continue
		}
		total++
		if r.RealizedPnL.IsPositive() {
			wins++
		}
	}
	if total == 0 {
		return 0
	}
	return Percent(wins / total * 100)
}

// TotalRoundtripPnL sums the realized P&L of all roundtrips.
func TotalRoundtripPnL(rts []Roundtrip) Money {
	var total Money
	for _, r := range rts {
		total = total.Add(r.RealizedPnL)
	}
	return total
}
