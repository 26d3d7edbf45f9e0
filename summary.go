package tradebook

// Summary is the dashboard view of a book.
type Summary struct {
	Records          int     `json:"records"`
	Trades           int     `json:"trades"`
	Roundtrips       int     `json:"roundtrips"`
	OpenPositions    int     `json:"openPositions"` // positions with a non zero holding
	TotalBuyCost     Money   `json:"totalBuyCost"`
	TotalSellRevenue Money   `json:"totalSellRevenue"`
	TradePnL         Money   `json:"tradePnL"`
	RoundtripPnL     Money   `json:"roundtripPnL"`
	TotalPnL         Money   `json:"totalPnL"`
	AggregateReturn  Percent `json:"aggregateReturn"`
	WinRate          Percent `json:"winRate"`
	First            Date    `json:"first"`
	Last             Date    `json:"last"`
}

// NewSummary computes the summary of a book.
func NewSummary(b *Book) Summary {
	trades, rts := b.Trades(), b.Roundtrips()
	s := Summary{
		Records:         b.Len(),
		Trades:          len(trades),
		Roundtrips:      len(rts),
		RoundtripPnL:    TotalRoundtripPnL(rts),
		AggregateReturn: AggregateReturn(rts),
		WinRate:         WinRate(rts),
	}
	s.First, s.Last = b.Range()

	for _, p := range ComputePositions(trades) {
		if !p.HoldingQuantity.IsZero() {
			s.OpenPositions++
		}
		s.TotalBuyCost = s.TotalBuyCost.Add(p.TotalBuyCost)
		s.TotalSellRevenue = s.TotalSellRevenue.Add(p.TotalSellRevenue)
		s.TradePnL = s.TradePnL.Add(p.RealizedPnL)
	}
	s.TotalPnL = s.TradePnL.Add(s.RoundtripPnL)
	return s
}
