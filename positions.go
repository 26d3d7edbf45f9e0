package tradebook

import (
	"maps"
	"slices"
)

// StockPosition is the running position of a single stock derived from its trades.
type StockPosition struct {
	Key              string   `json:"key"`
	BuyQuantity      Quantity `json:"buyQuantity"`
	SellQuantity     Quantity `json:"sellQuantity"`
	HoldingQuantity  Quantity `json:"holdingQuantity"` // may be negative when sells exceed buys.
	AvgBuyPrice      Money    `json:"avgBuyPrice"`
	TotalBuyCost     Money    `json:"totalBuyCost"`
	TotalSellRevenue Money    `json:"totalSellRevenue"`
	RealizedPnL      Money    `json:"realizedPnL"`
}

// ComputePositions returns one StockPosition per distinct stock key, sorted by key.
//
// Trades are processed in date order (see newJournal). A buy adds to the
// cost pool and recomputes the average buy price. A sell realizes
// (price - average) * quantity using the average as it stands at that sell.
// A stock sold without any prior buy has an average of zero, so its realized
// P&L is the full sell revenue. Over-selling is not rejected.
func ComputePositions(trades []Trade) []StockPosition {
	j := newJournal(trades)

	positions := make(map[string]*StockPosition)
	get := func(key string) *StockPosition {
		p, ok := positions[key]
		if !ok {
			p = &StockPosition{Key: key}
			positions[key] = p
		}
		return p
	}

	costs := make(pools)
	for _, e := range j.events {
		p, pool := get(e.stock()), costs.get(e.stock())
		switch v := e.(type) {
		case acquire:
			pool.acquire(v.quantity, v.cost)
			p.BuyQuantity = pool.quantity
			p.TotalBuyCost = pool.cost
			p.AvgBuyPrice = pool.average
		case dispose:
			p.SellQuantity = p.SellQuantity.Add(v.quantity)
			p.TotalSellRevenue = p.TotalSellRevenue.Add(v.proceeds)
			p.RealizedPnL = p.RealizedPnL.Add(v.proceeds.Sub(pool.costOf(v.quantity)))
		}
		p.HoldingQuantity = p.BuyQuantity.Sub(p.SellQuantity)
	}

	res := make([]StockPosition, 0, len(positions))
	for _, key := range slices.Sorted(maps.Keys(positions)) {
		res = append(res, *positions[key])
	}
	return res
}

// Position returns the position of a stock key in a list returned by ComputePositions.
func Position(positions []StockPosition, key string) (StockPosition, bool) {
	for _, p := range positions {
		if p.Key == key {
			return p, true
		}
	}
	return StockPosition{}, false
}
