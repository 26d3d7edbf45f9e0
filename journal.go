package tradebook

import (
	"slices"
	"sort"
)

// event represents a single, atomic step in a stock's history.
// It is the lowest-level fact from which positions and statistics are derived.
type event interface {
	date() Date
	stock() string
}

// acquire adds units of a stock at a total cost.
type acquire struct {
	on       Date
	key      string
	quantity Quantity
	cost     Money
}

func (e acquire) date() Date     { return e.on }
func (e acquire) stock() string { return e.key }

// dispose removes units of a stock for total proceeds.
type dispose struct {
	on       Date
	key      string
	quantity Quantity
	proceeds Money
}

func (e dispose) date() Date     { return e.on }
func (e dispose) stock() string { return e.key }

// journal holds a chronologically sorted list of events.
type journal struct {
	events []event // sorted by date, same-day events keep the input order.
}

// newJournal converts trades into a journal of atomic events.
//
// The trades are stable sorted by date: trades on the same date keep their
// relative input order, which is the book insertion order. The input slice
// is not modified. Trades with an unknown side produce no event.
func newJournal(trades []Trade) *journal {
	sorted := slices.Clone(trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].When().Before(sorted[j].When())
	})

	j := &journal{events: make([]event, 0, len(sorted))}
	for _, t := range sorted {
		switch t.Side {
		case Buy:
			j.events = append(j.events, acquire{on: t.When(), key: t.Key(), quantity: t.Quantity, cost: t.Amount()})
		case Sell:
			j.events = append(j.events, dispose{on: t.When(), key: t.Key(), quantity: t.Quantity, proceeds: t.Amount()})
		}
	}
	return j
}

// costPool is the running average cost of one stock.
//
// It is a single blended pool: buys grow it and recompute the average, sells
// read the average and never reduce the pool.
type costPool struct {
	quantity Quantity // cumulative units bought
	cost     Money    // cumulative cost of the units bought
	average  Money    // cost / quantity, zero until the first buy
}

// acquire adds a buy to the pool and recomputes the average cost.
func (p *costPool) acquire(quantity Quantity, cost Money) {
	p.cost = p.cost.Add(cost)
	p.quantity = p.quantity.Add(quantity)
	p.average = p.cost.Div(p.quantity)
}

// costOf returns the cost basis of a quantity at the current average cost.
func (p *costPool) costOf(quantity Quantity) Money {
	return p.average.Mul(quantity)
}

// pools indexes cost pools by stock key.
type pools map[string]*costPool

func (ps pools) get(key string) *costPool {
	p, ok := ps[key]
	if !ok {
		p = new(costPool)
		ps[key] = p
	}
	return p
}
