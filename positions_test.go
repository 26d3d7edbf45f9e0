package tradebook

import (
	"math/rand"
	"slices"
	"testing"
)

var (
	jan = NewDate(2025, 1, 10)
	feb = NewDate(2025, 2, 10)
	mar = NewDate(2025, 3, 10)
)

// checkPosition asserts every monetary and quantity field of a position.
func checkPosition(t *testing.T, positions []StockPosition, key string, buyQ, sellQ, holding float64, avg, cost, revenue, pnl float64) {
	t.Helper()
	p, ok := Position(positions, key)
	if !ok {
		t.Fatalf("position %q not found in %v", key, positions)
	}
	if !p.BuyQuantity.Equal(Q(buyQ)) {
		t.Errorf("%s BuyQuantity = %v, want %v", key, p.BuyQuantity, buyQ)
	}
	if !p.SellQuantity.Equal(Q(sellQ)) {
		t.Errorf("%s SellQuantity = %v, want %v", key, p.SellQuantity, sellQ)
	}
	if !p.HoldingQuantity.Equal(Q(holding)) {
		t.Errorf("%s HoldingQuantity = %v, want %v", key, p.HoldingQuantity, holding)
	}
	if got := p.AvgBuyPrice.Round(3); !got.Equal(M(avg)) {
		t.Errorf("%s AvgBuyPrice = %v, want %v", key, got, avg)
	}
	if !p.TotalBuyCost.Equal(M(cost)) {
		t.Errorf("%s TotalBuyCost = %v, want %v", key, p.TotalBuyCost, cost)
	}
	if !p.TotalSellRevenue.Equal(M(revenue)) {
		t.Errorf("%s TotalSellRevenue = %v, want %v", key, p.TotalSellRevenue, revenue)
	}
	if got := p.RealizedPnL.Round(2); !got.Equal(M(pnl)) {
		t.Errorf("%s RealizedPnL = %v, want %v", key, got, pnl)
	}
}

// equalPositions compares positions by value.
func equalPositions(a, b []StockPosition) bool {
	return slices.EqualFunc(a, b, func(x, y StockPosition) bool {
		return x.Key == y.Key &&
			x.BuyQuantity.Equal(y.BuyQuantity) &&
			x.SellQuantity.Equal(y.SellQuantity) &&
			x.HoldingQuantity.Equal(y.HoldingQuantity) &&
			x.AvgBuyPrice.Equal(y.AvgBuyPrice) &&
			x.TotalBuyCost.Equal(y.TotalBuyCost) &&
			x.TotalSellRevenue.Equal(y.TotalSellRevenue) &&
			x.RealizedPnL.Equal(y.RealizedPnL)
	})
}

func TestComputePositions_WorkedExample(t *testing.T) {
	trades := []Trade{
		NewBuy(jan, "X", "", Q(100), M(10)),
		NewBuy(feb, "X", "", Q(50), M(12)),
		NewSell(mar, "X", "", Q(80), M(15)),
	}
	positions := ComputePositions(trades)
	if len(positions) != 1 {
		t.Fatalf("len(ComputePositions()) = %d, want 1", len(positions))
	}
	checkPosition(t, positions, "X", 150, 80, 70, 10.667, 1600, 1200, 346.67)
}

func TestComputePositions_ZeroCostBasisSell(t *testing.T) {
	positions := ComputePositions([]Trade{NewSell(jan, "Y", "", Q(10), M(5))})
	checkPosition(t, positions, "Y", 0, 10, -10, 0, 0, 50, 50)
}

func TestComputePositions_OneEntryPerKey(t *testing.T) {
	trades := []Trade{
		NewBuy(jan, "B", "", Q(1), M(1)),
		NewBuy(jan, "A", "", Q(1), M(1)),
		NewSell(feb, "B", "", Q(1), M(2)),
		NewBuy(mar, "", "Cee", Q(1), M(1)),
	}
	positions := ComputePositions(trades)
	var keys []string
	for _, p := range positions {
		keys = append(keys, p.Key)
	}
	if want := []string{"A", "B", "Cee"}; !slices.Equal(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestComputePositions_Empty(t *testing.T) {
	if got := ComputePositions(nil); len(got) != 0 {
		t.Errorf("ComputePositions(nil) = %v, want empty", got)
	}
}

func TestComputePositions_Conservation(t *testing.T) {
	trades := []Trade{
		NewBuy(jan, "Z", "", Q(3), M(10.5)),
		NewBuy(feb, "Z", "", Q(7), M(11.25)),
		NewBuy(mar, "Z", "", Q(0.5), M(9.99)),
	}
	var cost Money
	for _, t := range trades {
		cost = cost.Add(t.Price.Mul(t.Quantity))
	}
	p, _ := Position(ComputePositions(trades), "Z")
	if !p.TotalBuyCost.Equal(cost) {
		t.Errorf("TotalBuyCost = %v, want %v", p.TotalBuyCost, cost)
	}
	if !p.HoldingQuantity.Equal(p.BuyQuantity) {
		t.Errorf("HoldingQuantity = %v, want %v", p.HoldingQuantity, p.BuyQuantity)
	}
	if !p.RealizedPnL.IsZero() {
		t.Errorf("RealizedPnL = %v, want 0", p.RealizedPnL)
	}
}

func TestComputePositions_Idempotent(t *testing.T) {
	trades := []Trade{
		NewBuy(feb, "X", "", Q(50), M(12)),
		NewSell(mar, "X", "", Q(80), M(15)),
		NewBuy(jan, "X", "", Q(100), M(10)),
	}
	input := slices.Clone(trades)
	first := ComputePositions(trades)
	second := ComputePositions(trades)
	if !equalPositions(first, second) {
		t.Errorf("ComputePositions() is not idempotent: %v then %v", first, second)
	}
	for i := range trades {
		if !trades[i].Equal(input[i]) {
			t.Errorf("input trade %d was modified: %v, want %v", i, trades[i], input[i])
		}
	}
}

func TestComputePositions_UnsortedInput(t *testing.T) {
	sorted := []Trade{
		NewBuy(jan, "X", "", Q(100), M(10)),
		NewBuy(feb, "X", "", Q(50), M(12)),
		NewSell(mar, "X", "", Q(80), M(15)),
	}
	unsorted := []Trade{sorted[2], sorted[0], sorted[1]}
	if got, want := ComputePositions(unsorted), ComputePositions(sorted); !equalPositions(got, want) {
		t.Errorf("ComputePositions(unsorted) = %v, want %v", got, want)
	}
}

func TestComputePositions_SameDayKeepsInputOrder(t *testing.T) {
	// A sell before a buy on the same day is realized at a zero average cost.
	trades := []Trade{
		NewSell(jan, "X", "", Q(10), M(5)),
		NewBuy(jan, "X", "", Q(10), M(4)),
	}
	checkPosition(t, ComputePositions(trades), "X", 10, 10, 0, 4, 40, 50, 50)

	slices.Reverse(trades)
	checkPosition(t, ComputePositions(trades), "X", 10, 10, 0, 4, 40, 50, 10)
}

func TestComputePositions_InterleavingStocks(t *testing.T) {
	x := []Trade{
		NewBuy(NewDate(2025, 1, 1), "X", "", Q(100), M(10)),
		NewSell(NewDate(2025, 1, 5), "X", "", Q(30), M(14)),
		NewBuy(NewDate(2025, 1, 9), "X", "", Q(10), M(8)),
		NewSell(NewDate(2025, 1, 20), "X", "", Q(50), M(9)),
	}
	y := []Trade{
		NewBuy(NewDate(2025, 1, 2), "Y", "", Q(5), M(100)),
		NewSell(NewDate(2025, 1, 21), "Y", "", Q(5), M(90)),
	}
	want := ComputePositions(append(slices.Clone(x), y...))

	rnd := rand.New(rand.NewSource(1))
	for i := range 20 {
		all := append(slices.Clone(x), y...)
		rnd.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		if got := ComputePositions(all); !equalPositions(got, want) {
			t.Errorf("shuffle %d: ComputePositions() = %v, want %v", i, got, want)
		}
	}

	alone, _ := Position(ComputePositions(x), "X")
	together, _ := Position(want, "X")
	if !equalPositions([]StockPosition{alone}, []StockPosition{together}) {
		t.Errorf("X alone = %v, X with Y = %v", alone, together)
	}
}

func TestComputePositions_ReorderWithinStock(t *testing.T) {
	// Permuting buys among buys and sells among sells, all buys first,
	// yields the same realized P&L.
	a := []Trade{
		NewBuy(NewDate(2025, 1, 1), "X", "", Q(100), M(10)),
		NewBuy(NewDate(2025, 1, 2), "X", "", Q(50), M(12)),
		NewSell(NewDate(2025, 1, 3), "X", "", Q(80), M(15)),
		NewSell(NewDate(2025, 1, 4), "X", "", Q(20), M(9)),
	}
	b := []Trade{
		NewBuy(NewDate(2025, 1, 1), "X", "", Q(50), M(12)),
		NewBuy(NewDate(2025, 1, 2), "X", "", Q(100), M(10)),
		NewSell(NewDate(2025, 1, 3), "X", "", Q(20), M(9)),
		NewSell(NewDate(2025, 1, 4), "X", "", Q(80), M(15)),
	}
	pa, _ := Position(ComputePositions(a), "X")
	pb, _ := Position(ComputePositions(b), "X")
	if !pa.RealizedPnL.Round(8).Equal(pb.RealizedPnL.Round(8)) {
		t.Errorf("RealizedPnL = %v and %v, want equal", pa.RealizedPnL, pb.RealizedPnL)
	}

	// Moving a buy across a sell changes the average cost used by the sell.
	c := []Trade{
		NewBuy(NewDate(2025, 1, 1), "X", "", Q(10), M(10)),
		NewSell(NewDate(2025, 1, 2), "X", "", Q(10), M(20)),
		NewBuy(NewDate(2025, 1, 3), "X", "", Q(10), M(30)),
	}
	d := []Trade{
		NewBuy(NewDate(2025, 1, 1), "X", "", Q(10), M(10)),
		NewBuy(NewDate(2025, 1, 2), "X", "", Q(10), M(30)),
		NewSell(NewDate(2025, 1, 3), "X", "", Q(10), M(20)),
	}
	checkPosition(t, ComputePositions(c), "X", 20, 10, 10, 20, 400, 200, 100)
	checkPosition(t, ComputePositions(d), "X", 20, 10, 10, 20, 400, 200, 0)
}

func TestComputePositions_KeySplit(t *testing.T) {
	trades := []Trade{
		NewBuy(jan, "AAPL", "Apple", Q(10), M(100)),
		NewSell(feb, "", "Apple", Q(10), M(120)),
	}
	positions := ComputePositions(trades)
	if len(positions) != 2 {
		t.Fatalf("len(ComputePositions()) = %d, want 2", len(positions))
	}
	checkPosition(t, positions, "AAPL", 10, 0, 10, 100, 1000, 0, 0)
	checkPosition(t, positions, "Apple", 0, 10, -10, 0, 0, 1200, 1200)
}

func TestComputePositions_OverSell(t *testing.T) {
	trades := []Trade{
		NewBuy(jan, "X", "", Q(10), M(10)),
		NewSell(feb, "X", "", Q(15), M(12)),
		NewBuy(mar, "X", "", Q(10), M(14)),
	}
	checkPosition(t, ComputePositions(trades), "X", 20, 15, 5, 12, 240, 180, 30)
}

func TestComputePositions_UnknownSideIgnored(t *testing.T) {
	trades := []Trade{
		NewBuy(jan, "X", "", Q(10), M(10)),
		NewTrade("", feb, "X", "", Side("hold"), Q(10), M(99), ""),
	}
	checkPosition(t, ComputePositions(trades), "X", 10, 0, 10, 10, 100, 0, 0)
}
