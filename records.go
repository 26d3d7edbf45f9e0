package tradebook

import (
	"encoding/json"
	"slices"
)

// Kind identifies the variant of a Record.
type Kind string

// Record kinds as persisted in the book file.
const (
	KindTrade     Kind = "trade"
	KindRoundtrip Kind = "roundtrip"
)

// Side is the direction of a Trade.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Record is an entry of the book.
//
// It is a closed set of variants: a Trade (one buy or one sell) or a
// Roundtrip (a buy and a sell closed on the same day). Code that needs the
// variant specific fields must switch on the concrete type.
type Record interface {
	RecordID() string // RecordID returns the identifier, stable across edits.
	What() Kind       // What returns the variant of the record.
	When() Date       // When returns the date of the record.
	Key() string      // Key returns the stock key used to group records.
	Equal(Record) bool

	withID(id string) Record
}

// StockKey returns the grouping key of a stock: its code when present,
// otherwise its name.
//
// A stock recorded sometimes with a code and sometimes without one ends up
// under two different keys. This is a known limitation, kept on purpose.
func StockKey(code, name string) string {
	if code != "" {
		return code
	}
	return name
}

// baseRecord holds the fields shared by all record variants.
type baseRecord struct {
	ID     string   `json:"id"`
	Date   Date     `json:"date"`
	Memo   string   `json:"memo,omitempty"`   // Memo is free text, for display only.
	Images []string `json:"images,omitempty"` // Images are attachment references, for display only.
}

// RecordID returns the record identifier.
func (r baseRecord) RecordID() string { return r.ID }

// When returns the date of the record.
func (r baseRecord) When() Date { return r.Date }

func (r baseRecord) equal(o baseRecord) bool {
	return r.ID == o.ID && r.Date == o.Date && r.Memo == o.Memo && slices.Equal(r.Images, o.Images)
}

func (r baseRecord) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", r.ID)
	w.Append("date", r.Date)
	w.Optional("memo", r.Memo)
	w.Optional("images", r.Images)
	return w.MarshalJSON()
}

// stockRecord is the component for records about a single stock.
type stockRecord struct {
	baseRecord
	StockCode string `json:"code,omitempty"` // StockCode is the ticker, possibly empty.
	StockName string `json:"name,omitempty"` // StockName is the display name of the stock.
}

// Key returns the stock key of the record.
func (r stockRecord) Key() string { return StockKey(r.StockCode, r.StockName) }

func (r stockRecord) equal(o stockRecord) bool {
	return r.baseRecord.equal(o.baseRecord) && r.StockCode == o.StockCode && r.StockName == o.StockName
}

func (r stockRecord) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(r.baseRecord)
	w.Optional("code", r.StockCode)
	w.Optional("name", r.StockName)
	return w.MarshalJSON()
}

// Trade records a single buy or sell of a stock.
type Trade struct {
	stockRecord
	Side     Side     // Side is either Buy or Sell.
	Quantity Quantity // Quantity is the number of units traded.
	Price    Money    // Price is the unit price.
}

// NewTrade creates a new Trade. An empty id is assigned when the trade is appended to a Book.
func NewTrade(id string, day Date, code, name string, side Side, quantity Quantity, price Money, memo string) Trade {
	return Trade{
		stockRecord: stockRecord{baseRecord: baseRecord{ID: id, Date: day, Memo: memo}, StockCode: code, StockName: name},
		Side:        side,
		Quantity:    quantity,
		Price:       price,
	}
}

// NewBuy creates a new buy Trade.
func NewBuy(day Date, code, name string, quantity Quantity, price Money) Trade {
	return NewTrade("", day, code, name, Buy, quantity, price, "")
}

// NewSell creates a new sell Trade.
func NewSell(day Date, code, name string, quantity Quantity, price Money) Trade {
	return NewTrade("", day, code, name, Sell, quantity, price, "")
}

// What returns KindTrade.
func (t Trade) What() Kind { return KindTrade }

// Amount returns price times quantity.
func (t Trade) Amount() Money { return t.Price.Mul(t.Quantity) }

func (t Trade) withID(id string) Record { t.ID = id; return t }

func (t Trade) Equal(other Record) bool {
	o, ok := other.(Trade)
	return ok && t.stockRecord.equal(o.stockRecord) && t.Side == o.Side && t.Quantity.Equal(o.Quantity) && t.Price.Equal(o.Price)
}

// MarshalJSON implements the json.Marshaler interface for Trade.
func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", KindTrade)
	w.EmbedFrom(t.stockRecord)
	w.Append("side", t.Side)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Trade.
func (t *Trade) UnmarshalJSON(data []byte) error {
	var temp struct {
		stockRecord
		Side     Side     `json:"side"`
		Quantity Quantity `json:"quantity"`
		Price    Money    `json:"price"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	t.stockRecord = temp.stockRecord
	t.Side = temp.Side
	t.Quantity = temp.Quantity
	t.Price = temp.Price
	return nil
}

// Roundtrip records a complete buy-then-sell cycle closed on the same day.
//
// Unlike a pair of Trades, a Roundtrip carries its realized P&L, computed
// once when the record is created.
type Roundtrip struct {
	stockRecord
	Quantity    Quantity // Quantity is the number of units bought then sold.
	BuyPrice    Money    // BuyPrice is the entry unit price.
	SellPrice   Money    // SellPrice is the exit unit price.
	RealizedPnL Money    // RealizedPnL is the precomputed profit or loss of the cycle.
}

// NewRoundtrip creates a new Roundtrip with RealizedPnL = (sell - buy) * quantity.
func NewRoundtrip(id string, day Date, code, name string, quantity Quantity, buyPrice, sellPrice Money, memo string) Roundtrip {
	return Roundtrip{
		stockRecord: stockRecord{baseRecord: baseRecord{ID: id, Date: day, Memo: memo}, StockCode: code, StockName: name},
		Quantity:    quantity,
		BuyPrice:    buyPrice,
		SellPrice:   sellPrice,
		RealizedPnL: sellPrice.Sub(buyPrice).Mul(quantity),
	}
}

// What returns KindRoundtrip.
func (r Roundtrip) What() Kind { return KindRoundtrip }

func (r Roundtrip) withID(id string) Record { r.ID = id; return r }

func (r Roundtrip) Equal(other Record) bool {
	o, ok := other.(Roundtrip)
	return ok && r.stockRecord.equal(o.stockRecord) && r.Quantity.Equal(o.Quantity) &&
		r.BuyPrice.Equal(o.BuyPrice) && r.SellPrice.Equal(o.SellPrice) && r.RealizedPnL.Equal(o.RealizedPnL)
}

// MarshalJSON implements the json.Marshaler interface for Roundtrip.
func (r Roundtrip) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", KindRoundtrip)
	w.EmbedFrom(r.stockRecord)
	w.Append("quantity", r.Quantity)
	w.Append("buyPrice", r.BuyPrice)
	w.Append("sellPrice", r.SellPrice)
	w.Append("pnl", r.RealizedPnL)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Roundtrip.
func (r *Roundtrip) UnmarshalJSON(data []byte) error {
	var temp struct {
		stockRecord
		Quantity    Quantity `json:"quantity"`
		BuyPrice    Money    `json:"buyPrice"`
		SellPrice   Money    `json:"sellPrice"`
		RealizedPnL Money    `json:"pnl"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	r.stockRecord = temp.stockRecord
	r.Quantity = temp.Quantity
	r.BuyPrice = temp.BuyPrice
	r.SellPrice = temp.SellPrice
	r.RealizedPnL = temp.RealizedPnL
	return nil
}
