package tradebook

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// csvRow is one line of the CSV export. Fields that do not apply to a
// record kind are left empty.
type csvRow struct {
	ID        string `csv:"id"`
	Kind      Kind   `csv:"kind"`
	Date      string `csv:"date"`
	Code      string `csv:"code"`
	Name      string `csv:"name"`
	Side      Side   `csv:"side"`
	Quantity  string `csv:"quantity"`
	Price     string `csv:"price"`
	BuyPrice  string `csv:"buy_price"`
	SellPrice string `csv:"sell_price"`
	PnL       string `csv:"pnl"`
	Memo      string `csv:"memo"`
}

func newCSVRow(r Record) (csvRow, error) {
	row := csvRow{ID: r.RecordID(), Kind: r.What(), Date: r.When().String()}
	switch v := r.(type) {
	case Trade:
		row.Code, row.Name, row.Memo = v.StockCode, v.StockName, v.Memo
		row.Side = v.Side
		row.Quantity = v.Quantity.String()
		row.Price = v.Price.Decimal().String()
	case Roundtrip:
		row.Code, row.Name, row.Memo = v.StockCode, v.StockName, v.Memo
		row.Quantity = v.Quantity.String()
		row.BuyPrice = v.BuyPrice.Decimal().String()
		row.SellPrice = v.SellPrice.Decimal().String()
		row.PnL = v.RealizedPnL.Decimal().String()
	default:
		return row, fmt.Errorf("unsupported record type %T", r)
	}
	return row, nil
}

// ExportCSV writes every record of the book as CSV, in book order, with a header line.
func ExportCSV(w io.Writer, b *Book) error {
	rows := make([]*csvRow, 0, b.Len())
	for r := range b.All() {
		row, err := newCSVRow(r)
		if err != nil {
			return err
		}
		rows = append(rows, &row)
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("could not export csv: %w", err)
	}
	return nil
}
