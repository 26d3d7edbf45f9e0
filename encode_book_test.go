package tradebook

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeBook(t *testing.T) {
	jsonlStream := `
{"kind":"trade","id":"t1","date":"2025-08-01","code":"AAPL","name":"Apple","side":"buy","quantity":10,"price":195.5,"memo":"first"}
{"kind":"roundtrip","id":"r1","date":"2025-08-02","name":"Tesla","quantity":5,"buyPrice":100,"sellPrice":98,"pnl":-10,"images":["a.png"]}

{"kind":"trade","id":"t2","date":"2025-8-3","code":"AAPL","side":"sell","quantity":"4","price":"200"}
`
	b, err := DecodeBook(strings.NewReader(jsonlStream))
	if err != nil {
		t.Fatalf("DecodeBook() error = %v", err)
	}
	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}

	want := []Record{
		NewTrade("t1", NewDate(2025, 8, 1), "AAPL", "Apple", Buy, Q(10), M(195.5), "first"),
		Roundtrip{
			stockRecord: stockRecord{baseRecord: baseRecord{ID: "r1", Date: NewDate(2025, 8, 2), Images: []string{"a.png"}}, StockName: "Tesla"},
			Quantity:    Q(5),
			BuyPrice:    M(100),
			SellPrice:   M(98),
			RealizedPnL: M(-10),
		},
		NewTrade("t2", NewDate(2025, 8, 3), "AAPL", "", Sell, Q(4), M(200), ""),
	}
	for i, r := range b.Records() {
		if !r.Equal(want[i]) {
			t.Errorf("record %d = %#v, want %#v", i, r, want[i])
		}
	}
}

func TestDecodeBook_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown kind", `{"kind":"deposit","id":"x","date":"2025-01-01"}`},
		{"missing kind", `{"id":"x","date":"2025-01-01"}`},
		{"bad json", `{"kind":`},
		{"bad date", `{"kind":"trade","id":"x","date":"01/02/2025"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeBook(strings.NewReader(tt.input)); err == nil {
				t.Errorf("DecodeBook(%q) error = nil, want an error", tt.input)
			}
		})
	}
}

func TestEncodeBook_RoundTrip(t *testing.T) {
	b := NewBook()
	b.Append(
		NewTrade("t1", NewDate(2025, 8, 3), "AAPL", "Apple", Sell, Q(4), M(200), ""),
		NewRoundtrip("r1", NewDate(2025, 8, 2), "", "Tesla", Q(5), M(100), M(98), "quick"),
		NewTrade("t0", NewDate(2025, 8, 1), "AAPL", "Apple", Buy, Q(10), M(195.5), "first"),
	)

	var buf bytes.Buffer
	if err := EncodeBook(&buf, b); err != nil {
		t.Fatalf("EncodeBook() error = %v", err)
	}
	want := `{"kind":"trade","id":"t1","date":"2025-08-03","code":"AAPL","name":"Apple","side":"sell","quantity":4,"price":200}
{"kind":"roundtrip","id":"r1","date":"2025-08-02","memo":"quick","name":"Tesla","quantity":5,"buyPrice":100,"sellPrice":98,"pnl":-10}
{"kind":"trade","id":"t0","date":"2025-08-01","memo":"first","code":"AAPL","name":"Apple","side":"buy","quantity":10,"price":195.5}
`
	if got := buf.String(); got != want {
		t.Errorf("EncodeBook() =\n%s\nwant\n%s", got, want)
	}

	decoded, err := DecodeBook(&buf)
	if err != nil {
		t.Fatalf("DecodeBook() error = %v", err)
	}
	for i, r := range decoded.Records() {
		if !r.Equal(b.Records()[i]) {
			t.Errorf("record %d = %v, want %v", i, r, b.Records()[i])
		}
	}
}

func TestLoadSaveBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "book.jsonl")

	empty, err := LoadBook(path)
	if err != nil {
		t.Fatalf("LoadBook(missing) error = %v", err)
	}
	if empty.Len() != 0 {
		t.Errorf("LoadBook(missing).Len() = %d, want 0", empty.Len())
	}

	b := NewBook()
	b.Append(NewBuy(jan, "X", "", Q(1), M(2)), NewSell(feb, "X", "", Q(1), M(3)))
	if err := SaveBook(path, b); err != nil {
		t.Fatalf("SaveBook() error = %v", err)
	}
	loaded, err := LoadBook(path)
	if err != nil {
		t.Fatalf("LoadBook() error = %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("LoadBook().Len() = %d, want 2", loaded.Len())
	}
	for i, r := range loaded.Records() {
		if !r.Equal(b.Records()[i]) {
			t.Errorf("record %d = %v, want %v", i, r, b.Records()[i])
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("SaveBook() left %d files, want 1", len(entries))
	}
}
