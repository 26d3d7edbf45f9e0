package tradebook

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DecodeBook decodes records from a stream of JSONL data, one record per
// line, and returns them as a Book in the order of the stream.
func DecodeBook(r io.Reader) (*Book, error) {
	book := NewBook()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // images references can make long lines

	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		rec, err := DecodeRecord(lineBytes)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		book.Append(rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return book, nil
}

// DecodeRecord decodes a single JSON record using its "kind" field.
func DecodeRecord(data []byte) (Record, error) {
	var identifier struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &identifier); err != nil {
		return nil, fmt.Errorf("could not identify record kind in %q: %w", string(data), err)
	}

	switch identifier.Kind {
	case KindTrade:
		var t Trade
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("invalid trade: %w", err)
		}
		return t, nil
	case KindRoundtrip:
		var rt Roundtrip
		if err := json.Unmarshal(data, &rt); err != nil {
			return nil, fmt.Errorf("invalid roundtrip: %w", err)
		}
		return rt, nil
	default:
		return nil, fmt.Errorf("unknown record kind: %q", identifier.Kind)
	}
}

// EncodeRecord marshals a single record to JSON and writes it to the
// writer, followed by a newline, in JSONL format.
func EncodeRecord(w io.Writer, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record %q: %w", r.RecordID(), err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// EncodeBook writes every record of the book in JSONL format, in book order.
// Use Book.Fmt first to get the canonical date order.
func EncodeBook(w io.Writer, b *Book) error {
	for _, r := range b.records {
		if err := EncodeRecord(w, r); err != nil {
			return err
		}
	}
	return nil
}
