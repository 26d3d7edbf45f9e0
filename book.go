package tradebook

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record id is not in the book.
var ErrNotFound = errors.New("record not found")

// Book is the ordered list of records of a trading journal.
//
// Records are kept in insertion order. That order is the tie-break between
// records with the same date, and it is preserved by every operation,
// including Fmt.
type Book struct {
	records []Record
	index   map[string]int // index records position by id
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		records: make([]Record, 0),
		index:   make(map[string]int),
	}
}

// Append appends records to the book. Records without an id are given a new one.
// It returns the records as stored.
func (b *Book) Append(records ...Record) []Record {
	stored := make([]Record, 0, len(records))
	for _, r := range records {
		if r.RecordID() == "" {
			r = r.withID(uuid.NewString())
		}
		b.index[r.RecordID()] = len(b.records)
		b.records = append(b.records, r)
		stored = append(stored, r)
	}
	return stored
}

// Replace replaces the record that has the same id, keeping its position in the book.
func (b *Book) Replace(r Record) error {
	i, ok := b.index[r.RecordID()]
	if !ok {
		return fmt.Errorf("cannot replace %q: %w", r.RecordID(), ErrNotFound)
	}
	b.records[i] = r
	return nil
}

// Delete removes the record with this id.
func (b *Book) Delete(id string) error {
	i, ok := b.index[id]
	if !ok {
		return fmt.Errorf("cannot delete %q: %w", id, ErrNotFound)
	}
	b.records = slices.Delete(b.records, i, i+1)
	b.reindex()
	return nil
}

func (b *Book) reindex() {
	clear(b.index)
	for i, r := range b.records {
		b.index[r.RecordID()] = i
	}
}

// Get returns the record with this id.
func (b *Book) Get(id string) (Record, bool) {
	i, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return b.records[i], true
}

// Len returns the number of records.
func (b *Book) Len() int { return len(b.records) }

// Records returns a copy of the records in insertion order.
func (b *Book) Records() []Record { return slices.Clone(b.records) }

// All returns an iterator over the records in insertion order.
func (b *Book) All() iter.Seq[Record] { return slices.Values(b.records) }

// Trades returns the Trade records in insertion order.
func (b *Book) Trades() []Trade {
	var res []Trade
	for _, r := range b.records {
		switch v := r.(type) {
		case Trade:
			res = append(res, v)
		case Roundtrip:
		}
	}
	return res
}

// Roundtrips returns the Roundtrip records in insertion order.
func (b *Book) Roundtrips() []Roundtrip {
	var res []Roundtrip
	for _, r := range b.records {
		switch v := r.(type) {
		case Roundtrip:
			res = append(res, v)
		case Trade:
		}
	}
	return res
}

// Fmt returns a copy of the book with records sorted by date.
// The sort is stable: records of the same day keep their relative order.
func (b *Book) Fmt() *Book {
	sorted := slices.Clone(b.records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].When().Before(sorted[j].When())
	})
	res := NewBook()
	res.Append(sorted...)
	return res
}

// Range returns the dates of the oldest and newest records.
// Both dates are zero for an empty book.
func (b *Book) Range() (oldest, newest Date) {
	for i, r := range b.records {
		d := r.When()
		if i == 0 || d.Before(oldest) {
			oldest = d
		}
		if i == 0 || d.After(newest) {
			newest = d
		}
	}
	return
}
