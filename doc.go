// Package tradebook provides the types and functions of a personal stock
// trading journal. It is local-first: the book of records is a JSONL file
// that stays human-readable and version-controllable, and every derived value
// is recomputed from it on demand.
//
// The core functionalities include:
//   - Book Management: recording trades (a buy or a sell of some quantity of a
//     stock at a price) and roundtrips (a complete buy-then-sell cycle closed
//     on the same day) in an ordered collection.
//   - Position Aggregation: folding the chronological stream of trades into
//     per-stock holdings, blended average cost and realized profit and loss.
//   - Monthly Statistics: bucketing trades by calendar month with the
//     realized P&L of each month computed against the average cost prevailing
//     at the moment of each sell.
//   - Roundtrip Metrics: per-record and aggregate return percentages.
//   - Journal Notes: study notes, daily market diaries and settings kept in a
//     key-value store.
//
// Aggregation functions are pure: they take an explicit slice of records and
// return freshly computed values, with no validation and no retained state.
// Validation belongs to the input layer, see [ValidateRecord].
//
// This package serves as the foundational logic for the `tb` command-line
// tool and its companion HTTP server.
package tradebook
