package tradebook

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is wrapped by every error returned by ValidateRecord.
var ErrInvalidRecord = errors.New("invalid record")

// ValidateRecord checks a record as entered by a user.
// It returns an error listing every problem found.
//
// The aggregation functions never validate: they accept any record.
func ValidateRecord(r Record) error {
	var errs []error
	if r.When().IsZero() {
		errs = append(errs, errors.New("date is missing"))
	}
	if r.Key() == "" {
		errs = append(errs, errors.New("stock code or name is required"))
	}

	switch v := r.(type) {
	case Trade:
		if v.Side != Buy && v.Side != Sell {
			errs = append(errs, fmt.Errorf("unknown side %q", v.Side))
		}
		if !v.Quantity.IsPositive() {
			errs = append(errs, fmt.Errorf("quantity must be positive, got %v", v.Quantity))
		}
		if !v.Price.IsPositive() {
			errs = append(errs, fmt.Errorf("price must be positive, got %v", v.Price))
		}
	case Roundtrip:
		if !v.Quantity.IsPositive() {
			errs = append(errs, fmt.Errorf("quantity must be positive, got %v", v.Quantity))
		}
		if !v.BuyPrice.IsPositive() {
			errs = append(errs, fmt.Errorf("buy price must be positive, got %v", v.BuyPrice))
		}
		if !v.SellPrice.IsPositive() {
			errs = append(errs, fmt.Errorf("sell price must be positive, got %v", v.SellPrice))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported record type %T", r))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q on %v: %w", ErrInvalidRecord, r.RecordID(), r.When(), errors.Join(errs...))
}
