package booking

import (
	"errors"
	"time"

	"roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/daterange"
)

var (
	ErrEmptyRange      = errors.New("booking: stay selection requires a date range")
	ErrZeroQuantity    = errors.New("booking: quantity must be positive")
	ErrDateRequired    = errors.New("booking: a date is required")
	ErrCheckInInPast   = errors.New("booking: check-in date is in the past")
	ErrDateInPast      = errors.New("booking: selected date is in the past")
)

// Selection captures what the guest picked for an item. Which fields
// matter depends on the item variant: stays use the range, events use
// Date plus Quantity as tickets, experiences use Date plus Quantity as
// guests.
type Selection struct {
	CheckIn  time.Time
	CheckOut time.Time
	Date     time.Time
	Quantity int
}

// Range returns the stay interval. Callers must have validated first.
func (s Selection) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: daterange.Day(s.CheckIn), CheckOut: daterange.Day(s.CheckOut)}
}

// Nights is the stay length under half-open semantics; zero for
// non-stay selections or inverted ranges.
func (s Selection) Nights() int {
	r := s.Range()
	if r.Validate() != nil {
		return 0
	}
	return r.Nights()
}

// Validate checks the selection shape for the given variant. It rejects
// empty quantities and past dates before any network hop happens.
func (s Selection) Validate(variant catalog.Variant, now time.Time) error {
	today := daterange.Day(now)
	switch variant {
	case catalog.VariantStay:
		r := s.Range()
		if err := r.Validate(); err != nil {
			return ErrEmptyRange
		}
		if r.CheckIn.Before(today) {
			return ErrCheckInInPast
		}
	case catalog.VariantEvent:
		if s.Quantity <= 0 {
			return ErrZeroQuantity
		}
		if s.Date.IsZero() {
			return ErrDateRequired
		}
	case catalog.VariantExperience:
		if s.Quantity <= 0 {
			return ErrZeroQuantity
		}
		if s.Date.IsZero() {
			return ErrDateRequired
		}
		if daterange.Day(s.Date).Before(today) {
			return ErrDateInPast
		}
	default:
		return catalog.ErrUnknownVariant
	}
	return nil
}
