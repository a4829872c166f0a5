package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"roamly/internal/domain/shared/daterange"
	"roamly/internal/domain/shared/money"
)

var (
	ErrItemNotFound   = errors.New("catalog: item not found")
	ErrUnknownVariant = errors.New("catalog: unknown item variant")
)

// Variant tags the three bookable item kinds.
type Variant string

const (
	VariantStay       Variant = "STAY"
	VariantEvent      Variant = "EVENT"
	VariantExperience Variant = "EXPERIENCE"
)

func ParseVariant(raw string) (Variant, error) {
	switch Variant(strings.ToUpper(strings.TrimSpace(raw))) {
	case VariantStay:
		return VariantStay, nil
	case VariantEvent:
		return VariantEvent, nil
	case VariantExperience:
		return VariantExperience, nil
	default:
		return "", ErrUnknownVariant
	}
}

type ItemID string

// ItemRef identifies an item together with its variant tag.
type ItemRef struct {
	ID      ItemID
	Variant Variant
}

// Item is the catalog's view of a bookable thing. Exactly one of the
// variant detail pointers is set, matching Ref.Variant.
type Item struct {
	Ref       ItemRef
	Title     string
	Location  string
	BasePrice money.Money

	Stay       *StayDetails
	Event      *EventDetails
	Experience *ExperienceDetails
}

// StayDetails carries the per-night pricing and host-curated blocks.
type StayDetails struct {
	CleaningFee   money.Money
	ServiceFeeBps int64
	BlockedDates  []time.Time
}

// Blocked reports whether any host-blocked date falls inside the range.
func (s *StayDetails) Blocked(r daterange.DateRange) bool {
	for _, d := range s.BlockedDates {
		if r.ContainsDate(d) {
			return true
		}
	}
	return false
}

// EventDetails carries ticket capacity and the event's run.
// Capacity zero means unlimited.
type EventDetails struct {
	TicketCapacity int
	DateStart      time.Time
	DateEnd        time.Time
}

// ExperienceDetails lists the weekdays the experience recurs on.
type ExperienceDetails struct {
	AvailableWeekdays []time.Weekday
}

func (e *ExperienceDetails) RunsOn(day time.Weekday) bool {
	for _, w := range e.AvailableWeekdays {
		if w == day {
			return true
		}
	}
	return false
}

// Validate checks that the variant tag and detail payload agree.
func (i *Item) Validate() error {
	switch i.Ref.Variant {
	case VariantStay:
		if i.Stay == nil {
			return ErrUnknownVariant
		}
	case VariantEvent:
		if i.Event == nil {
			return ErrUnknownVariant
		}
	case VariantExperience:
		if i.Experience == nil {
			return ErrUnknownVariant
		}
	default:
		return ErrUnknownVariant
	}
	return nil
}

// Repository is the read port onto the catalog collaborator.
type Repository interface {
	ByRef(ctx context.Context, ref ItemRef) (*Item, error)
}
