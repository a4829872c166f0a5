package availability

import (
	"time"

	"roamly/internal/domain/booking"
	"roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/daterange"
)

// ConflictReason distinguishes why a selection cannot be booked. All
// reasons map to the same Conflict outcome for control flow; the split
// only drives user messaging.
type ConflictReason string

const (
	ReasonHostBlocked      ConflictReason = "host_blocked"
	ReasonAlreadyReserved  ConflictReason = "already_reserved"
	ReasonCapacityExceeded ConflictReason = "capacity_exceeded"
	ReasonWeekdayClosed    ConflictReason = "weekday_closed"
	ReasonPastDate         ConflictReason = "past_date"
	ReasonInvalidSelection ConflictReason = "invalid_selection"
)

// Decision is the structured outcome of an availability check. The
// resolver never returns an error.
type Decision struct {
	Available bool
	Reason    ConflictReason
}

func available() Decision {
	return Decision{Available: true}
}

func conflict(reason ConflictReason) Decision {
	return Decision{Reason: reason}
}

// Check resolves whether a selection can be booked against the given
// reservation set. It is pure: the caller decides whether the inputs
// are a cached client snapshot (advisory) or a live transactional read
// (authoritative). Only active reservations count, so cancelling frees
// capacity immediately.
func Check(item *catalog.Item, sel booking.Selection, existing []*booking.Reservation, now time.Time) Decision {
	switch item.Ref.Variant {
	case catalog.VariantStay:
		return checkStay(item, sel, existing)
	case catalog.VariantEvent:
		return checkEvent(item, sel, existing)
	case catalog.VariantExperience:
		return checkExperience(item, sel, now)
	default:
		return conflict(ReasonInvalidSelection)
	}
}

func checkStay(item *catalog.Item, sel booking.Selection, existing []*booking.Reservation) Decision {
	r := sel.Range()
	if r.Validate() != nil {
		return conflict(ReasonInvalidSelection)
	}
	if item.Stay != nil && item.Stay.Blocked(r) {
		return conflict(ReasonHostBlocked)
	}
	for _, res := range existing {
		if !res.Status.Active() || res.Ref.ID != item.Ref.ID {
			continue
		}
		if res.Selection.Range().Overlaps(r) {
			return conflict(ReasonAlreadyReserved)
		}
	}
	return available()
}

func checkEvent(item *catalog.Item, sel booking.Selection, existing []*booking.Reservation) Decision {
	if sel.Quantity <= 0 {
		return conflict(ReasonInvalidSelection)
	}
	if item.Event == nil || item.Event.TicketCapacity <= 0 {
		return available()
	}
	taken := 0
	for _, res := range existing {
		if !res.Status.Active() || res.Ref.ID != item.Ref.ID {
			continue
		}
		taken += res.Selection.Quantity
	}
	if sel.Quantity+taken > item.Event.TicketCapacity {
		return conflict(ReasonCapacityExceeded)
	}
	return available()
}

func checkExperience(item *catalog.Item, sel booking.Selection, now time.Time) Decision {
	if sel.Quantity <= 0 || sel.Date.IsZero() {
		return conflict(ReasonInvalidSelection)
	}
	day := daterange.Day(sel.Date)
	if day.Before(daterange.Day(now)) {
		return conflict(ReasonPastDate)
	}
	if item.Experience == nil || !item.Experience.RunsOn(day.Weekday()) {
		return conflict(ReasonWeekdayClosed)
	}
	return available()
}
