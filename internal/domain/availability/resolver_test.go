package availability

import (
	"testing"
	"time"

	"roamly/internal/domain/booking"
	"roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/money"
)

var now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stayItem() *catalog.Item {
	return &catalog.Item{
		Ref:       catalog.ItemRef{ID: "stay-1", Variant: catalog.VariantStay},
		BasePrice: money.Must(15000, "USD"),
		Stay:      &catalog.StayDetails{},
	}
}

func reservation(itemID catalog.ItemID, status booking.Status, sel booking.Selection) *booking.Reservation {
	return &booking.Reservation{
		ID:        booking.ReservationID("res-" + string(itemID)),
		UserID:    "guest-1",
		Ref:       catalog.ItemRef{ID: itemID},
		Selection: sel,
		Status:    status,
	}
}

func TestStayOverlapRejected(t *testing.T) {
	item := stayItem()
	existing := []*booking.Reservation{
		reservation(item.Ref.ID, booking.StatusPendingPayment, booking.Selection{
			CheckIn: date(2026, 1, 10), CheckOut: date(2026, 1, 13),
		}),
	}

	d := Check(item, booking.Selection{CheckIn: date(2026, 1, 12), CheckOut: date(2026, 1, 14)}, existing, now)
	if d.Available {
		t.Fatal("expected overlap to be rejected")
	}
	if d.Reason != ReasonAlreadyReserved {
		t.Fatalf("expected already_reserved, got %s", d.Reason)
	}
}

func TestStayBackToBackAllowed(t *testing.T) {
	item := stayItem()
	existing := []*booking.Reservation{
		reservation(item.Ref.ID, booking.StatusConfirmed, booking.Selection{
			CheckIn: date(2026, 1, 10), CheckOut: date(2026, 1, 13),
		}),
	}

	d := Check(item, booking.Selection{CheckIn: date(2026, 1, 13), CheckOut: date(2026, 1, 15)}, existing, now)
	if !d.Available {
		t.Fatalf("expected checkout-day check-in to be available, got %s", d.Reason)
	}
}

func TestStayCancelledReservationFreesDates(t *testing.T) {
	item := stayItem()
	existing := []*booking.Reservation{
		reservation(item.Ref.ID, booking.StatusCancelled, booking.Selection{
			CheckIn: date(2026, 1, 10), CheckOut: date(2026, 1, 13),
		}),
	}

	d := Check(item, booking.Selection{CheckIn: date(2026, 1, 11), CheckOut: date(2026, 1, 12)}, existing, now)
	if !d.Available {
		t.Fatalf("expected cancelled reservation to free its dates, got %s", d.Reason)
	}
}

func TestStayHostBlockedDate(t *testing.T) {
	item := stayItem()
	item.Stay.BlockedDates = []time.Time{date(2026, 1, 11)}

	d := Check(item, booking.Selection{CheckIn: date(2026, 1, 10), CheckOut: date(2026, 1, 13)}, nil, now)
	if d.Available || d.Reason != ReasonHostBlocked {
		t.Fatalf("expected host_blocked, got %+v", d)
	}
}

func TestEventCapacity(t *testing.T) {
	item := &catalog.Item{
		Ref:       catalog.ItemRef{ID: "event-1", Variant: catalog.VariantEvent},
		BasePrice: money.Must(4500, "USD"),
		Event:     &catalog.EventDetails{TicketCapacity: 10},
	}
	existing := []*booking.Reservation{
		reservation(item.Ref.ID, booking.StatusConfirmed, booking.Selection{Quantity: 8, Date: date(2026, 2, 1)}),
	}

	d := Check(item, booking.Selection{Quantity: 3, Date: date(2026, 2, 1)}, existing, now)
	if d.Available || d.Reason != ReasonCapacityExceeded {
		t.Fatalf("expected capacity_exceeded for 8+3 over 10, got %+v", d)
	}

	d = Check(item, booking.Selection{Quantity: 2, Date: date(2026, 2, 1)}, existing, now)
	if !d.Available {
		t.Fatalf("expected 8+2 within 10 to be available, got %s", d.Reason)
	}
}

func TestEventUnlimitedCapacity(t *testing.T) {
	item := &catalog.Item{
		Ref:       catalog.ItemRef{ID: "event-2", Variant: catalog.VariantEvent},
		BasePrice: money.Must(4500, "USD"),
		Event:     &catalog.EventDetails{TicketCapacity: 0},
	}
	d := Check(item, booking.Selection{Quantity: 500, Date: date(2026, 2, 1)}, nil, now)
	if !d.Available {
		t.Fatalf("capacity zero means unlimited, got %s", d.Reason)
	}
}

func TestExperienceWeekdayAndPastDate(t *testing.T) {
	item := &catalog.Item{
		Ref:        catalog.ItemRef{ID: "exp-1", Variant: catalog.VariantExperience},
		BasePrice:  money.Must(6000, "USD"),
		Experience: &catalog.ExperienceDetails{AvailableWeekdays: []time.Weekday{time.Monday, time.Wednesday}},
	}

	// 2026-01-05 is a Monday
	d := Check(item, booking.Selection{Quantity: 2, Date: date(2026, 1, 5)}, nil, now)
	if !d.Available {
		t.Fatalf("expected Monday to be available, got %s", d.Reason)
	}

	// 2026-01-06 is a Tuesday
	d = Check(item, booking.Selection{Quantity: 2, Date: date(2026, 1, 6)}, nil, now)
	if d.Available || d.Reason != ReasonWeekdayClosed {
		t.Fatalf("expected weekday_closed, got %+v", d)
	}

	d = Check(item, booking.Selection{Quantity: 2, Date: date(2025, 12, 29)}, nil, now)
	if d.Available || d.Reason != ReasonPastDate {
		t.Fatalf("expected past_date, got %+v", d)
	}
}

func TestZeroQuantityIsInvalidSelection(t *testing.T) {
	item := &catalog.Item{
		Ref:       catalog.ItemRef{ID: "event-3", Variant: catalog.VariantEvent},
		BasePrice: money.Must(4500, "USD"),
		Event:     &catalog.EventDetails{TicketCapacity: 10},
	}
	d := Check(item, booking.Selection{Quantity: 0, Date: date(2026, 2, 1)}, nil, now)
	if d.Available || d.Reason != ReasonInvalidSelection {
		t.Fatalf("expected invalid_selection, got %+v", d)
	}
}
