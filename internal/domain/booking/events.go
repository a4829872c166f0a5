package booking

import (
	"time"

	"roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/money"
)

type ReservationCommitted struct {
	ReservationID ReservationID
	ItemID        catalog.ItemID
	Variant       catalog.Variant
	UserID        string
	Total         money.Money
	At            time.Time
}

func (e ReservationCommitted) EventName() string     { return "reservation.committed" }
func (e ReservationCommitted) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCommitted) OccurredAt() time.Time { return e.At }

type ReservationConfirmed struct {
	ReservationID ReservationID
	ItemID        catalog.ItemID
	At            time.Time
}

func (e ReservationConfirmed) EventName() string     { return "reservation.confirmed" }
func (e ReservationConfirmed) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationConfirmed) OccurredAt() time.Time { return e.At }

type ReservationCancelled struct {
	ReservationID ReservationID
	ItemID        catalog.ItemID
	At            time.Time
}

func (e ReservationCancelled) EventName() string     { return "reservation.cancelled" }
func (e ReservationCancelled) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }

type PaymentInitiated struct {
	ReservationID ReservationID
	Total         money.Money
	At            time.Time
}

func (e PaymentInitiated) EventName() string     { return "reservation.payment_initiated" }
func (e PaymentInitiated) AggregateID() string   { return string(e.ReservationID) }
func (e PaymentInitiated) OccurredAt() time.Time { return e.At }
