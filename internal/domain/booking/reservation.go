package booking

import (
	"context"
	"errors"
	"time"

	"roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/events"
	"roamly/internal/domain/shared/money"
)

var (
	ErrReservationNotFound = errors.New("booking: reservation not found")
	ErrInvalidState        = errors.New("booking: invalid state transition")
	ErrNotOwner            = errors.New("booking: caller does not own this reservation")
	ErrRevisionConflict    = errors.New("booking: reservation set changed concurrently")
	ErrZeroTotal           = errors.New("booking: total must be positive")
)

type ReservationID string

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCancelled      Status = "CANCELLED"
)

// Active reports whether the status still holds capacity. Cancelled
// reservations free their dates and tickets immediately.
func (s Status) Active() bool {
	return s == StatusPendingPayment || s == StatusConfirmed
}

// Cost mirrors pricing.CostBreakdown without importing it; the pricing
// package derives breakdowns, the aggregate only stores them.
type Cost struct {
	Subtotal    money.Money
	CleaningFee money.Money
	ServiceFee  money.Money
	Total       money.Money
}

// Reservation is the durable, server-owned record of a committed
// booking attempt. Mutated only through its methods.
type Reservation struct {
	ID        ReservationID
	UserID    string
	Ref       catalog.ItemRef
	Selection Selection
	Cost      Cost
	Status    Status
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type CreateParams struct {
	ID        ReservationID
	UserID    string
	Ref       catalog.ItemRef
	Selection Selection
	Cost      Cost
	Note      string
	Now       time.Time
}

// NewReservation builds a PENDING_PAYMENT reservation. The cost must
// already be the server-recomputed breakdown; a zero total is refused
// so an unpriced draft can never be persisted.
func NewReservation(params CreateParams) (*Reservation, error) {
	if params.UserID == "" {
		return nil, errors.New("booking: user id required")
	}
	if params.Cost.Total.Amount <= 0 {
		return nil, ErrZeroTotal
	}
	now := params.Now.UTC()
	r := &Reservation{
		ID:        params.ID,
		UserID:    params.UserID,
		Ref:       params.Ref,
		Selection: params.Selection,
		Cost:      params.Cost,
		Status:    StatusPendingPayment,
		Note:      params.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Record(ReservationCommitted{
		ReservationID: r.ID,
		ItemID:        r.Ref.ID,
		Variant:       r.Ref.Variant,
		UserID:        r.UserID,
		Total:         r.Cost.Total,
		At:            now,
	})
	return r, nil
}

// Confirm moves a pending reservation to CONFIRMED on the provider
// success callback. CONFIRMED is terminal.
func (r *Reservation) Confirm(now time.Time) error {
	if r.Status != StatusPendingPayment {
		return ErrInvalidState
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = now.UTC()
	r.Record(ReservationConfirmed{ReservationID: r.ID, ItemID: r.Ref.ID, At: r.UpdatedAt})
	return nil
}

// Cancel soft-cancels a pending reservation. The record is retained for
// audit; its capacity is released because Active() no longer holds.
// Cancelling a confirmed reservation is a different workflow and is
// rejected here.
func (r *Reservation) Cancel(callerID string, now time.Time) error {
	if r.UserID != callerID {
		return ErrNotOwner
	}
	if r.Status != StatusPendingPayment {
		return ErrInvalidState
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCancelled{ReservationID: r.ID, ItemID: r.Ref.ID, At: r.UpdatedAt})
	return nil
}

// Repository is the durable store boundary. ActiveByItem returns the
// non-cancelled reservations for an item together with the item's
// reservation-set revision; Create only succeeds when the revision is
// still current, surfacing ErrRevisionConflict to the losing racer.
type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	ActiveByItem(ctx context.Context, itemID catalog.ItemID) ([]*Reservation, int64, error)
	Create(ctx context.Context, r *Reservation, expectedRevision int64) error
	Save(ctx context.Context, r *Reservation) error
	ListByUser(ctx context.Context, userID string) ([]*Reservation, error)
}
