package booking

import (
	"context"
	"errors"
	"time"

	"roamly/internal/app/commands"
	"roamly/internal/app/outbox"
	"roamly/internal/app/uow"
	domainbooking "roamly/internal/domain/booking"
)

const cancelReservationKey = "reservation.cancel"

type CancelReservationCommand struct {
	ReservationID string
	CallerID      string
}

func (c CancelReservationCommand) Key() string { return cancelReservationKey }

type CancelReservationResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

// CancelReservationHandler soft-cancels a pending reservation for its
// owner. The record stays for audit; its dates/tickets are free for
// the next availability check because only active statuses count.
type CancelReservationHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) (*CancelReservationResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.WithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	res, err := unit.Reservations().ByID(ctx, domainbooking.ReservationID(cmd.ReservationID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrReservationNotFound) {
			return nil, rejected(ReasonNotFound, false, "reservation not found")
		}
		return nil, err
	}

	if err := res.Cancel(cmd.CallerID, h.now()); err != nil {
		switch {
		case errors.Is(err, domainbooking.ErrNotOwner):
			return nil, rejected(ReasonForbidden, false, "reservation belongs to another caller")
		case errors.Is(err, domainbooking.ErrInvalidState):
			return nil, rejected(ReasonInvalidState, false, "only pending reservations can be cancelled here")
		default:
			return nil, err
		}
	}

	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}

	pending := res.PendingEvents()
	res.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &CancelReservationResult{ReservationID: string(res.ID), Status: string(res.Status)}, nil
}

func (h *CancelReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CancelReservationHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CancelReservationCommand, *CancelReservationResult] = (*CancelReservationHandler)(nil)
