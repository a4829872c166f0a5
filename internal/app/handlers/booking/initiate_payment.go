package booking

import (
	"context"
	"errors"
	"time"

	"roamly/internal/app/commands"
	"roamly/internal/app/outbox"
	"roamly/internal/app/policies"
	"roamly/internal/app/uow"
	domainbooking "roamly/internal/domain/booking"
	"roamly/internal/domain/shared/events"
)

const initiatePaymentKey = "reservation.payment.init"

type InitiatePaymentCommand struct {
	ReservationID string
	CallerID      string
	CallerEmail   string
}

func (c InitiatePaymentCommand) Key() string { return initiatePaymentKey }

type InitiatePaymentResult struct {
	RedirectURL string `json:"redirect_url"`
	Reference   string `json:"reference"`
}

// InitiatePaymentHandler hands a pending reservation to the external
// payment collaborator and returns the redirect handle. It never
// mutates reservation state; the provider callback (out of scope)
// drives the PENDING_PAYMENT -> CONFIRMED edge.
type InitiatePaymentHandler struct {
	UoWFactory uow.Factory
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *InitiatePaymentHandler) Handle(ctx context.Context, cmd InitiatePaymentCommand) (*InitiatePaymentResult, error) {
	if h.Payments == nil {
		return nil, errors.New("booking: payments port not configured")
	}
	unit, managed, err := h.begin(ctx)
	if err != nil {
		return nil, err
	}
	if managed {
		defer func() { _ = unit.Rollback(ctx) }()
	}

	res, err := unit.Reservations().ByID(ctx, domainbooking.ReservationID(cmd.ReservationID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrReservationNotFound) {
			return nil, rejected(ReasonNotFound, false, "reservation not found")
		}
		return nil, err
	}
	if res.UserID != cmd.CallerID {
		return nil, rejected(ReasonForbidden, false, "reservation belongs to another caller")
	}
	if res.Status != domainbooking.StatusPendingPayment {
		return nil, rejected(ReasonInvalidState, false, "reservation is not awaiting payment")
	}

	handle, err := h.Payments.InitCharge(ctx, res.Cost.Total, cmd.CallerEmail, string(res.ID))
	if err != nil {
		// Surfaced verbatim; the reservation stays PENDING_PAYMENT and
		// may be retried or cancelled.
		return nil, &RejectedError{Reason: ReasonUpstreamPayment, Retryable: true, Detail: err.Error(), Err: err}
	}

	now := h.now()
	ev := domainbooking.PaymentInitiated{ReservationID: res.ID, Total: res.Cost.Total, At: now}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{ev}); err != nil {
		return nil, err
	}

	return &InitiatePaymentResult{RedirectURL: handle.RedirectURL, Reference: handle.Reference}, nil
}

func (h *InitiatePaymentHandler) begin(ctx context.Context) (uow.UnitOfWork, bool, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, false, nil
	}
	if h.UoWFactory == nil {
		return nil, false, ErrUnitOfWorkRequired
	}
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	return unit, true, err
}

func (h *InitiatePaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *InitiatePaymentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[InitiatePaymentCommand, *InitiatePaymentResult] = (*InitiatePaymentHandler)(nil)
