package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"roamly/internal/app/commands"
	"roamly/internal/app/middleware"
	"roamly/internal/app/outbox"
	"roamly/internal/app/uow"
	domainavailability "roamly/internal/domain/availability"
	domainbooking "roamly/internal/domain/booking"
	domaincatalog "roamly/internal/domain/catalog"
	domainpricing "roamly/internal/domain/pricing"
)

const commitReservationKey = "reservation.commit"

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// CommitReservationCommand carries a submitted draft. EstimatedTotal is
// the client's advisory estimate in minor units; the server always
// recomputes and its value wins silently.
type CommitReservationCommand struct {
	CommandID       string
	CallerID        string
	ItemID          string
	Variant         string
	CheckIn         time.Time
	CheckOut        time.Time
	Date            time.Time
	Quantity        int
	Note            string
	EstimatedTotal  int64
	IdempotencyKeyV string
}

func (c CommitReservationCommand) Key() string { return commitReservationKey }

func (c CommitReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CommitReservationCommand) ResultPrototype() any { return &CommitReservationResult{} }

type CostResult struct {
	Subtotal    int64  `json:"subtotal"`
	CleaningFee int64  `json:"cleaning_fee,omitempty"`
	ServiceFee  int64  `json:"service_fee"`
	Total       int64  `json:"total"`
	Currency    string `json:"currency"`
}

type CommitReservationResult struct {
	ReservationID string     `json:"reservation_id"`
	Status        string     `json:"status"`
	Cost          CostResult `json:"cost"`
}

// CommitReservationHandler is the reservation commit protocol: one
// consistent read of item plus active reservations, authoritative
// availability and pricing, then an atomic insert guarded by the
// item's reservation-set revision. A rejection never leaves a write.
type CommitReservationHandler struct {
	UoWFactory uow.Factory
	Pricing    domainpricing.Policy
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CommitReservationHandler) Handle(ctx context.Context, cmd CommitReservationCommand) (*CommitReservationResult, error) {
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

	variant, err := domaincatalog.ParseVariant(cmd.Variant)
	if err != nil {
		return nil, rejected(ReasonInvalidSelection, false, "unknown item variant")
	}
	now := h.now()
	sel := domainbooking.Selection{
		CheckIn:  cmd.CheckIn,
		CheckOut: cmd.CheckOut,
		Date:     cmd.Date,
		Quantity: cmd.Quantity,
	}
	if err := sel.Validate(variant, now); err != nil {
		return nil, &RejectedError{Reason: ReasonInvalidSelection, Detail: err.Error(), Err: err}
	}

	ref := domaincatalog.ItemRef{ID: domaincatalog.ItemID(cmd.ItemID), Variant: variant}
	item, err := unit.Catalog().ByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, domaincatalog.ErrItemNotFound) {
			return nil, rejected(ReasonNotFound, false, "item not found")
		}
		return nil, err
	}

	existing, revision, err := unit.Reservations().ActiveByItem(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	decision := domainavailability.Check(item, sel, existing, now)
	if !decision.Available {
		return nil, rejectDecision(decision)
	}

	cost := h.Pricing.Cost(item, sel)
	if cost.Total.Amount <= 0 {
		return nil, rejected(ReasonInvalidSelection, false, "selection does not price to a positive total")
	}
	if cmd.EstimatedTotal != 0 && cmd.EstimatedTotal != cost.Total.Amount {
		h.logger().Debug("client estimate divergent, server value wins",
			"item_id", cmd.ItemID, "client_total", cmd.EstimatedTotal, "server_total", cost.Total.Amount)
	}

	res, err := domainbooking.NewReservation(domainbooking.CreateParams{
		ID:        domainbooking.ReservationID(cmd.CommandID),
		UserID:    cmd.CallerID,
		Ref:       ref,
		Selection: sel,
		Cost: domainbooking.Cost{
			Subtotal:    cost.Subtotal,
			CleaningFee: cost.CleaningFee,
			ServiceFee:  cost.ServiceFee,
			Total:       cost.Total,
		},
		Note: cmd.Note,
		Now:  now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Reservations().Create(ctx, res, revision); err != nil {
		if errors.Is(err, domainbooking.ErrRevisionConflict) {
			return nil, &RejectedError{Reason: ReasonConflict, Retryable: true, Detail: "reservation set changed, retry with fresh availability", Err: err}
		}
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

	return &CommitReservationResult{
		ReservationID: string(res.ID),
		Status:        string(res.Status),
		Cost: CostResult{
			Subtotal:    cost.Subtotal.Amount,
			CleaningFee: cost.CleaningFee.Amount,
			ServiceFee:  cost.ServiceFee.Amount,
			Total:       cost.Total.Amount,
			Currency:    cost.Total.Currency,
		},
	}, nil
}

func rejectDecision(d domainavailability.Decision) *RejectedError {
	switch d.Reason {
	case domainavailability.ReasonPastDate,
		domainavailability.ReasonWeekdayClosed,
		domainavailability.ReasonInvalidSelection:
		return rejected(ReasonInvalidSelection, false, string(d.Reason))
	default:
		return &RejectedError{Reason: ReasonUnavailable, Retryable: true, Detail: string(d.Reason)}
	}
}

func (h *CommitReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CommitReservationHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *CommitReservationHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CommitReservationCommand, *CommitReservationResult] = (*CommitReservationHandler)(nil)
var _ middleware.IdempotentCommand = (*CommitReservationCommand)(nil)
