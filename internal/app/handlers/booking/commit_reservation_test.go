package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"roamly/internal/infra/storage/memory"

	domainbooking "roamly/internal/domain/booking"
	domaincatalog "roamly/internal/domain/catalog"
	domainpricing "roamly/internal/domain/pricing"
	"roamly/internal/domain/shared/money"
)

var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type env struct {
	catalog      *memory.CatalogRepository
	reservations *memory.ReservationRepository
	factory      memory.Factory
	outbox       *memory.Outbox
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		catalog:      memory.NewCatalogRepository(),
		reservations: memory.NewReservationRepository(),
		outbox:       memory.NewOutbox(),
	}
	e.factory = memory.Factory{CatalogRepo: e.catalog, ReservationRepo: e.reservations}

	stay := &domaincatalog.Item{
		Ref:       domaincatalog.ItemRef{ID: "stay-1", Variant: domaincatalog.VariantStay},
		Title:     "Loft",
		BasePrice: money.Must(15000, "USD"),
		Stay: &domaincatalog.StayDetails{
			CleaningFee:   money.Must(2000, "USD"),
			ServiceFeeBps: 1000,
		},
	}
	event := &domaincatalog.Item{
		Ref:       domaincatalog.ItemRef{ID: "event-1", Variant: domaincatalog.VariantEvent},
		Title:     "Concert",
		BasePrice: money.Must(4500, "USD"),
		Event:     &domaincatalog.EventDetails{TicketCapacity: 10},
	}
	for _, item := range []*domaincatalog.Item{stay, event} {
		if err := e.catalog.Put(item); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
	return e
}

func (e *env) commitHandler() *CommitReservationHandler {
	return &CommitReservationHandler{
		UoWFactory: e.factory,
		Pricing:    domainpricing.Policy{OrderFee: money.Must(500, "USD")},
		Outbox:     e.outbox,
		Now:        fixedNow,
	}
}

func stayCommand(id string) CommitReservationCommand {
	return CommitReservationCommand{
		CommandID: id,
		CallerID:  "guest-1",
		ItemID:    "stay-1",
		Variant:   "STAY",
		CheckIn:   date(2026, 1, 10),
		CheckOut:  date(2026, 1, 13),
	}
}

func TestCommitStay(t *testing.T) {
	e := newEnv(t)
	result, err := e.commitHandler().Handle(context.Background(), stayCommand("res-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != string(domainbooking.StatusPendingPayment) {
		t.Fatalf("expected PENDING_PAYMENT, got %s", result.Status)
	}
	if result.Cost.Total != 51500 {
		t.Fatalf("expected total 51500, got %d", result.Cost.Total)
	}

	stored, err := e.reservations.ByID(context.Background(), "res-1")
	if err != nil {
		t.Fatalf("reservation not persisted: %v", err)
	}
	if stored.Cost.Total.Amount != 51500 {
		t.Fatalf("persisted total mismatch: %d", stored.Cost.Total.Amount)
	}

	records := e.outbox.Records()
	if len(records) != 1 || records[0].Name != "reservation.committed" {
		t.Fatalf("expected one reservation.committed outbox record, got %+v", records)
	}
}

func TestCommitOverlapRejectedWithoutWrite(t *testing.T) {
	e := newEnv(t)
	h := e.commitHandler()
	if _, err := h.Handle(context.Background(), stayCommand("res-1")); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	second := stayCommand("res-2")
	second.CheckIn = date(2026, 1, 12)
	second.CheckOut = date(2026, 1, 14)
	_, err := h.Handle(context.Background(), second)

	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rej.Reason != ReasonUnavailable || !rej.Retryable {
		t.Fatalf("expected retryable unavailable, got %+v", rej)
	}
	if _, err := e.reservations.ByID(context.Background(), "res-2"); !errors.Is(err, domainbooking.ErrReservationNotFound) {
		t.Fatal("a rejected commit must not leave a write")
	}
}

func TestCommitPastCheckInRejected(t *testing.T) {
	e := newEnv(t)
	cmd := stayCommand("res-1")
	cmd.CheckIn = date(2025, 12, 20)
	cmd.CheckOut = date(2025, 12, 23)

	_, err := e.commitHandler().Handle(context.Background(), cmd)
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonInvalidSelection {
		t.Fatalf("expected invalid_selection, got %v", err)
	}
}

func TestCommitUnknownItem(t *testing.T) {
	e := newEnv(t)
	cmd := stayCommand("res-1")
	cmd.ItemID = "missing"

	_, err := e.commitHandler().Handle(context.Background(), cmd)
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestCommitServerPriceWins(t *testing.T) {
	e := newEnv(t)
	cmd := stayCommand("res-1")
	cmd.EstimatedTotal = 10

	result, err := e.commitHandler().Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("divergent estimate must not fail the commit: %v", err)
	}
	if result.Cost.Total != 51500 {
		t.Fatalf("server recomputation must win, got %d", result.Cost.Total)
	}
}

func TestCommitEventCapacity(t *testing.T) {
	e := newEnv(t)
	h := e.commitHandler()

	first := CommitReservationCommand{
		CommandID: "res-1", CallerID: "guest-1", ItemID: "event-1", Variant: "EVENT",
		Date: date(2026, 2, 1), Quantity: 8,
	}
	if _, err := h.Handle(context.Background(), first); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	over := first
	over.CommandID = "res-2"
	over.CallerID = "guest-2"
	over.Quantity = 3
	_, err := h.Handle(context.Background(), over)
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonUnavailable {
		t.Fatalf("expected unavailable for 8+3 over capacity 10, got %v", err)
	}

	within := over
	within.CommandID = "res-3"
	within.Quantity = 2
	if _, err := h.Handle(context.Background(), within); err != nil {
		t.Fatalf("8+2 within capacity 10 must commit: %v", err)
	}
}

// racingRepo injects a competing reservation between the handler's
// availability read and its insert, forcing the revision guard to fire.
type racingRepo struct {
	*memory.ReservationRepository
	competitor *domainbooking.Reservation
	injected   bool
}

func (r *racingRepo) Create(ctx context.Context, res *domainbooking.Reservation, expectedRevision int64) error {
	if !r.injected {
		r.injected = true
		if err := r.ReservationRepository.Create(ctx, r.competitor, expectedRevision); err != nil {
			return err
		}
	}
	return r.ReservationRepository.Create(ctx, res, expectedRevision)
}

func TestCommitLostRaceIsRetryableConflict(t *testing.T) {
	e := newEnv(t)

	competitor, err := domainbooking.NewReservation(domainbooking.CreateParams{
		ID:     "res-competitor",
		UserID: "guest-2",
		Ref:    domaincatalog.ItemRef{ID: "event-1", Variant: domaincatalog.VariantEvent},
		Selection: domainbooking.Selection{
			Date: date(2026, 2, 1), Quantity: 1,
		},
		Cost: domainbooking.Cost{Total: money.Must(5000, "USD")},
		Now:  testNow,
	})
	if err != nil {
		t.Fatalf("competitor setup failed: %v", err)
	}

	racing := &racingRepo{ReservationRepository: e.reservations, competitor: competitor}
	h := e.commitHandler()
	h.UoWFactory = memory.Factory{CatalogRepo: e.catalog, ReservationRepo: racing}

	cmd := CommitReservationCommand{
		CommandID: "res-1", CallerID: "guest-1", ItemID: "event-1", Variant: "EVENT",
		Date: date(2026, 2, 1), Quantity: 2,
	}
	_, err = h.Handle(context.Background(), cmd)
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rej.Reason != ReasonConflict || !rej.Retryable {
		t.Fatalf("expected retryable conflict, got %+v", rej)
	}
	if !errors.Is(err, domainbooking.ErrRevisionConflict) {
		t.Fatal("conflict should wrap ErrRevisionConflict")
	}
}

func TestCancelFreesCapacityForNextCommit(t *testing.T) {
	e := newEnv(t)
	h := e.commitHandler()
	if _, err := h.Handle(context.Background(), stayCommand("res-1")); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	cancel := &CancelReservationHandler{UoWFactory: e.factory, Outbox: e.outbox, Now: fixedNow}
	result, err := cancel.Handle(context.Background(), CancelReservationCommand{ReservationID: "res-1", CallerID: "guest-1"})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.Status != string(domainbooking.StatusCancelled) {
		t.Fatalf("expected CANCELLED, got %s", result.Status)
	}

	retry := stayCommand("res-2")
	retry.CallerID = "guest-2"
	if _, err := h.Handle(context.Background(), retry); err != nil {
		t.Fatalf("cancelled dates must be bookable again: %v", err)
	}
}

func TestCancelRejections(t *testing.T) {
	e := newEnv(t)
	h := e.commitHandler()
	if _, err := h.Handle(context.Background(), stayCommand("res-1")); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	cancel := &CancelReservationHandler{UoWFactory: e.factory, Outbox: e.outbox, Now: fixedNow}

	_, err := cancel.Handle(context.Background(), CancelReservationCommand{ReservationID: "res-1", CallerID: "intruder"})
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	_, err = cancel.Handle(context.Background(), CancelReservationCommand{ReservationID: "missing", CallerID: "guest-1"})
	if !errors.As(err, &rej) || rej.Reason != ReasonNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}

	if _, err := cancel.Handle(context.Background(), CancelReservationCommand{ReservationID: "res-1", CallerID: "guest-1"}); err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	_, err = cancel.Handle(context.Background(), CancelReservationCommand{ReservationID: "res-1", CallerID: "guest-1"})
	if !errors.As(err, &rej) || rej.Reason != ReasonInvalidState {
		t.Fatalf("expected invalid_state on double cancel, got %v", err)
	}
}
