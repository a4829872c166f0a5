package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	domainbooking "roamly/internal/domain/booking"
	domaincatalog "roamly/internal/domain/catalog"
	domainpricing "roamly/internal/domain/pricing"
	"roamly/internal/domain/shared/money"
	"roamly/internal/infra/storage/memory"
)

var queryNow = time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

func fixedQueryNow() time.Time { return queryNow }

type queryEnv struct {
	catalog      *memory.CatalogRepository
	reservations *memory.ReservationRepository
	factory      memory.Factory
}

func newQueryEnv(t *testing.T) *queryEnv {
	t.Helper()
	e := &queryEnv{
		catalog:      memory.NewCatalogRepository(),
		reservations: memory.NewReservationRepository(),
	}
	e.factory = memory.Factory{CatalogRepo: e.catalog, ReservationRepo: e.reservations}

	stay := &domaincatalog.Item{
		Ref:       domaincatalog.ItemRef{ID: "stay-1", Variant: domaincatalog.VariantStay},
		Title:     "Loft",
		BasePrice: money.Must(15000, "USD"),
		Stay:      &domaincatalog.StayDetails{CleaningFee: money.Must(2000, "USD"), ServiceFeeBps: 1000},
	}
	event := &domaincatalog.Item{
		Ref:       domaincatalog.ItemRef{ID: "event-1", Variant: domaincatalog.VariantEvent},
		Title:     "Fado Night",
		BasePrice: money.Must(4500, "USD"),
		Event:     &domaincatalog.EventDetails{TicketCapacity: 10},
	}
	for _, item := range []*domaincatalog.Item{stay, event} {
		if err := e.catalog.Put(item); err != nil {
			t.Fatalf("seed item %s: %v", item.Ref.ID, err)
		}
	}
	return e
}

func (e *queryEnv) reserve(t *testing.T, id string, sel domainbooking.Selection, ref domaincatalog.ItemRef, rev int64) {
	t.Helper()
	res, err := domainbooking.NewReservation(domainbooking.CreateParams{
		ID:        domainbooking.ReservationID(id),
		UserID:    "guest-1",
		Ref:       ref,
		Selection: sel,
		Cost:      domainbooking.Cost{Total: money.Must(51500, "USD")},
		Now:       queryNow,
	})
	if err != nil {
		t.Fatalf("build reservation: %v", err)
	}
	if err := e.reservations.Create(context.Background(), res, rev); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
}

func TestGetItemStaySnapshot(t *testing.T) {
	e := newQueryEnv(t)
	e.reserve(t, "res-1", domainbooking.Selection{
		CheckIn:  time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, time.January, 13, 0, 0, 0, 0, time.UTC),
	}, domaincatalog.ItemRef{ID: "stay-1", Variant: domaincatalog.VariantStay}, 0)

	h := &GetItemHandler{UoWFactory: e.factory}
	snap, err := h.Handle(context.Background(), GetItemQuery{ItemID: "stay-1", Variant: "stay"})
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if snap.BasePrice != 15000 || snap.CleaningFee != 2000 || snap.ServiceFeeBps != 1000 {
		t.Fatalf("unexpected pricing fields: %+v", snap)
	}
	if len(snap.BookedRanges) != 1 {
		t.Fatalf("expected the occupied range, got %+v", snap.BookedRanges)
	}
	if got := snap.BookedRanges[0].CheckOut.Day(); got != 13 {
		t.Fatalf("expected checkout on the 13th, got %d", got)
	}
}

func TestGetItemEventCountsTickets(t *testing.T) {
	e := newQueryEnv(t)
	ref := domaincatalog.ItemRef{ID: "event-1", Variant: domaincatalog.VariantEvent}
	date := time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC)
	e.reserve(t, "res-1", domainbooking.Selection{Date: date, Quantity: 4}, ref, 0)
	e.reserve(t, "res-2", domainbooking.Selection{Date: date, Quantity: 3}, ref, 1)

	h := &GetItemHandler{UoWFactory: e.factory}
	snap, err := h.Handle(context.Background(), GetItemQuery{ItemID: "event-1", Variant: "EVENT"})
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if snap.TicketCapacity != 10 || snap.TicketsTaken != 7 {
		t.Fatalf("expected 7 of 10 tickets taken, got %d of %d", snap.TicketsTaken, snap.TicketCapacity)
	}
}

func TestGetItemUnknownVariant(t *testing.T) {
	e := newQueryEnv(t)
	h := &GetItemHandler{UoWFactory: e.factory}
	if _, err := h.Handle(context.Background(), GetItemQuery{ItemID: "stay-1", Variant: "cruise"}); !errors.Is(err, domaincatalog.ErrUnknownVariant) {
		t.Fatalf("expected unknown variant, got %v", err)
	}
}

func TestGetQuoteMatchesCommitPricing(t *testing.T) {
	e := newQueryEnv(t)
	h := &GetQuoteHandler{
		UoWFactory: e.factory,
		Pricing:    domainpricing.Policy{OrderFee: money.Must(500, "USD")},
		Now:        fixedQueryNow,
	}
	q := GetQuoteQuery{
		ItemID:   "stay-1",
		Variant:  "STAY",
		CheckIn:  time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, time.January, 13, 0, 0, 0, 0, time.UTC),
	}
	quote, err := h.Handle(context.Background(), q)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Subtotal != 45000 || quote.CleaningFee != 2000 || quote.ServiceFee != 4500 || quote.Total != 51500 {
		t.Fatalf("unexpected breakdown: %+v", quote)
	}
	if !quote.Available || quote.Reason != "" {
		t.Fatalf("expected available quote, got %+v", quote)
	}
}

func TestGetQuoteReportsConflictWithoutFailing(t *testing.T) {
	e := newQueryEnv(t)
	e.reserve(t, "res-1", domainbooking.Selection{
		CheckIn:  time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, time.January, 13, 0, 0, 0, 0, time.UTC),
	}, domaincatalog.ItemRef{ID: "stay-1", Variant: domaincatalog.VariantStay}, 0)

	h := &GetQuoteHandler{UoWFactory: e.factory, Now: fixedQueryNow}
	quote, err := h.Handle(context.Background(), GetQuoteQuery{
		ItemID:   "stay-1",
		Variant:  "STAY",
		CheckIn:  time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("quote must not fail on conflicts: %v", err)
	}
	if quote.Available || quote.Reason != "already_reserved" {
		t.Fatalf("expected advisory already_reserved, got %+v", quote)
	}
	if quote.Total == 0 {
		t.Fatal("conflicting quote still carries a price")
	}
}
