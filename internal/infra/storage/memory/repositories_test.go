package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainbooking "roamly/internal/domain/booking"
	domaincatalog "roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/money"
)

var repoNow = time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

func newReservation(t *testing.T, id, userID string, createdAt time.Time) *domainbooking.Reservation {
	t.Helper()
	res, err := domainbooking.NewReservation(domainbooking.CreateParams{
		ID:     domainbooking.ReservationID(id),
		UserID: userID,
		Ref:    domaincatalog.ItemRef{ID: "stay-1", Variant: domaincatalog.VariantStay},
		Selection: domainbooking.Selection{
			CheckIn:  time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
			CheckOut: time.Date(2026, time.January, 13, 0, 0, 0, 0, time.UTC),
		},
		Cost: domainbooking.Cost{Total: money.Must(51500, "USD")},
		Now:  createdAt,
	})
	if err != nil {
		t.Fatalf("build reservation: %v", err)
	}
	return res
}

func TestCreateEnforcesExpectedRevision(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()

	_, rev, err := repo.ActiveByItem(ctx, "stay-1")
	if err != nil {
		t.Fatalf("ActiveByItem failed: %v", err)
	}
	if rev != 0 {
		t.Fatalf("fresh item must start at revision 0, got %d", rev)
	}

	if err := repo.Create(ctx, newReservation(t, "res-1", "guest-1", repoNow), rev); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	err = repo.Create(ctx, newReservation(t, "res-2", "guest-2", repoNow), rev)
	if !errors.Is(err, domainbooking.ErrRevisionConflict) {
		t.Fatalf("stale revision must lose the race, got %v", err)
	}

	active, rev, err := repo.ActiveByItem(ctx, "stay-1")
	if err != nil {
		t.Fatalf("ActiveByItem failed: %v", err)
	}
	if len(active) != 1 || rev != 1 {
		t.Fatalf("expected one active reservation at revision 1, got %d at %d", len(active), rev)
	}

	if err := repo.Create(ctx, newReservation(t, "res-2", "guest-2", repoNow), rev); err != nil {
		t.Fatalf("create with fresh revision failed: %v", err)
	}
}

func TestSaveBumpsVersionAndRevision(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, newReservation(t, "res-1", "guest-1", repoNow), 0); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	res, err := repo.ByID(ctx, "res-1")
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if err := res.Cancel("guest-1", repoNow.Add(time.Hour)); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := repo.Save(ctx, res); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if res.Version != 1 {
		t.Fatalf("save must bump the aggregate version, got %d", res.Version)
	}

	// a writer holding the pre-save copy must be refused
	stale, _ := repo.ByID(ctx, "res-1")
	stale.Version = 0
	if err := repo.Save(ctx, stale); !errors.Is(err, domainbooking.ErrRevisionConflict) {
		t.Fatalf("stale version must conflict, got %v", err)
	}

	active, rev, err := repo.ActiveByItem(ctx, "stay-1")
	if err != nil {
		t.Fatalf("ActiveByItem failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("cancelled reservation must not hold capacity, got %d active", len(active))
	}
	if rev != 2 {
		t.Fatalf("status change must bump the set revision, got %d", rev)
	}
}

func TestListByUserNewestFirst(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, newReservation(t, "res-old", "guest-1", repoNow), 0); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(ctx, newReservation(t, "res-new", "guest-1", repoNow.Add(time.Minute)), 1); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(ctx, newReservation(t, "res-other", "guest-2", repoNow), 2); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	list, err := repo.ListByUser(ctx, "guest-1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(list))
	}
	if list[0].ID != "res-new" || list[1].ID != "res-old" {
		t.Fatalf("expected newest first, got %s then %s", list[0].ID, list[1].ID)
	}
}

func TestCatalogRepositoryVariantMismatch(t *testing.T) {
	repo := NewCatalogRepository()
	item := &domaincatalog.Item{
		Ref:       domaincatalog.ItemRef{ID: "stay-1", Variant: domaincatalog.VariantStay},
		Title:     "Loft",
		BasePrice: money.Must(15000, "USD"),
		Stay:      &domaincatalog.StayDetails{CleaningFee: money.Must(2000, "USD"), ServiceFeeBps: 1000},
	}
	if err := repo.Put(item); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if _, err := repo.ByRef(context.Background(), item.Ref); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	wrong := domaincatalog.ItemRef{ID: "stay-1", Variant: domaincatalog.VariantEvent}
	if _, err := repo.ByRef(context.Background(), wrong); !errors.Is(err, domaincatalog.ErrItemNotFound) {
		t.Fatalf("variant mismatch must be not found, got %v", err)
	}
}
