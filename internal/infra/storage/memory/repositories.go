package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "roamly/internal/domain/booking"
	domaincatalog "roamly/internal/domain/catalog"
)

// CatalogRepository is an in-memory catalog read model seeded from
// fixtures.
type CatalogRepository struct {
	mu    sync.RWMutex
	items map[domaincatalog.ItemID]*domaincatalog.Item
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{items: make(map[domaincatalog.ItemID]*domaincatalog.Item)}
}

func (r *CatalogRepository) ByRef(ctx context.Context, ref domaincatalog.ItemRef) (*domaincatalog.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[ref.ID]
	if !ok || item.Ref.Variant != ref.Variant {
		return nil, domaincatalog.ErrItemNotFound
	}
	return item, nil
}

// Put seeds or replaces an item.
func (r *CatalogRepository) Put(item *domaincatalog.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.Ref.ID] = item
	return nil
}

// ReservationRepository keeps reservations in memory. A single mutex
// serializes Create against concurrent commits, and a per-item
// revision counter mirrors the optimistic guard the durable tier uses:
// a Create with a stale expected revision loses the race.
type ReservationRepository struct {
	mu        sync.RWMutex
	items     map[domainbooking.ReservationID]*domainbooking.Reservation
	revisions map[domaincatalog.ItemID]int64
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{
		items:     make(map[domainbooking.ReservationID]*domainbooking.Reservation),
		revisions: make(map[domaincatalog.ItemID]int64),
	}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainbooking.ReservationID) (*domainbooking.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrReservationNotFound
	}
	clone := *res
	return &clone, nil
}

func (r *ReservationRepository) ActiveByItem(ctx context.Context, itemID domaincatalog.ItemID) ([]*domainbooking.Reservation, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeLocked(itemID), r.revisions[itemID], nil
}

func (r *ReservationRepository) activeLocked(itemID domaincatalog.ItemID) []*domainbooking.Reservation {
	out := make([]*domainbooking.Reservation, 0)
	for _, res := range r.items {
		if res.Ref.ID == itemID && res.Status.Active() {
			clone := *res
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *ReservationRepository) Create(ctx context.Context, res *domainbooking.Reservation, expectedRevision int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revisions[res.Ref.ID] != expectedRevision {
		return domainbooking.ErrRevisionConflict
	}
	clone := *res
	r.items[res.ID] = &clone
	r.revisions[res.Ref.ID] = expectedRevision + 1
	return nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainbooking.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[res.ID]
	if !ok {
		return domainbooking.ErrReservationNotFound
	}
	if stored.Version != res.Version {
		return domainbooking.ErrRevisionConflict
	}
	res.Version++
	clone := *res
	r.items[res.ID] = &clone
	// Status transitions change the item's capacity, so they bump the
	// reservation-set revision and invalidate racing commits.
	r.revisions[res.Ref.ID]++
	return nil
}

func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]*domainbooking.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Reservation, 0)
	for _, res := range r.items {
		if res.UserID == userID {
			clone := *res
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
