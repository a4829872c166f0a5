package memory

import (
	"context"
	"errors"

	"roamly/internal/app/uow"
	domainbooking "roamly/internal/domain/booking"
	domaincatalog "roamly/internal/domain/catalog"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
// No isolation beyond the repositories' own locking is provided; the
// revision guard inside ReservationRepository.Create is what keeps
// racing commits safe, matching the durable tier's contract.
type Factory struct {
	CatalogRepo     domaincatalog.Repository
	ReservationRepo domainbooking.Repository
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.CatalogRepo == nil || f.ReservationRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{catalog: f.CatalogRepo, reservations: f.ReservationRepo}, nil
}

type Unit struct {
	catalog      domaincatalog.Repository
	reservations domainbooking.Repository
}

func (u *Unit) Catalog() domaincatalog.Repository {
	return u.catalog
}

func (u *Unit) Reservations() domainbooking.Repository {
	return u.reservations
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
