package uow

import (
	"context"

	"roamly/internal/domain/booking"
	"roamly/internal/domain/catalog"
)

// UnitOfWork coordinates the catalog read and the reservation write
// inside one transaction boundary, so the commit protocol's
// read-check-write happens against a single consistent view.
type UnitOfWork interface {
	Catalog() catalog.Repository
	Reservations() booking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
