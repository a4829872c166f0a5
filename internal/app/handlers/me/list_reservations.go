package me

import (
	"context"
	"errors"
	"time"

	"roamly/internal/app/queries"
	"roamly/internal/app/uow"
)

const listReservationsKey = "me.reservations.list"

var ErrUnitOfWorkRequired = errors.New("me: unit of work required")

type ListReservationsQuery struct {
	CallerID string
}

func (q ListReservationsQuery) Key() string { return listReservationsKey }

type ReservationView struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Variant   string    `json:"variant"`
	Status    string    `json:"status"`
	CheckIn   time.Time `json:"check_in,omitempty"`
	CheckOut  time.Time `json:"check_out,omitempty"`
	Date      time.Time `json:"date,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Total     int64     `json:"total"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

type ListReservationsResult struct {
	Items []ReservationView `json:"items"`
}

type ListReservationsHandler struct {
	UoWFactory uow.Factory
}

func (h *ListReservationsHandler) Handle(ctx context.Context, q ListReservationsQuery) (*ListReservationsResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return nil, err
		}
		managed = true
	}
	if managed {
		defer func() { _ = unit.Rollback(ctx) }()
	}

	list, err := unit.Reservations().ListByUser(ctx, q.CallerID)
	if err != nil {
		return nil, err
	}
	out := &ListReservationsResult{Items: make([]ReservationView, 0, len(list))}
	for _, res := range list {
		out.Items = append(out.Items, ReservationView{
			ID:        string(res.ID),
			ItemID:    string(res.Ref.ID),
			Variant:   string(res.Ref.Variant),
			Status:    string(res.Status),
			CheckIn:   res.Selection.CheckIn,
			CheckOut:  res.Selection.CheckOut,
			Date:      res.Selection.Date,
			Quantity:  res.Selection.Quantity,
			Total:     res.Cost.Total.Amount,
			Currency:  res.Cost.Total.Currency,
			CreatedAt: res.CreatedAt,
		})
	}
	return out, nil
}

var _ queries.Handler[ListReservationsQuery, *ListReservationsResult] = (*ListReservationsHandler)(nil)
