package catalog

import (
	"context"
	"errors"
	"time"

	"roamly/internal/app/queries"
	"roamly/internal/app/uow"
	domaincatalog "roamly/internal/domain/catalog"
)

const getItemKey = "catalog.item.get"

var ErrUnitOfWorkRequired = errors.New("catalog: unit of work required")

// GetItemQuery fetches the snapshot the client draft session runs its
// advisory availability checks against.
type GetItemQuery struct {
	ItemID  string
	Variant string
}

func (q GetItemQuery) Key() string { return getItemKey }

type BookedRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// ItemSnapshot is the client-facing view: item metadata plus the
// occupied capacity, without exposing other guests' reservations.
type ItemSnapshot struct {
	ItemID            string         `json:"item_id"`
	Variant           string         `json:"variant"`
	Title             string         `json:"title"`
	Location          string         `json:"location"`
	BasePrice         int64          `json:"base_price"`
	Currency          string         `json:"currency"`
	CleaningFee       int64          `json:"cleaning_fee,omitempty"`
	ServiceFeeBps     int64          `json:"service_fee_bps,omitempty"`
	BlockedDates      []time.Time    `json:"blocked_dates,omitempty"`
	BookedRanges      []BookedRange  `json:"booked_ranges,omitempty"`
	TicketCapacity    int            `json:"ticket_capacity,omitempty"`
	TicketsTaken      int            `json:"tickets_taken,omitempty"`
	AvailableWeekdays []time.Weekday `json:"available_weekdays,omitempty"`
}

type GetItemHandler struct {
	UoWFactory uow.Factory
}

func (h *GetItemHandler) Handle(ctx context.Context, q GetItemQuery) (*ItemSnapshot, error) {
	variant, err := domaincatalog.ParseVariant(q.Variant)
	if err != nil {
		return nil, err
	}
	unit, managed, err := begin(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if managed {
		defer func() { _ = unit.Rollback(ctx) }()
	}

	ref := domaincatalog.ItemRef{ID: domaincatalog.ItemID(q.ItemID), Variant: variant}
	item, err := unit.Catalog().ByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	existing, _, err := unit.Reservations().ActiveByItem(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	snap := &ItemSnapshot{
		ItemID:    string(item.Ref.ID),
		Variant:   string(item.Ref.Variant),
		Title:     item.Title,
		Location:  item.Location,
		BasePrice: item.BasePrice.Amount,
		Currency:  item.BasePrice.Currency,
	}
	switch item.Ref.Variant {
	case domaincatalog.VariantStay:
		if item.Stay != nil {
			snap.CleaningFee = item.Stay.CleaningFee.Amount
			snap.ServiceFeeBps = item.Stay.ServiceFeeBps
			snap.BlockedDates = item.Stay.BlockedDates
		}
		for _, res := range existing {
			r := res.Selection.Range()
			snap.BookedRanges = append(snap.BookedRanges, BookedRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut})
		}
	case domaincatalog.VariantEvent:
		if item.Event != nil {
			snap.TicketCapacity = item.Event.TicketCapacity
		}
		for _, res := range existing {
			snap.TicketsTaken += res.Selection.Quantity
		}
	case domaincatalog.VariantExperience:
		if item.Experience != nil {
			snap.AvailableWeekdays = item.Experience.AvailableWeekdays
		}
	}
	return snap, nil
}

func begin(ctx context.Context, factory uow.Factory) (uow.UnitOfWork, bool, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, false, nil
	}
	if factory == nil {
		return nil, false, ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	return unit, true, err
}

var _ queries.Handler[GetItemQuery, *ItemSnapshot] = (*GetItemHandler)(nil)
