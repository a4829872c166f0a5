package catalog

import (
	"context"
	"time"

	"roamly/internal/app/queries"
	"roamly/internal/app/uow"
	domainavailability "roamly/internal/domain/availability"
	domainbooking "roamly/internal/domain/booking"
	domaincatalog "roamly/internal/domain/catalog"
	domainpricing "roamly/internal/domain/pricing"
)

const getQuoteKey = "catalog.item.quote"

// GetQuoteQuery prices a selection against live catalog data and runs
// an advisory availability check. The result carries no commit
// guarantee; the commit protocol re-derives both authoritatively.
type GetQuoteQuery struct {
	ItemID   string
	Variant  string
	CheckIn  time.Time
	CheckOut time.Time
	Date     time.Time
	Quantity int
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

type QuoteResult struct {
	Subtotal    int64  `json:"subtotal"`
	CleaningFee int64  `json:"cleaning_fee,omitempty"`
	ServiceFee  int64  `json:"service_fee"`
	Total       int64  `json:"total"`
	Currency    string `json:"currency"`
	Available   bool   `json:"available"`
	Reason      string `json:"reason,omitempty"`
}

type GetQuoteHandler struct {
	UoWFactory uow.Factory
	Pricing    domainpricing.Policy
	Now        func() time.Time
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (*QuoteResult, error) {
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

	sel := domainbooking.Selection{CheckIn: q.CheckIn, CheckOut: q.CheckOut, Date: q.Date, Quantity: q.Quantity}
	cost := h.Pricing.Cost(item, sel)
	decision := domainavailability.Check(item, sel, existing, h.now())

	return &QuoteResult{
		Subtotal:    cost.Subtotal.Amount,
		CleaningFee: cost.CleaningFee.Amount,
		ServiceFee:  cost.ServiceFee.Amount,
		Total:       cost.Total.Amount,
		Currency:    cost.Total.Currency,
		Available:   decision.Available,
		Reason:      string(decision.Reason),
	}, nil
}

func (h *GetQuoteHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ queries.Handler[GetQuoteQuery, *QuoteResult] = (*GetQuoteHandler)(nil)
