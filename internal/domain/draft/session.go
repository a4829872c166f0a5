package draft

import (
	"time"

	"roamly/internal/domain/availability"
	"roamly/internal/domain/booking"
	"roamly/internal/domain/catalog"
	"roamly/internal/domain/pricing"
)

// Draft is the client-held, unpersisted candidate booking.
type Draft struct {
	Ref           catalog.ItemRef
	Selection     booking.Selection
	EstimatedCost pricing.CostBreakdown
	Note          string
	CreatedAt     time.Time
}

// SelectionPatch carries partial selection updates; nil fields are left
// untouched (shallow merge).
type SelectionPatch struct {
	CheckIn  *time.Time
	CheckOut *time.Time
	Date     *time.Time
	Quantity *int
	Note     *string
}

// Session holds at most one live draft for one user session. It is an
// explicit value passed through arguments, never ambient global state,
// so tests can construct independent sessions. It performs no I/O: the
// estimate and the submit flag are derived from the pricing policy and
// the most recently fetched catalog snapshot.
type Session struct {
	policy pricing.Policy

	draft         *Draft
	reservationID booking.ReservationID

	// last-fetched snapshot, advisory only
	item     *catalog.Item
	existing []*booking.Reservation
}

func NewSession(policy pricing.Policy) *Session {
	return &Session{policy: policy}
}

// Start begins a draft for an item, silently replacing any prior draft
// and dropping a completed reservation reference. No merge, no queue.
func (s *Session) Start(item *catalog.Item, existing []*booking.Reservation, now time.Time) *Draft {
	s.item = item
	s.existing = existing
	s.reservationID = ""
	s.draft = &Draft{Ref: item.Ref, CreatedAt: now.UTC()}
	s.refresh()
	return s.draft
}

// Update applies a shallow merge of the patch to the current selection
// and refreshes the advisory estimate. It never talks to the server.
func (s *Session) Update(patch SelectionPatch) *Draft {
	if s.draft == nil {
		return nil
	}
	sel := &s.draft.Selection
	if patch.CheckIn != nil {
		sel.CheckIn = *patch.CheckIn
	}
	if patch.CheckOut != nil {
		sel.CheckOut = *patch.CheckOut
	}
	if patch.Date != nil {
		sel.Date = *patch.Date
	}
	if patch.Quantity != nil {
		sel.Quantity = *patch.Quantity
	}
	if patch.Note != nil {
		s.draft.Note = *patch.Note
	}
	s.refresh()
	return s.draft
}

// RefreshSnapshot swaps in a newer catalog snapshot for advisory checks.
func (s *Session) RefreshSnapshot(item *catalog.Item, existing []*booking.Reservation) {
	if s.draft == nil || item == nil || item.Ref != s.draft.Ref {
		return
	}
	s.item = item
	s.existing = existing
	s.refresh()
}

// Current returns the live draft, or nil when none exists.
func (s *Session) Current() *Draft {
	return s.draft
}

// Clear drops the draft without replacement.
func (s *Session) Clear() {
	s.draft = nil
	s.item = nil
	s.existing = nil
}

// Complete replaces the draft with a reference to the committed
// reservation.
func (s *Session) Complete(id booking.ReservationID) {
	s.Clear()
	s.reservationID = id
}

// ReservationID returns the reservation that superseded the draft, if
// the session has committed.
func (s *Session) ReservationID() booking.ReservationID {
	return s.reservationID
}

// CanSubmit is the advisory submit flag derived from the cached
// snapshot. It may disagree with the server; only the commit protocol's
// own check has effect. A missing snapshot degrades to allowing submit
// and letting the server be authoritative.
func (s *Session) CanSubmit(now time.Time) bool {
	if s.draft == nil {
		return false
	}
	if s.draft.EstimatedCost.Total.Amount <= 0 {
		return false
	}
	if s.item == nil {
		return true
	}
	if err := s.draft.Selection.Validate(s.item.Ref.Variant, now); err != nil {
		return false
	}
	return availability.Check(s.item, s.draft.Selection, s.existing, now).Available
}

func (s *Session) refresh() {
	if s.draft == nil || s.item == nil {
		return
	}
	s.draft.EstimatedCost = s.policy.Cost(s.item, s.draft.Selection)
}
