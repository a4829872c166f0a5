package pricing

import (
	"roamly/internal/domain/booking"
	"roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/money"
)

// CostBreakdown is the derived cost of a selection. It is immutable
// once attached to a reservation; Total always equals the sum of its
// parts.
type CostBreakdown struct {
	Subtotal    money.Money
	CleaningFee money.Money
	ServiceFee  money.Money
	Total       money.Money
}

// IsZero reports an all-zero breakdown, the "not ready to commit" shape
// produced for empty quantities.
func (c CostBreakdown) IsZero() bool {
	return c.Total.IsZero() && c.Subtotal.IsZero() && c.CleaningFee.IsZero() && c.ServiceFee.IsZero()
}

// Equal compares every component.
func (c CostBreakdown) Equal(other CostBreakdown) bool {
	return c.Subtotal.Equal(other.Subtotal) &&
		c.CleaningFee.Equal(other.CleaningFee) &&
		c.ServiceFee.Equal(other.ServiceFee) &&
		c.Total.Equal(other.Total)
}

// Policy computes authoritative cost breakdowns. It is pure: no I/O,
// identical inputs always produce identical output.
type Policy struct {
	// OrderFee is the flat per-order service fee charged on event and
	// experience bookings.
	OrderFee money.Money
}

// Cost maps an item and a selection onto a breakdown. Non-positive
// nights, tickets or guests yield an all-zero breakdown; callers treat
// that as not submittable, never as a free booking.
func (p Policy) Cost(item *catalog.Item, sel booking.Selection) CostBreakdown {
	zero := item.BasePrice.Zero()
	out := CostBreakdown{Subtotal: zero, CleaningFee: zero, ServiceFee: zero, Total: zero}

	switch item.Ref.Variant {
	case catalog.VariantStay:
		nights := sel.Nights()
		if nights <= 0 || item.Stay == nil {
			return out
		}
		out.Subtotal = item.BasePrice.Multiply(int64(nights))
		out.CleaningFee = item.Stay.CleaningFee
		out.ServiceFee = out.Subtotal.ApplyBps(item.Stay.ServiceFeeBps)
	case catalog.VariantEvent, catalog.VariantExperience:
		if sel.Quantity <= 0 {
			return out
		}
		out.Subtotal = item.BasePrice.Multiply(int64(sel.Quantity))
		out.ServiceFee = p.orderFee(item.BasePrice.Currency)
	default:
		return out
	}

	total := out.Subtotal
	total, _ = total.Add(out.CleaningFee)
	total, _ = total.Add(out.ServiceFee)
	out.Total = total
	return out
}

func (p Policy) orderFee(currency string) money.Money {
	if p.OrderFee.Currency == currency && p.OrderFee.Amount > 0 {
		return p.OrderFee
	}
	return money.Money{Amount: 0, Currency: currency}
}
