package policies

import (
	"context"

	"roamly/internal/domain/shared/money"
)

// RedirectHandle is what the external payment collaborator returns for
// a started charge; the guest finishes payment at the URL.
type RedirectHandle struct {
	RedirectURL string
	Reference   string
}

// PaymentsPort forwards an amount to the payment collaborator. The
// port never mutates reservation state; confirmation arrives through
// the provider callback, which is outside this core.
type PaymentsPort interface {
	InitCharge(ctx context.Context, amount money.Money, payerEmail, reference string) (RedirectHandle, error)
}
