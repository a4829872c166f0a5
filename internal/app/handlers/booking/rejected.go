package booking

import "fmt"

// Reason classifies why a booking operation was refused.
type Reason string

const (
	// ReasonNotFound: referenced item or reservation does not exist. Fatal.
	ReasonNotFound Reason = "not_found"
	// ReasonUnavailable: date/ticket/slot conflict. Recoverable with a
	// new selection.
	ReasonUnavailable Reason = "unavailable"
	// ReasonConflict: lost a race at the durable-store boundary.
	// Recoverable by re-fetching availability and retrying.
	ReasonConflict Reason = "conflict"
	// ReasonInvalidSelection: zero quantity, past date, mismatched
	// weekday or malformed range. Caught before any write.
	ReasonInvalidSelection Reason = "invalid_selection"
	// ReasonInvalidState: the reservation is not in a state that allows
	// the operation.
	ReasonInvalidState Reason = "invalid_state"
	// ReasonForbidden: the caller does not own the reservation.
	ReasonForbidden Reason = "forbidden"
	// ReasonUpstreamPayment: the payment collaborator failed; the
	// reservation stays PENDING_PAYMENT and may be retried or cancelled.
	ReasonUpstreamPayment Reason = "upstream_payment"
)

// RejectedError is the structured outcome for refused operations.
// Callers branch on Reason; Retryable separates user-recoverable
// rejections from fatal ones.
type RejectedError struct {
	Reason    Reason
	Retryable bool
	Detail    string
	Err       error
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("booking rejected (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("booking rejected (%s)", e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

func rejected(reason Reason, retryable bool, detail string) *RejectedError {
	return &RejectedError{Reason: reason, Retryable: retryable, Detail: detail}
}
