package checkoutapi

import (
	"time"
)

// CheckoutState is the explicit state machine of a single checkout attempt.
// The presentation layer only renders these states, it never owns them.
type CheckoutState string

const (
	CheckoutStateUndefined       CheckoutState = ""
	CheckoutStateCreated         CheckoutState = "CREATED"
	CheckoutStateRouting         CheckoutState = "ROUTING"
	CheckoutStateRedirectPending CheckoutState = "REDIRECT_PENDING"
	CheckoutStateFinalized       CheckoutState = "FINALIZED"
	CheckoutStateFailed          CheckoutState = "FAILED"
)

var allowedTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateUndefined:       {CheckoutStateCreated},
	CheckoutStateCreated:         {CheckoutStateRouting},
	CheckoutStateRouting:         {CheckoutStateRedirectPending, CheckoutStateFinalized, CheckoutStateFailed, CheckoutStateCreated},
	CheckoutStateRedirectPending: {CheckoutStateFinalized, CheckoutStateFailed},
}

// CanTransitionTo reports whether moving to next is a legal step.
// ROUTING may fall back to CREATED when validation or booking-creation
// fails before any money was involved, so the shopper can correct and retry.
func (s CheckoutState) CanTransitionTo(next CheckoutState) bool {
	for _, allowed := range allowedTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// InFlight reports whether a submission is currently being dispatched.
// A second submit in this state must never reach the booking backend.
func (s CheckoutState) InFlight() bool {
	return s == CheckoutStateRouting
}

func (s CheckoutState) Terminal() bool {
	return s == CheckoutStateFinalized || s == CheckoutStateFailed
}

func NewCheckoutContext(sessionUID string, now time.Time) CheckoutContext {
	return CheckoutContext{
		SessionUID: sessionUID,
		CreatedAt:  now,
		State:      CheckoutStateCreated,
	}
}

// CheckoutContext is the per-session checkout record. It survives the
// redirect round-trip to an external payment provider, so it lives in a
// durable store rather than in request memory.
type CheckoutContext struct {
	SessionUID        string
	CreatedAt         time.Time
	LastModified      *time.Time
	State             CheckoutState
	StateDetails      string
	BookingUID        string
	PaymentProvider   string
	PaymentMethod     string
	AmountValue       float64
	AmountCurrency    string
	PropertyUID       string
	PropertyName      string
	OriginalReturnURL string
}
