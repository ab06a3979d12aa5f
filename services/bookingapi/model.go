package bookingapi

import (
	"github.com/hamrostay/checkoutservice/services/money"
)

// PaymentMethod is the provider-neutral enum the booking backend expects.
type PaymentMethod string

const (
	PaymentMethodCard          PaymentMethod = "CARD"
	PaymentMethodWallet        PaymentMethod = "WALLET"
	PaymentMethodPayAtProperty PaymentMethod = "PAY_AT_PROPERTY"
)

// paymentMethodTokens maps the tokens used by the checkout form onto the
// backend enum. An unknown token is a programming-contract violation of the
// frontend, not a user error.
var paymentMethodTokens = map[string]PaymentMethod{
	"card":          PaymentMethodCard,
	"wallet":        PaymentMethodWallet,
	"payAtProperty": PaymentMethodPayAtProperty,
}

// BookingRequest is the canonical payload for the booking-creation endpoint.
// It is derived deterministically from the checkout session and never
// persisted beyond a single submission attempt.
type BookingRequest struct {
	PropertyUID   string        `json:"propertyId"`
	CheckInDate   string        `json:"checkInDate"`
	CheckOutDate  string        `json:"checkOutDate"`
	TotalGuests   int           `json:"totalGuests"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	GuestName     string        `json:"guestName,omitempty"`
	GuestEmail    string        `json:"guestEmail,omitempty"`
	GuestPhone    string        `json:"guestPhone,omitempty"`
}

// Booking is the server-assigned result of booking creation. Status
// transitions are owned by the booking backend; this service only observes
// them.
type Booking struct {
	BookingUID     string        `json:"bookingId"`
	Status         string        `json:"status"`
	TotalPrice     float64       `json:"totalPrice"`
	CheckInDate    string        `json:"checkInDate"`
	CheckOutDate   string        `json:"checkOutDate"`
	TotalGuests    int           `json:"totalGuests"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	TransactionUID string        `json:"transactionId,omitempty"`
}

// TotalMoney returns the booking total in the platform's local currency.
func (b Booking) TotalMoney() (money.Money, error) {
	return money.New(b.TotalPrice, money.NPR)
}

// PaymentOrder is what a payment adapter needs to initiate fulfilment of a
// created booking.
type PaymentOrder struct {
	SessionUID   string
	Booking      Booking
	PropertyUID  string
	PropertyName string
	ReturnURL    string
}

// RedirectHandle is the outcome of a successful payment initiation. An empty
// URL means the adapter completed synchronously and no browser hand-off is
// needed.
type RedirectHandle struct {
	URL string
}

func (h RedirectHandle) Redirects() bool {
	return h.URL != ""
}
