package bookingapi

import (
	"fmt"

	"github.com/hamrostay/checkoutservice/lib/myerrors"
	"github.com/hamrostay/checkoutservice/services/checkoutapi"
	"github.com/hamrostay/checkoutservice/services/guestidentity"
)

// NewBookingRequest assembles the canonical booking request from the
// checkout session and the resolved identity. Pure: same inputs yield the
// same request. An unrecognized payment-method token fails fast so it never
// reaches the network.
func NewBookingRequest(session checkoutapi.CheckoutSession, identity guestidentity.Identity) (BookingRequest, error) {
	method, found := paymentMethodTokens[session.PaymentMethod]
	if !found {
		return BookingRequest{}, myerrors.NewInternalError(fmt.Errorf("unrecognized payment-method token %q", session.PaymentMethod))
	}

	request := BookingRequest{
		PropertyUID:   session.PropertyUID,
		CheckInDate:   session.CheckInDate,
		CheckOutDate:  session.CheckOutDate,
		TotalGuests:   session.TotalGuests(),
		PaymentMethod: method,
	}

	if !identity.IsAuthenticated() {
		guest := identity.Guest
		request.GuestName = guest.FirstName + " " + guest.LastName
		request.GuestEmail = guest.Email
		request.GuestPhone = guestidentity.FormatPhone(guest.CallingCode, guest.Phone)
	}

	return request, nil
}
