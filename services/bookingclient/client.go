package bookingclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hamrostay/checkoutservice/lib/myerrors"
	"github.com/hamrostay/checkoutservice/lib/myhttpclient"
	"github.com/hamrostay/checkoutservice/lib/mylog"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/guestidentity"
)

type client struct {
	baseURL string
	sender  myhttpclient.HTTPSender
	logger  mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func New(baseURL string, sender myhttpclient.HTTPSender) *client {
	return &client{
		baseURL: baseURL,
		sender:  sender,
		logger:  mylog.New("bookingclient"),
	}
}

// CreateBooking calls the guest-facing or authenticated booking-creation
// endpoint depending on the identity kind. It never retries: the booking
// backend exposes no idempotency key, so a retry could create a duplicate
// booking.
func (cl *client) CreateBooking(c context.Context, identity guestidentity.Identity, request bookingapi.BookingRequest) (bookingapi.Booking, error) {
	url := cl.baseURL + "/bookings/guest"
	headers := map[string]string{}
	if identity.IsAuthenticated() {
		url = cl.baseURL + "/bookings"
		headers["Authorization"] = "Bearer " + identity.SessionToken
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return bookingapi.Booking{}, myerrors.NewInternalError(fmt.Errorf("error marshalling booking request: %s", err))
	}

	cl.logger.Log(c, request.PropertyUID, mylog.SeverityInfo, "Creating %s booking for property %s", identity.Kind, request.PropertyUID)

	httpStatus, respPayload, err := cl.sender.Send(c, http.MethodPost, url, payload, headers)
	if err != nil {
		return bookingapi.Booking{}, myerrors.NewUnavailableError(fmt.Errorf("error calling booking service: %s", err))
	}

	if httpStatus < 200 || httpStatus >= 300 {
		if httpStatus >= 400 && httpStatus < 500 {
			return bookingapi.Booking{}, myerrors.NewInvalidInputErrorf("booking service rejected the request with status %d", httpStatus)
		}
		return bookingapi.Booking{}, myerrors.NewUnavailableError(fmt.Errorf("booking service returned status %d", httpStatus))
	}

	booking := bookingapi.Booking{}
	err = json.Unmarshal(respPayload, &booking)
	if err != nil {
		return bookingapi.Booking{}, myerrors.NewInternalError(fmt.Errorf("error parsing booking service response: %s", err))
	}

	// A success response without a booking id cannot be acted upon
	if booking.BookingUID == "" {
		return bookingapi.Booking{}, myerrors.NewInternalError(fmt.Errorf("booking service response is missing a bookingId"))
	}

	cl.logger.Log(c, booking.BookingUID, mylog.SeverityInfo, "Created booking %s with status %s", booking.BookingUID, booking.Status)

	return booking, nil
}
