package bookingclient

import (
	"context"

	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/guestidentity"
)

//go:generate mockgen -source=api.go -package bookingclient -destination client_mock.go BookingCreator
type BookingCreator interface {
	CreateBooking(c context.Context, identity guestidentity.Identity, request bookingapi.BookingRequest) (bookingapi.Booking, error)
}
