package checkoutonsite

import (
	"context"
	"fmt"

	"github.com/hamrostay/checkoutservice/lib/myerrors"
	"github.com/hamrostay/checkoutservice/lib/mylog"
	"github.com/hamrostay/checkoutservice/lib/mypublisher"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/checkoutevents"
)

const providerName = "onsite"

// service settles a checkout without any payment provider: the guest pays
// cash at the property and the booking is confirmed right away.
type service struct {
	logger    mylog.Logger
	publisher mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func New(publisher mypublisher.Publisher) *service {
	return &service{
		logger:    mylog.New("checkoutonsite"),
		publisher: publisher,
	}
}

// Initiate completes synchronously. The empty redirect handle tells the
// orchestrator that no browser hand-off is needed.
func (s *service) Initiate(c context.Context, order bookingapi.PaymentOrder) (bookingapi.RedirectHandle, error) {
	s.logger.Log(c, order.SessionUID, mylog.SeverityInfo, "Booking %s will be paid at the property", order.Booking.BookingUID)

	err := s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
		ProviderName:   providerName,
		SessionUID:     order.SessionUID,
		BookingUID:     order.Booking.BookingUID,
		PaymentMethod:  string(bookingapi.PaymentMethodPayAtProperty),
		CheckoutStatus: checkoutevents.CheckoutStatusSuccess,
		StatusDetails:  "payment will be collected at the property",
	})
	if err != nil {
		return bookingapi.RedirectHandle{}, myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
	}

	return bookingapi.RedirectHandle{}, nil
}
