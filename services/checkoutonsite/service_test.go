package checkoutonsite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/hamrostay/checkoutservice/lib/mypublisher"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/checkoutevents"
)

func TestOnsiteCheckout(t *testing.T) {

	t.Run("Completes synchronously without a redirect", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		publisher := mypublisher.NewMockPublisher(ctrl)
		sut := New(publisher)

		// given
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			ProviderName:   "onsite",
			SessionUID:     "sess_1",
			BookingUID:     "bk_1",
			PaymentMethod:  "PAY_AT_PROPERTY",
			CheckoutStatus: checkoutevents.CheckoutStatusSuccess,
			StatusDetails:  "payment will be collected at the property",
		}).Return(nil)

		// when
		handle, err := sut.Initiate(context.TODO(), bookingapi.PaymentOrder{
			SessionUID: "sess_1",
			Booking: bookingapi.Booking{
				BookingUID:    "bk_1",
				Status:        "CONFIRMED",
				TotalPrice:    6850,
				PaymentMethod: bookingapi.PaymentMethodPayAtProperty,
			},
			PropertyUID: "prop_1",
		})

		// then
		assert.NoError(t, err)
		assert.False(t, handle.Redirects())
	})
}
