package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/hamrostay/checkoutservice/lib/mystore"
	"github.com/hamrostay/checkoutservice/lib/mytime"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/bookingclient"
	"github.com/hamrostay/checkoutservice/services/checkoutapi"
	"github.com/hamrostay/checkoutservice/services/guestidentity"
)

const jwtSecret = "my_jwt_secret"

var booking = bookingapi.Booking{
	BookingUID:    "bk_1",
	Status:        "PENDING",
	TotalPrice:    6850,
	CheckInDate:   "2026-04-01",
	CheckOutDate:  "2026-04-05",
	TotalGuests:   3,
	PaymentMethod: bookingapi.PaymentMethodCard,
}

func TestCheckout(t *testing.T) {

	t.Run("Anonymous pay-at-property checkout finalizes synchronously", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, creator, adapters, nower := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// given
		onsiteBooking := booking
		onsiteBooking.Status = "CONFIRMED"
		onsiteBooking.PaymentMethod = bookingapi.PaymentMethodPayAtProperty
		creator.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(c context.Context, identity guestidentity.Identity, request bookingapi.BookingRequest) (bookingapi.Booking, error) {
				assert.Equal(t, guestidentity.KindAnonymous, identity.Kind)
				assert.Equal(t, bookingapi.PaymentMethodPayAtProperty, request.PaymentMethod)
				assert.Equal(t, "Sita Rai", request.GuestName)
				assert.Equal(t, "+9779841234567", request.GuestPhone)
				assert.Equal(t, 3, request.TotalGuests)
				return onsiteBooking, nil
			})
		adapters[bookingapi.PaymentMethodPayAtProperty].Adapter.(*MockPaymentAdapter).EXPECT().
			Initiate(gomock.Any(), gomock.Any()).Return(bookingapi.RedirectHandle{}, nil)

		// when
		response := submit(router, checkoutForm("payAtProperty"), "")

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "FINALIZED")
		assert.Contains(t, response.Body.String(), "bk_1")

		checkout, exists, _ := storer.Get(ctx, "sess_1")
		assert.True(t, exists)
		assert.Equal(t, checkoutapi.CheckoutStateFinalized, checkout.State)
		assert.Equal(t, "bk_1", checkout.BookingUID)
		assert.Equal(t, "onsite", checkout.PaymentProvider)
	})

	t.Run("Card checkout redirects to the payment page", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, creator, adapters, nower := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// given
		creator.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).Return(booking, nil)
		adapters[bookingapi.PaymentMethodCard].Adapter.(*MockPaymentAdapter).EXPECT().
			Initiate(gomock.Any(), bookingapi.PaymentOrder{
				SessionUID:   "sess_1",
				Booking:      booking,
				PropertyUID:  "prop_1",
				PropertyName: "Lakeside Homestay",
				ReturnURL:    "http://localhost:3000/booking/result",
			}).
			Return(bookingapi.RedirectHandle{URL: "https://checkout.stripe.com/pay/cs_test_456"}, nil)

		// when
		response := submit(router, checkoutForm("card"), "")

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_456", response.Header().Get("Location"))

		checkout, exists, _ := storer.Get(ctx, "sess_1")
		assert.True(t, exists)
		assert.Equal(t, checkoutapi.CheckoutStateRedirectPending, checkout.State)
		assert.Equal(t, "stripe", checkout.PaymentProvider)
		assert.Equal(t, "CARD", checkout.PaymentMethod)
	})

	t.Run("Authenticated checkout forwards the platform user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, creator, adapters, nower := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// given
		creator.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(c context.Context, identity guestidentity.Identity, request bookingapi.BookingRequest) (bookingapi.Booking, error) {
				assert.True(t, identity.IsAuthenticated())
				assert.Equal(t, "user_1", identity.UserUID)
				assert.Empty(t, request.GuestName)
				return booking, nil
			})
		adapters[bookingapi.PaymentMethodCard].Adapter.(*MockPaymentAdapter).EXPECT().
			Initiate(gomock.Any(), gomock.Any()).
			Return(bookingapi.RedirectHandle{URL: "https://checkout.stripe.com/pay/cs_test_456"}, nil)

		// when: no guest fields at all, only a session token
		form := checkoutForm("card")
		form.Del("guest.firstName")
		form.Del("guest.lastName")
		form.Del("guest.email")
		form.Del("guest.callingCode")
		form.Del("guest.phone")
		response := submit(router, form, "Bearer "+signedToken(t, "user_1"))

		// then
		assert.Equal(t, 303, response.Code)
	})

	t.Run("Invalid guest details never reach the booking backend", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// given: no creator nor adapter expectation was registered
		form := checkoutForm("card")
		form.Set("guest.email", "not-an-email")

		// when
		response := submit(router, form, "")

		// then
		assert.Equal(t, 400, response.Code)
		assert.Contains(t, response.Body.String(), "email")

		checkout, exists, _ := storer.Get(ctx, "sess_1")
		assert.True(t, exists)
		assert.Equal(t, checkoutapi.CheckoutStateCreated, checkout.State)
	})

	t.Run("Phone must match the selected calling code", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, nower := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// given: a Nepali mobile number has 10 digits starting with 96-98
		form := checkoutForm("card")
		form.Set("guest.phone", "12345")

		// when
		response := submit(router, form, "")

		// then
		assert.Equal(t, 400, response.Code)
		assert.Contains(t, response.Body.String(), "phone")
	})

	t.Run("Second submit of an in-flight session is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// given: the first submit is still being dispatched
		_ = storer.Put(ctx, "sess_1", checkoutapi.CheckoutContext{
			SessionUID: "sess_1",
			CreatedAt:  mytime.ExampleTime.Add(-1 * time.Second),
			State:      checkoutapi.CheckoutStateRouting,
		})

		// when: no creator expectation was registered, a pass-through would fail the test
		response := submit(router, checkoutForm("card"), "")

		// then
		assert.Equal(t, 409, response.Code)
	})

	t.Run("Resubmit after a completed checkout is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// given
		_ = storer.Put(ctx, "sess_1", checkoutapi.CheckoutContext{
			SessionUID: "sess_1",
			State:      checkoutapi.CheckoutStateFinalized,
		})

		// when
		response := submit(router, checkoutForm("card"), "")

		// then
		assert.Equal(t, 409, response.Code)
	})

	t.Run("Booking backend failure releases the session for retry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, creator, _, nower := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// given
		creator.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(bookingapi.Booking{}, assert.AnError)

		// when
		response := submit(router, checkoutForm("card"), "")

		// then
		assert.Equal(t, 502, response.Code)

		checkout, exists, _ := storer.Get(ctx, "sess_1")
		assert.True(t, exists)
		assert.Equal(t, checkoutapi.CheckoutStateCreated, checkout.State)
	})

	t.Run("Payment initiation failure reports the created booking", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, creator, adapters, nower := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// given
		creator.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).Return(booking, nil)
		adapters[bookingapi.PaymentMethodCard].Adapter.(*MockPaymentAdapter).EXPECT().
			Initiate(gomock.Any(), gomock.Any()).
			Return(bookingapi.RedirectHandle{}, assert.AnError)

		// when
		response := submit(router, checkoutForm("card"), "")

		// then
		assert.Equal(t, 502, response.Code)
		assert.Contains(t, response.Body.String(), "was created but the payment could not be completed")
		assert.Contains(t, response.Body.String(), "bk_1")

		checkout, exists, _ := storer.Get(ctx, "sess_1")
		assert.True(t, exists)
		assert.Equal(t, checkoutapi.CheckoutStateFailed, checkout.State)
		assert.Equal(t, "bk_1", checkout.BookingUID)
	})

	t.Run("Status endpoint renders the stored state", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, _ := setup(t, ctrl)

		// given
		_ = storer.Put(ctx, "sess_1", checkoutapi.CheckoutContext{
			SessionUID:      "sess_1",
			State:           checkoutapi.CheckoutStateRedirectPending,
			BookingUID:      "bk_1",
			PaymentMethod:   "WALLET",
			PaymentProvider: "khalti",
		})

		// when
		request, err := http.NewRequest(http.MethodGet, "/checkout/sess_1", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "REDIRECT_PENDING")
		assert.Contains(t, response.Body.String(), "khalti")
	})

	t.Run("Status of an unknown session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/checkout/unknown", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 404, response.Code)
	})
}

func checkoutForm(paymentMethod string) url.Values {
	return url.Values{
		"propertyUid":          {"prop_1"},
		"propertyName":         {"Lakeside Homestay"},
		"checkInDate":          {"2026-04-01"},
		"checkOutDate":         {"2026-04-05"},
		"occupancy.adults":     {"2"},
		"occupancy.children":   {"1"},
		"totalAmount.value":    {"6850"},
		"totalAmount.currency": {"NPR"},
		"paymentMethod":        {paymentMethod},
		"returnUrl":            {"http://localhost:3000/booking/result"},
		"guest.firstName":      {"Sita"},
		"guest.lastName":       {"Rai"},
		"guest.email":          {"sita@example.com"},
		"guest.callingCode":    {"+977"},
		"guest.phone":          {"9841234567"},
	}
}

func submit(router *mux.Router, form url.Values, authorizationHeader string) *httptest.ResponseRecorder {
	request, _ := http.NewRequest(http.MethodPost, "/checkout/sess_1", strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if authorizationHeader != "" {
		request.Header.Set("Authorization", authorizationHeader)
	}
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func signedToken(t *testing.T, userUID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userUID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(jwtSecret))
	assert.NoError(t, err)
	return signed
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[checkoutapi.CheckoutContext], *bookingclient.MockBookingCreator, AdapterRegistry, *mytime.MockNower) {
	c := context.TODO()
	storer, _, _ := mystore.NewInMemoryStore[checkoutapi.CheckoutContext](c)
	creator := bookingclient.NewMockBookingCreator(ctrl)
	nower := mytime.NewMockNower(ctrl)
	adapters := AdapterRegistry{
		bookingapi.PaymentMethodCard:          {ProviderName: "stripe", Adapter: NewMockPaymentAdapter(ctrl)},
		bookingapi.PaymentMethodWallet:        {ProviderName: "khalti", Adapter: NewMockPaymentAdapter(ctrl)},
		bookingapi.PaymentMethodPayAtProperty: {ProviderName: "onsite", Adapter: NewMockPaymentAdapter(ctrl)},
	}

	sut := NewWebService(storer, guestidentity.NewResolver(jwtSecret), creator, adapters, nower)
	router := mux.NewRouter()
	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, storer, creator, adapters, nower
}
