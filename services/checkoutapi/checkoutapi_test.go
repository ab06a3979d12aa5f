package checkoutapi

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hamrostay/checkoutservice/services/money"
)

func TestNewFromValues(t *testing.T) {
	values, err := url.ParseQuery(`propertyUid=prop_1&propertyName=Lakeside+Homestay&checkInDate=2026-04-01&checkOutDate=2026-04-05&occupancy.adults=2&occupancy.children=1&totalAmount.value=5000&totalAmount.currency=NPR&paymentMethod=payAtProperty&returnUrl=http://localhost:3000/booking/result&guest.firstName=Sita&guest.lastName=Rai&guest.email=sita@example.com&guest.callingCode=%2B977&guest.phone=9841234567`)
	assert.NoError(t, err)

	session, err := NewFromValues(values)
	assert.NoError(t, err)

	assert.Equal(t, "prop_1", session.PropertyUID)
	assert.Equal(t, "Lakeside Homestay", session.PropertyName)
	assert.Equal(t, 3, session.TotalGuests())
	assert.Equal(t, "payAtProperty", session.PaymentMethod)
	assert.Equal(t, "+977", session.Guest.CallingCode)

	price, err := session.TotalPrice()
	assert.NoError(t, err)
	assert.Equal(t, money.Money{Amount: 5000, Currency: money.NPR}, price)
}

func TestFormRoundTrip(t *testing.T) {
	session := CheckoutSession{
		PropertyUID:   "prop_1",
		CheckInDate:   "2026-04-01",
		CheckOutDate:  "2026-04-05",
		Occupancy:     Occupancy{Adults: 2},
		TotalAmount:   Amount{Value: 6850, Currency: "NPR"},
		PaymentMethod: "card",
		ReturnURL:     "http://localhost:3000/booking/result",
	}

	values, err := session.ToForm()
	assert.NoError(t, err)

	decoded, err := NewFromValues(values)
	assert.NoError(t, err)
	assert.Equal(t, session, decoded)
}

func TestStateMachine(t *testing.T) {
	testCases := []struct {
		from    CheckoutState
		to      CheckoutState
		allowed bool
	}{
		{CheckoutStateUndefined, CheckoutStateCreated, true},
		{CheckoutStateCreated, CheckoutStateRouting, true},
		{CheckoutStateCreated, CheckoutStateFinalized, false},
		{CheckoutStateRouting, CheckoutStateRedirectPending, true},
		{CheckoutStateRouting, CheckoutStateFinalized, true},
		{CheckoutStateRouting, CheckoutStateFailed, true},
		{CheckoutStateRouting, CheckoutStateCreated, true},
		{CheckoutStateRedirectPending, CheckoutStateFinalized, true},
		{CheckoutStateRedirectPending, CheckoutStateFailed, true},
		{CheckoutStateRedirectPending, CheckoutStateRouting, false},
		{CheckoutStateFinalized, CheckoutStateFailed, false},
		{CheckoutStateFailed, CheckoutStateRouting, false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}

	assert.True(t, CheckoutStateRouting.InFlight())
	assert.False(t, CheckoutStateRedirectPending.InFlight())
	assert.True(t, CheckoutStateFinalized.Terminal())
	assert.True(t, CheckoutStateFailed.Terminal())
	assert.False(t, CheckoutStateRouting.Terminal())
}
