package checkoutapi

import (
	"fmt"
	"net/http"
	"net/url"

	formcodec "github.com/go-playground/form/v4"

	"github.com/hamrostay/checkoutservice/lib/myerrors"
	"github.com/hamrostay/checkoutservice/services/money"
)

// CheckoutSession is the not-yet-submitted stay selection as posted by the
// frontend checkout form.
type CheckoutSession struct {
	PropertyUID   string    `form:"propertyUid"`
	PropertyName  string    `form:"propertyName"`
	CheckInDate   string    `form:"checkInDate"`
	CheckOutDate  string    `form:"checkOutDate"`
	Occupancy     Occupancy `form:"occupancy"`
	TotalAmount   Amount    `form:"totalAmount"`
	PaymentMethod string    `form:"paymentMethod"`
	ReturnURL     string    `form:"returnUrl"`
	Guest         Guest     `form:"guest"`
}

type Occupancy struct {
	Adults   int `form:"adults"`
	Children int `form:"children"`
}

type Amount struct {
	Value    float64 `form:"value"`
	Currency string  `form:"currency"`
}

// Guest carries the manually supplied contact details of an anonymous
// booking. Empty when the shopper is authenticated.
type Guest struct {
	FirstName   string `form:"firstName"`
	LastName    string `form:"lastName"`
	Email       string `form:"email"`
	CallingCode string `form:"callingCode"`
	Phone       string `form:"phone"`
}

func NewFromRequest(r *http.Request) (CheckoutSession, error) {
	err := r.ParseForm()
	if err != nil {
		return CheckoutSession{}, myerrors.NewInvalidInputError(err)
	}
	return NewFromValues(r.Form)
}

func NewFromValues(values url.Values) (CheckoutSession, error) {
	session := CheckoutSession{}
	err := formcodec.NewDecoder().Decode(&session, values)
	if err != nil {
		return session, fmt.Errorf("error decoding form: %s", err)
	}

	return session, nil
}

func (s CheckoutSession) ToForm() (url.Values, error) {
	values, err := formcodec.NewEncoder().Encode(s)
	if err != nil {
		return nil, fmt.Errorf("error encoding form: %s", err)
	}

	return values, nil
}

func (s CheckoutSession) TotalPrice() (money.Money, error) {
	return money.New(s.TotalAmount.Value, money.Currency(s.TotalAmount.Currency))
}

func (s CheckoutSession) TotalGuests() int {
	return s.Occupancy.Adults + s.Occupancy.Children
}
