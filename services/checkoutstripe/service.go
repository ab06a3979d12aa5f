package checkoutstripe

import (
	"context"
	"fmt"
	"net/url"

	"github.com/stripe/stripe-go/v74"

	"github.com/hamrostay/checkoutservice/lib/myerrors"
	"github.com/hamrostay/checkoutservice/lib/mylog"
	"github.com/hamrostay/checkoutservice/lib/mypublisher"
	"github.com/hamrostay/checkoutservice/lib/mystore"
	"github.com/hamrostay/checkoutservice/lib/mytime"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/checkoutapi"
	"github.com/hamrostay/checkoutservice/services/checkoutevents"
)

const (
	providerName = "stripe"

	// Stripe rejects USD charges below 50 cents, so we refuse them before
	// making a network call.
	minimumAmountCents = 50
)

type service struct {
	siteURL       string
	payer         Payer
	logger        mylog.Logger
	nower         mytime.Nower
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	publisher     mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(apiKey string, siteURL string, payer Payer, logger mylog.Logger, nower mytime.Nower, checkoutStore mystore.Store[checkoutapi.CheckoutContext], publisher mypublisher.Publisher) *service {
	payer.UseAPIKey(apiKey)
	return &service{
		siteURL:       siteURL,
		payer:         payer,
		logger:        logger,
		nower:         nower,
		checkoutStore: checkoutStore,
		publisher:     publisher,
	}
}

// initiate opens a hosted checkout session on the Stripe platform. The local
// NPR total is converted to USD at the fixed published rate because Stripe
// does not settle in NPR.
func (s *service) initiate(c context.Context, order bookingapi.PaymentOrder) (bookingapi.RedirectHandle, error) {
	s.logger.Log(c, order.SessionUID, mylog.SeverityInfo, "Start stripe checkout for booking %s", order.Booking.BookingUID)

	total, err := order.Booking.TotalMoney()
	if err != nil {
		return bookingapi.RedirectHandle{}, err
	}

	amountCents := total.ToUSD().MinorUnits()
	if amountCents < minimumAmountCents {
		return bookingapi.RedirectHandle{}, myerrors.NewInvalidInputErrorf(
			"amount %s converts to %d usd-cent, below the stripe minimum of %d", total, amountCents, minimumAmountCents)
	}

	session, err := s.payer.CreateCheckoutSession(c, s.composeSessionParams(order, amountCents))
	if err != nil {
		return bookingapi.RedirectHandle{}, err
	}

	err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutStarted{
		ProviderName:     providerName,
		SessionUID:       order.SessionUID,
		BookingUID:       order.Booking.BookingUID,
		AmountMinorUnits: amountCents,
		Currency:         "USD",
		PropertyUID:      order.PropertyUID,
	})
	if err != nil {
		return bookingapi.RedirectHandle{}, myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
	}

	return bookingapi.RedirectHandle{URL: session.URL}, nil
}

func (s *service) composeSessionParams(order bookingapi.PaymentOrder, amountCents int64) stripe.CheckoutSessionParams {
	return stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(fmt.Sprintf("%s/stripe/checkout/%s/status/success", s.siteURL, order.SessionUID)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/stripe/checkout/%s/status/cancel", s.siteURL, order.SessionUID)),
		ClientReferenceID: stripe.String(order.SessionUID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(order.PropertyName),
						Description: stripe.String(fmt.Sprintf("Stay from %s to %s for %d guests",
							order.Booking.CheckInDate, order.Booking.CheckOutDate, order.Booking.TotalGuests)),
					},
					UnitAmount: stripe.Int64(amountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		Currency:           stripe.String("usd"),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"bookingId":    order.Booking.BookingUID,
				"sessionUid":   order.SessionUID,
				"propertyId":   order.PropertyUID,
				"checkInDate":  order.Booking.CheckInDate,
				"checkOutDate": order.Booking.CheckOutDate,
				"totalGuests":  fmt.Sprintf("%d", order.Booking.TotalGuests),
				"amountNpr":    fmt.Sprintf("%.2f", order.Booking.TotalPrice),
				"createdAt":    s.nower.Now().Format("2006-01-02T15:04:05Z07:00"),
			},
		},
	}
}

// finalizeCheckout is triggered when the shopper lands back on one of our
// return pages. Replays of the same return are tolerated.
func (s *service) finalizeCheckout(c context.Context, sessionUID string, status string) (string, error) {
	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Redirect (start): stripe checkout completed for session %s -> %s", sessionUID, status)

	now := s.nower.Now()

	nextState := checkoutapi.CheckoutStateFailed
	checkoutStatus := checkoutevents.CheckoutStatusCancelled
	details := "shopper cancelled on the stripe payment page"
	if status == "success" {
		nextState = checkoutapi.CheckoutStateFinalized
		checkoutStatus = checkoutevents.CheckoutStatusSuccess
		details = "payment completed via stripe hosted checkout"
	}

	adjustedReturnURL := ""
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, sessionUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", sessionUID, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", sessionUID))
		}

		adjustedReturnURL, err = addStatusQueryParam(checkoutContext.OriginalReturnURL, status)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error adjusting url: %s", err))
		}

		if checkoutContext.State == nextState {
			// replayed return page
			return nil
		}
		if !checkoutContext.State.CanTransitionTo(nextState) {
			return myerrors.NewConflictError(fmt.Errorf("checkout %s cannot move from %s to %s", sessionUID, checkoutContext.State, nextState))
		}

		checkoutContext.State = nextState
		checkoutContext.StateDetails = details
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, sessionUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			ProviderName:   providerName,
			SessionUID:     sessionUID,
			BookingUID:     checkoutContext.BookingUID,
			PaymentMethod:  checkoutContext.PaymentMethod,
			CheckoutStatus: checkoutStatus,
			StatusDetails:  details,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Redirect (done): stripe checkout completed for session %s -> %s", sessionUID, status)

	return adjustedReturnURL, nil
}

func addStatusQueryParam(orgURL string, status string) (string, error) {
	u, err := url.Parse(orgURL)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error parsing return URL %s: %s", orgURL, err))
	}
	params := u.Query()
	params.Set("status", status)
	u.RawQuery = params.Encode()
	return u.String(), nil
}
