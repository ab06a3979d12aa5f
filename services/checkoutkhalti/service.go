package checkoutkhalti

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/hamrostay/checkoutservice/lib/myerrors"
	"github.com/hamrostay/checkoutservice/lib/mylog"
	"github.com/hamrostay/checkoutservice/lib/mypublisher"
	"github.com/hamrostay/checkoutservice/lib/myqueue"
	"github.com/hamrostay/checkoutservice/lib/mystore"
	"github.com/hamrostay/checkoutservice/lib/mytime"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/checkoutapi"
	"github.com/hamrostay/checkoutservice/services/checkoutevents"
)

const (
	providerName = "khalti"

	// Khalti refuses wallet payments below 10 rupees, so we refuse them
	// before making a network call.
	minimumAmountPaisa = 1000

	// An unconfirmed wallet payment is swept after this period.
	pendingExpiry = 45 * time.Minute
)

type service struct {
	siteURL       string
	payer         Payer
	logger        mylog.Logger
	nower         mytime.Nower
	pendingStore  mystore.Store[PendingPayment]
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	queuer        myqueue.TaskQueuer
	publisher     mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(siteURL string, payer Payer, logger mylog.Logger, nower mytime.Nower, pendingStore mystore.Store[PendingPayment], checkoutStore mystore.Store[checkoutapi.CheckoutContext], queuer myqueue.TaskQueuer, publisher mypublisher.Publisher) *service {
	return &service{
		siteURL:       siteURL,
		payer:         payer,
		logger:        logger,
		nower:         nower,
		pendingStore:  pendingStore,
		checkoutStore: checkoutStore,
		queuer:        queuer,
		publisher:     publisher,
	}
}

// initiate opens a wallet payment on the Khalti platform. The pending-payment
// marker is persisted before the provider is called, so a crash between the
// two can never leave a confirmable payment without a marker.
func (s *service) initiate(c context.Context, order bookingapi.PaymentOrder) (bookingapi.RedirectHandle, error) {
	bookingUID := order.Booking.BookingUID
	s.logger.Log(c, order.SessionUID, mylog.SeverityInfo, "Start khalti checkout for booking %s", bookingUID)

	total, err := order.Booking.TotalMoney()
	if err != nil {
		return bookingapi.RedirectHandle{}, err
	}

	amountPaisa := total.MinorUnits()
	if amountPaisa < minimumAmountPaisa {
		return bookingapi.RedirectHandle{}, myerrors.NewInvalidInputErrorf(
			"amount %s is %d paisa, below the khalti minimum of %d", total, amountPaisa, minimumAmountPaisa)
	}

	now := s.nower.Now()
	err = s.pendingStore.Put(c, bookingUID, PendingPayment{
		BookingUID:       bookingUID,
		SessionUID:       order.SessionUID,
		AmountMinorUnits: amountPaisa,
		ReturnURL:        order.ReturnURL,
		CreatedAt:        now,
	})
	if err != nil {
		return bookingapi.RedirectHandle{}, myerrors.NewInternalError(fmt.Errorf("error storing pending payment: %s", err))
	}

	resp, err := s.payer.Initiate(c, initiateRequest{
		ReturnURL:         fmt.Sprintf("%s/khalti/checkout/callback?bookingId=%s&paymentMethod=WALLET", s.siteURL, bookingUID),
		WebsiteURL:        s.siteURL,
		Amount:            amountPaisa,
		PurchaseOrderUID:  bookingUID,
		PurchaseOrderName: order.PropertyName,
	})
	if err != nil {
		// Initiation never happened, the marker has nothing to confirm
		deleteErr := s.pendingStore.Delete(c, bookingUID)
		if deleteErr != nil {
			s.logger.Log(c, order.SessionUID, mylog.SeverityWarn, "Error removing stale pending payment for booking %s: %s", bookingUID, deleteErr)
		}
		return bookingapi.RedirectHandle{}, err
	}

	err = s.pendingStore.RunInTransaction(c, func(c context.Context) error {
		pending, found, err := s.pendingStore.Get(c, bookingUID)
		if err != nil || !found {
			return myerrors.NewInternalError(fmt.Errorf("error refetching pending payment for booking %s: %s", bookingUID, err))
		}

		pending.ProviderReference = resp.Pidx
		err = s.pendingStore.Put(c, bookingUID, pending)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing pending payment: %s", err))
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutStarted{
			ProviderName:     providerName,
			SessionUID:       order.SessionUID,
			BookingUID:       bookingUID,
			AmountMinorUnits: amountPaisa,
			Currency:         "NPR",
			PropertyUID:      order.PropertyUID,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return bookingapi.RedirectHandle{}, err
	}

	err = s.queuer.Enqueue(c, myqueue.Task{
		UID:            "khalti-expiry-" + bookingUID,
		WebhookURLPath: "/khalti/checkout/expiry/" + bookingUID,
		Payload:        []byte("{}"),
		NotBefore:      now.Add(pendingExpiry),
	})
	if err != nil {
		// Not fatal: the payment is already initiated and the callback still
		// reconciles it, only the sweep for an abandoned redirect is missing
		s.logger.Log(c, order.SessionUID, mylog.SeverityWarn, "Error enqueuing expiry task for booking %s: %s", bookingUID, err)
	}

	return bookingapi.RedirectHandle{URL: resp.PaymentURL}, nil
}

// reconcile asks Khalti whether the wallet payment actually went through and
// only then consumes the pending-payment marker. Verification comes first:
// when the lookup fails transiently the marker survives, so a retried
// callback or the expiry sweep can still settle the payment. A replayed
// callback finds no marker and can claim neither success nor failure.
func (s *service) reconcile(c context.Context, bookingUID string) (string, error) {
	s.logger.Log(c, bookingUID, mylog.SeverityInfo, "Callback (start): reconciling wallet payment for booking %s", bookingUID)

	now := s.nower.Now()

	pending, found, err := s.pendingStore.Get(c, bookingUID)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error fetching pending payment for booking %s: %s", bookingUID, err))
	}
	if !found {
		return "", myerrors.NewUnconfirmedErrorf("payment for booking %s cannot be confirmed from this link, check the booking status", bookingUID)
	}

	lookup, err := s.payer.Lookup(c, lookupRequest{Pidx: pending.ProviderReference})
	if err != nil {
		s.logger.Log(c, bookingUID, mylog.SeverityWarn, "Error verifying wallet payment for booking %s: %s", bookingUID, err)
		return "", myerrors.NewUnconfirmedErrorf("payment for booking %s could not be verified yet, check the booking status", bookingUID)
	}

	// The lookup was definitive, consume the marker so only one outcome counts
	consumed := false
	err = s.pendingStore.RunInTransaction(c, func(c context.Context) error {
		_, stillThere, err := s.pendingStore.Get(c, bookingUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error refetching pending payment for booking %s: %s", bookingUID, err))
		}
		if !stillThere {
			return nil
		}
		consumed = true

		return s.pendingStore.Delete(c, bookingUID)
	})
	if err != nil {
		return "", err
	}
	if !consumed {
		return "", myerrors.NewUnconfirmedErrorf("payment for booking %s cannot be confirmed from this link, check the booking status", bookingUID)
	}

	nextState := checkoutapi.CheckoutStateFinalized
	checkoutStatus := checkoutevents.CheckoutStatusSuccess
	details := "wallet payment confirmed via khalti lookup"
	status := "success"
	if lookup.Status != lookupStatusCompleted {
		nextState = checkoutapi.CheckoutStateFailed
		checkoutStatus = checkoutevents.CheckoutStatusFailed
		details = fmt.Sprintf("khalti reports wallet payment status %q", lookup.Status)
		status = "failed"
	}

	err = s.finalize(c, pending.SessionUID, nextState, checkoutStatus, details, now)
	if err != nil {
		return "", err
	}

	s.logger.Log(c, bookingUID, mylog.SeverityInfo, "Callback (done): wallet payment for booking %s -> %s", bookingUID, status)

	return addStatusQueryParam(pending.ReturnURL, status)
}

// expire sweeps a wallet payment whose shopper never came back. The payment
// is verified once: a shopper may well have paid and then closed the tab.
// A no-op when the callback already consumed the marker.
func (s *service) expire(c context.Context, bookingUID string) error {
	now := s.nower.Now()

	pending := PendingPayment{}
	consumed := false
	err := s.pendingStore.RunInTransaction(c, func(c context.Context) error {
		p, found, err := s.pendingStore.Get(c, bookingUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching pending payment for booking %s: %s", bookingUID, err))
		}
		if !found {
			return nil
		}
		pending = p
		consumed = true

		return s.pendingStore.Delete(c, bookingUID)
	})
	if err != nil {
		return err
	}
	if !consumed {
		s.logger.Log(c, bookingUID, mylog.SeverityInfo, "Wallet payment for booking %s was already reconciled", bookingUID)
		return nil
	}

	lookup, err := s.payer.Lookup(c, lookupRequest{Pidx: pending.ProviderReference})
	if err == nil && lookup.Status == lookupStatusCompleted {
		s.logger.Log(c, bookingUID, mylog.SeverityInfo, "Wallet payment for booking %s was paid but never reported back", bookingUID)
		return s.finalize(c, pending.SessionUID, checkoutapi.CheckoutStateFinalized, checkoutevents.CheckoutStatusSuccess,
			"wallet payment confirmed by the expiry sweep", now)
	}

	s.logger.Log(c, bookingUID, mylog.SeverityInfo, "Wallet payment for booking %s expired before confirmation", bookingUID)

	return s.finalize(c, pending.SessionUID, checkoutapi.CheckoutStateFailed, checkoutevents.CheckoutStatusExpired,
		"wallet payment expired before confirmation", now)
}

func (s *service) finalize(c context.Context, sessionUID string, nextState checkoutapi.CheckoutState, checkoutStatus checkoutevents.CheckoutStatus, details string, now time.Time) error {
	return s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		checkoutContext, found, err := s.checkoutStore.Get(c, sessionUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", sessionUID, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", sessionUID))
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
