package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/hamrostay/checkoutservice/lib/myerrors"
	"github.com/hamrostay/checkoutservice/lib/mylog"
	"github.com/hamrostay/checkoutservice/lib/mystore"
	"github.com/hamrostay/checkoutservice/lib/mytime"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/bookingclient"
	"github.com/hamrostay/checkoutservice/services/checkoutapi"
	"github.com/hamrostay/checkoutservice/services/guestidentity"
)

type OutcomeKind string

const (
	OutcomeFinalized               OutcomeKind = "FINALIZED"
	OutcomeRedirect                OutcomeKind = "REDIRECT"
	OutcomeValidationFailed        OutcomeKind = "VALIDATION_FAILED"
	OutcomeBookingFailed           OutcomeKind = "BOOKING_FAILED"
	OutcomePaymentInitiationFailed OutcomeKind = "PAYMENT_INITIATION_FAILED"
)

// Outcome is the business result of a single submission attempt. Transport
// and concurrency failures are returned as errors instead.
type Outcome struct {
	Kind        OutcomeKind
	RedirectURL string
	Booking     bookingapi.Booking
	FieldErrors guestidentity.FieldErrors
	Message     string
}

type service struct {
	checkoutStore  mystore.Store[checkoutapi.CheckoutContext]
	resolver       *guestidentity.Resolver
	bookingCreator bookingclient.BookingCreator
	adapters       AdapterRegistry
	nower          mytime.Nower
	logger         mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(checkoutStore mystore.Store[checkoutapi.CheckoutContext], resolver *guestidentity.Resolver, bookingCreator bookingclient.BookingCreator, adapters AdapterRegistry, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		checkoutStore:  checkoutStore,
		resolver:       resolver,
		bookingCreator: bookingCreator,
		adapters:       adapters,
		nower:          nower,
		logger:         logger,
	}
}

// checkout dispatches a single submission: resolve who is booking, create
// the booking, then hand fulfilment to the payment adapter for the selected
// method. The in-flight marker is written in its own transaction before any
// network call, so a concurrent submit of the same session is rejected
// instead of creating a second booking.
func (s *service) checkout(c context.Context, sessionUID string, session checkoutapi.CheckoutSession, authorizationHeader string) (Outcome, error) {
	now := s.nower.Now()

	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout (start): submission for session %s", sessionUID)

	err := s.markInFlight(c, sessionUID, now)
	if err != nil {
		return Outcome{}, err
	}

	identity, fieldErrors := s.resolver.Resolve(c, authorizationHeader, guestProfileOf(session))
	if len(fieldErrors) > 0 {
		s.revertToCreated(c, sessionUID, "guest details failed validation", now)
		return Outcome{Kind: OutcomeValidationFailed, FieldErrors: fieldErrors}, nil
	}

	if _, err := session.TotalPrice(); err != nil {
		s.revertToCreated(c, sessionUID, "invalid amount", now)
		return Outcome{
			Kind:        OutcomeValidationFailed,
			FieldErrors: guestidentity.FieldErrors{"totalAmount": err.Error()},
		}, nil
	}

	request, err := bookingapi.NewBookingRequest(session, identity)
	if err != nil {
		s.revertToCreated(c, sessionUID, "unrecognized payment method", now)
		return Outcome{}, err
	}

	registered, found := s.adapters[request.PaymentMethod]
	if !found {
		s.revertToCreated(c, sessionUID, "no adapter for payment method", now)
		return Outcome{}, myerrors.NewInternalError(fmt.Errorf("no payment adapter registered for method %s", request.PaymentMethod))
	}

	booking, err := s.bookingCreator.CreateBooking(c, identity, request)
	if err != nil {
		s.revertToCreated(c, sessionUID, fmt.Sprintf("booking creation failed: %s", err), now)
		return Outcome{
			Kind:    OutcomeBookingFailed,
			Message: fmt.Sprintf("could not create the booking: %s", err),
		}, nil
	}

	handle, err := registered.Adapter.Initiate(c, bookingapi.PaymentOrder{
		SessionUID:   sessionUID,
		Booking:      booking,
		PropertyUID:  session.PropertyUID,
		PropertyName: session.PropertyName,
		ReturnURL:    session.ReturnURL,
	})
	if err != nil {
		details := fmt.Sprintf("payment initiation via %s failed: %s", registered.ProviderName, err)
		s.recordOutcome(c, sessionUID, checkoutapi.CheckoutStateFailed, details, booking, registered.ProviderName, session, now)
		return Outcome{
			Kind:    OutcomePaymentInitiationFailed,
			Booking: booking,
			Message: fmt.Sprintf("booking %s was created but the payment could not be completed: %s", booking.BookingUID, err),
		}, nil
	}

	if handle.Redirects() {
		err = s.recordOutcome(c, sessionUID, checkoutapi.CheckoutStateRedirectPending, "waiting for the shopper to return from the payment page", booking, registered.ProviderName, session, now)
		if err != nil {
			return Outcome{}, err
		}

		s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout (done): session %s redirects to %s", sessionUID, registered.ProviderName)
		return Outcome{Kind: OutcomeRedirect, RedirectURL: handle.URL, Booking: booking}, nil
	}

	err = s.recordOutcome(c, sessionUID, checkoutapi.CheckoutStateFinalized, "completed without payment redirect", booking, registered.ProviderName, session, now)
	if err != nil {
		return Outcome{}, err
	}

	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout (done): session %s finalized", sessionUID)
	return Outcome{Kind: OutcomeFinalized, Booking: booking}, nil
}

func (s *service) getStatus(c context.Context, sessionUID string) (checkoutapi.CheckoutContext, error) {
	checkoutContext, found, err := s.checkoutStore.Get(c, sessionUID)
	if err != nil {
		return checkoutapi.CheckoutContext{}, myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", sessionUID, err))
	}
	if !found {
		return checkoutapi.CheckoutContext{}, myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", sessionUID))
	}

	return checkoutContext, nil
}

// markInFlight moves the session into ROUTING. Exactly one concurrent
// submission can win this transaction.
func (s *service) markInFlight(c context.Context, sessionUID string, now time.Time) error {
	return s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		checkoutContext, found, err := s.checkoutStore.Get(c, sessionUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", sessionUID, err))
		}
		if !found {
			checkoutContext = checkoutapi.NewCheckoutContext(sessionUID, now)
		}

		if checkoutContext.State.InFlight() {
			return myerrors.NewConflictError(fmt.Errorf("checkout %s is already being submitted", sessionUID))
		}
		if checkoutContext.State == checkoutapi.CheckoutStateRedirectPending {
			return myerrors.NewConflictError(fmt.Errorf("checkout %s has a payment in progress", sessionUID))
		}
		if checkoutContext.State.Terminal() {
			return myerrors.NewConflictError(fmt.Errorf("checkout %s was already completed", sessionUID))
		}

		checkoutContext.State = checkoutapi.CheckoutStateRouting
		checkoutContext.StateDetails = "dispatching submission"
		checkoutContext.LastModified = &now

		return s.checkoutStore.Put(c, sessionUID, checkoutContext)
	})
}

// revertToCreated releases the in-flight marker after a failure that happened
// before any money was involved, so the shopper can correct and resubmit.
func (s *service) revertToCreated(c context.Context, sessionUID string, details string, now time.Time) {
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		checkoutContext, found, err := s.checkoutStore.Get(c, sessionUID)
		if err != nil || !found {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", sessionUID, err))
		}

		checkoutContext.State = checkoutapi.CheckoutStateCreated
		checkoutContext.StateDetails = details
		checkoutContext.LastModified = &now

		return s.checkoutStore.Put(c, sessionUID, checkoutContext)
	})
	if err != nil {
		s.logger.Log(c, sessionUID, mylog.SeverityError, "Error reverting checkout %s: %s", sessionUID, err)
	}
}

func (s *service) recordOutcome(c context.Context, sessionUID string, state checkoutapi.CheckoutState, details string, booking bookingapi.Booking, providerName string, session checkoutapi.CheckoutSession, now time.Time) error {
	return s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		checkoutContext, found, err := s.checkoutStore.Get(c, sessionUID)
		if err != nil || !found {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", sessionUID, err))
		}

		checkoutContext.State = state
		checkoutContext.StateDetails = details
		checkoutContext.BookingUID = booking.BookingUID
		checkoutContext.PaymentProvider = providerName
		checkoutContext.PaymentMethod = string(booking.PaymentMethod)
		checkoutContext.AmountValue = session.TotalAmount.Value
		checkoutContext.AmountCurrency = session.TotalAmount.Currency
		checkoutContext.PropertyUID = session.PropertyUID
		checkoutContext.PropertyName = session.PropertyName
		checkoutContext.OriginalReturnURL = session.ReturnURL
		checkoutContext.LastModified = &now

		return s.checkoutStore.Put(c, sessionUID, checkoutContext)
	})
}

func guestProfileOf(session checkoutapi.CheckoutSession) guestidentity.GuestProfile {
	return guestidentity.GuestProfile{
		FirstName:   session.Guest.FirstName,
		LastName:    session.Guest.LastName,
		Email:       session.Guest.Email,
		CallingCode: session.Guest.CallingCode,
		Phone:       session.Guest.Phone,
	}
}
