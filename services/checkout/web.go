package checkout

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hamrostay/checkoutservice/lib/mycontext"
	"github.com/hamrostay/checkoutservice/lib/myhttp"
	"github.com/hamrostay/checkoutservice/lib/mylog"
	"github.com/hamrostay/checkoutservice/lib/mystore"
	"github.com/hamrostay/checkoutservice/lib/mytime"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/bookingclient"
	"github.com/hamrostay/checkoutservice/services/checkoutapi"
	"github.com/hamrostay/checkoutservice/services/guestidentity"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(checkoutStore mystore.Store[checkoutapi.CheckoutContext], resolver *guestidentity.Resolver, bookingCreator bookingclient.BookingCreator, adapters AdapterRegistry, nower mytime.Nower) *webService {
	logger := mylog.New("checkout")
	return &webService{
		logger:  logger,
		service: newService(checkoutStore, resolver, bookingCreator, adapters, nower, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/checkout/{sessionUID}", s.submitPage()).Methods("POST")
	router.HandleFunc("/checkout/{sessionUID}", s.statusPage()).Methods("GET")

	return nil
}

type completedResponse struct {
	SessionUID string             `json:"sessionId"`
	State      string             `json:"state"`
	Booking    bookingapi.Booking `json:"booking"`
}

type validationFailedResponse struct {
	SessionUID  string                    `json:"sessionId"`
	Message     string                    `json:"message"`
	FieldErrors guestidentity.FieldErrors `json:"fieldErrors"`
}

type failedResponse struct {
	SessionUID string `json:"sessionId"`
	Message    string `json:"message"`
	BookingUID string `json:"bookingId,omitempty"`
}

type statusResponse struct {
	SessionUID      string     `json:"sessionId"`
	State           string     `json:"state"`
	StateDetails    string     `json:"stateDetails,omitempty"`
	BookingUID      string     `json:"bookingId,omitempty"`
	PaymentMethod   string     `json:"paymentMethod,omitempty"`
	PaymentProvider string     `json:"paymentProvider,omitempty"`
	LastModified    *time.Time `json:"lastModified,omitempty"`
}

// submitPage accepts the checkout form and dispatches the submission.
func (s *webService) submitPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		sessionUID := mux.Vars(r)["sessionUID"]

		session, err := checkoutapi.NewFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		outcome, err := s.service.checkout(c, sessionUID, session, r.Header.Get("Authorization"))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		switch outcome.Kind {
		case OutcomeRedirect:
			http.Redirect(w, r, outcome.RedirectURL, http.StatusSeeOther)
		case OutcomeFinalized:
			errorWriter.Write(c, w, http.StatusOK, completedResponse{
				SessionUID: sessionUID,
				State:      string(checkoutapi.CheckoutStateFinalized),
				Booking:    outcome.Booking,
			})
		case OutcomeValidationFailed:
			errorWriter.Write(c, w, http.StatusBadRequest, validationFailedResponse{
				SessionUID:  sessionUID,
				Message:     "submission blocked by invalid input",
				FieldErrors: outcome.FieldErrors,
			})
		case OutcomeBookingFailed:
			errorWriter.Write(c, w, http.StatusBadGateway, failedResponse{
				SessionUID: sessionUID,
				Message:    outcome.Message,
			})
		case OutcomePaymentInitiationFailed:
			errorWriter.Write(c, w, http.StatusBadGateway, failedResponse{
				SessionUID: sessionUID,
				Message:    outcome.Message,
				BookingUID: outcome.Booking.BookingUID,
			})
		}
	}
}

// statusPage lets the frontend poll where a checkout ended up.
func (s *webService) statusPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		sessionUID := mux.Vars(r)["sessionUID"]

		checkoutContext, err := s.service.getStatus(c, sessionUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, statusResponse{
			SessionUID:      checkoutContext.SessionUID,
			State:           string(checkoutContext.State),
			StateDetails:    checkoutContext.StateDetails,
			BookingUID:      checkoutContext.BookingUID,
			PaymentMethod:   checkoutContext.PaymentMethod,
			PaymentProvider: checkoutContext.PaymentProvider,
			LastModified:    checkoutContext.LastModified,
		})
	}
}
