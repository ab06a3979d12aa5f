package checkoutkhalti

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hamrostay/checkoutservice/lib/mycontext"
	"github.com/hamrostay/checkoutservice/lib/myerrors"
	"github.com/hamrostay/checkoutservice/lib/myhttp"
	"github.com/hamrostay/checkoutservice/lib/mylog"
	"github.com/hamrostay/checkoutservice/lib/mypublisher"
	"github.com/hamrostay/checkoutservice/lib/myqueue"
	"github.com/hamrostay/checkoutservice/lib/mystore"
	"github.com/hamrostay/checkoutservice/lib/mytime"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/checkoutapi"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(siteURL string, payer Payer, nower mytime.Nower, pendingStore mystore.Store[PendingPayment], checkoutStore mystore.Store[checkoutapi.CheckoutContext], queuer myqueue.TaskQueuer, publisher mypublisher.Publisher) *webService {
	logger := mylog.New("checkoutkhalti")
	return &webService{
		logger:  logger,
		service: newService(siteURL, payer, logger, nower, pendingStore, checkoutStore, queuer, publisher),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/khalti/checkout/callback", s.callbackPage()).Methods("GET")
	router.HandleFunc("/khalti/checkout/expiry/{bookingUID}", s.expiryTask()).Methods("PUT")

	return nil
}

// Initiate lets the checkout orchestrator hand off a wallet payment.
func (s *webService) Initiate(c context.Context, order bookingapi.PaymentOrder) (bookingapi.RedirectHandle, error) {
	return s.service.initiate(c, order)
}

// callbackPage is where Khalti sends the shopper back to after the wallet
// interaction. The redirect alone proves nothing, so the payment is verified
// against Khalti before the checkout is finalized.
func (s *webService) callbackPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		bookingUID := r.URL.Query().Get("bookingId")
		if bookingUID == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing bookingId")))
			return
		}

		redirectURL, err := s.service.reconcile(c, bookingUID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	}
}

// expiryTask is invoked by the task queue once the reconciliation window has
// passed.
func (s *webService) expiryTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		bookingUID := mux.Vars(r)["bookingUID"]

		err := s.service.expire(c, bookingUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}
