package checkoutstripe

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hamrostay/checkoutservice/lib/mycontext"
	"github.com/hamrostay/checkoutservice/lib/myhttp"
	"github.com/hamrostay/checkoutservice/lib/mylog"
	"github.com/hamrostay/checkoutservice/lib/mypublisher"
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
func NewWebService(apiKey string, siteURL string, payer Payer, nower mytime.Nower, checkoutStore mystore.Store[checkoutapi.CheckoutContext], publisher mypublisher.Publisher) *webService {
	logger := mylog.New("checkoutstripe")
	return &webService{
		logger:  logger,
		service: newService(apiKey, siteURL, payer, logger, nower, checkoutStore, publisher),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/stripe/checkout/{sessionUID}/status/{status}", s.checkoutCompletedPage()).Methods("GET")

	return nil
}

// Initiate lets the checkout orchestrator hand off a card payment.
func (s *webService) Initiate(c context.Context, order bookingapi.PaymentOrder) (bookingapi.RedirectHandle, error) {
	return s.service.initiate(c, order)
}

// checkoutCompletedPage is where Stripe's hosted page sends the shopper back
// to, on both success and cancel.
func (s *webService) checkoutCompletedPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		sessionUID := mux.Vars(r)["sessionUID"]
		status := mux.Vars(r)["status"]

		redirectURL, err := s.service.finalizeCheckout(c, sessionUID, status)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	}
}
