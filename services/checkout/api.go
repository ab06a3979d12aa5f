package checkout

import (
	"context"

	"github.com/hamrostay/checkoutservice/services/bookingapi"
)

//go:generate mockgen -source=api.go -package checkout -destination adapter_mock.go PaymentAdapter
type PaymentAdapter interface {
	Initiate(c context.Context, order bookingapi.PaymentOrder) (bookingapi.RedirectHandle, error)
}

// RegisteredAdapter couples an adapter to the provider name recorded on the
// checkout context.
type RegisteredAdapter struct {
	ProviderName string
	Adapter      PaymentAdapter
}

// AdapterRegistry tells the orchestrator which adapter settles which payment
// method.
type AdapterRegistry map[bookingapi.PaymentMethod]RegisteredAdapter
