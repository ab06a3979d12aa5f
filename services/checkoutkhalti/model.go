package checkoutkhalti

import "time"

// PendingPayment is the marker that a wallet payment was initiated but not
// yet confirmed. It is consumed exactly once: either by the shopper's return
// callback or by the expiry sweep, whichever comes first.
type PendingPayment struct {
	BookingUID        string
	SessionUID        string
	AmountMinorUnits  int64
	ProviderReference string // the pidx assigned by Khalti
	ReturnURL         string
	CreatedAt         time.Time
}

// Wire format of the Khalti ePayment initiate call.
type initiateRequest struct {
	ReturnURL         string `json:"return_url"`
	WebsiteURL        string `json:"website_url"`
	Amount            int64  `json:"amount"` // in paisa
	PurchaseOrderUID  string `json:"purchase_order_id"`
	PurchaseOrderName string `json:"purchase_order_name"`
}

type initiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
}

// Wire format of the Khalti ePayment lookup call.
type lookupRequest struct {
	Pidx string `json:"pidx"`
}

type lookupResponse struct {
	Pidx   string `json:"pidx"`
	Status string `json:"status"`
}

// lookup statuses as published by Khalti
const (
	lookupStatusCompleted = "Completed"
	lookupStatusPending   = "Pending"
	lookupStatusExpired   = "Expired"
	lookupStatusCanceled  = "User canceled"
)
