package checkoutkhalti

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hamrostay/checkoutservice/lib/myerrors"
	"github.com/hamrostay/checkoutservice/lib/myhttpclient"
)

//go:generate mockgen -source=payer.go -package checkoutkhalti -destination payer_mock.go Payer
type Payer interface {
	Initiate(c context.Context, req initiateRequest) (initiateResponse, error)
	Lookup(c context.Context, req lookupRequest) (lookupResponse, error)
}

type khaltiPayer struct {
	baseURL   string
	secretKey string
	sender    myhttpclient.HTTPSender
}

// NewPayer talks to the Khalti ePayment API. There is no official Go SDK, so
// this is a thin wrapper around their two JSON endpoints.
func NewPayer(baseURL string, secretKey string, sender myhttpclient.HTTPSender) Payer {
	return &khaltiPayer{
		baseURL:   baseURL,
		secretKey: secretKey,
		sender:    sender,
	}
}

func (p *khaltiPayer) Initiate(c context.Context, req initiateRequest) (initiateResponse, error) {
	resp := initiateResponse{}
	err := p.post(c, p.baseURL+"/epayment/initiate/", req, &resp)
	if err != nil {
		return initiateResponse{}, err
	}
	if resp.Pidx == "" || resp.PaymentURL == "" {
		return initiateResponse{}, myerrors.NewInternalError(fmt.Errorf("khalti initiate response is missing pidx or payment_url"))
	}

	return resp, nil
}

func (p *khaltiPayer) Lookup(c context.Context, req lookupRequest) (lookupResponse, error) {
	resp := lookupResponse{}
	err := p.post(c, p.baseURL+"/epayment/lookup/", req, &resp)
	if err != nil {
		return lookupResponse{}, err
	}

	return resp, nil
}

func (p *khaltiPayer) post(c context.Context, url string, req any, resp any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error marshalling khalti request: %s", err))
	}

	httpStatus, respPayload, err := p.sender.Send(c, http.MethodPost, url, payload, map[string]string{
		"Authorization": "Key " + p.secretKey,
		"Content-Type":  "application/json",
	})
	if err != nil {
		return myerrors.NewUnavailableError(fmt.Errorf("error calling khalti: %s", err))
	}
	if httpStatus < 200 || httpStatus >= 300 {
		return myerrors.NewUnavailableError(fmt.Errorf("khalti returned status %d", httpStatus))
	}

	err = json.Unmarshal(respPayload, resp)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error parsing khalti response: %s", err))
	}

	return nil
}
