package myhttpclient

import (
	"context"
)

//go:generate mockgen -source=api.go -package myhttpclient -destination httpclient_mock.go HTTPSender
type HTTPSender interface {
	Send(c context.Context, method string, url string, body []byte, headers map[string]string) (int, []byte, error)
}

func New() HTTPSender {
	return newJSONHTTPClient()
}
