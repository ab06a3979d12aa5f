package mycontext

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/hamrostay/checkoutservice/lib/myuuid"
)

// CtxTraceContext is a context key for the trace context (used by mylog)
type CtxTraceContext struct{}

var uuider myuuid.UUIDer = myuuid.RealUUIDer{}

// ContextFromHTTPRequest derives a request-scoped context carrying a trace
// label: the Cloud Trace id when the request came through the Google
// frontend, a locally generated uid otherwise.
func ContextFromHTTPRequest(r *http.Request) context.Context {
	var trace string

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	traceContext := r.Header.Get("X-Cloud-Trace-Context")
	traceParts := strings.Split(traceContext, "/")

	if len(traceParts) > 0 && len(traceParts[0]) > 0 {
		trace = fmt.Sprintf("projects/%s/traces/%s", projectID, traceParts[0])
	} else {
		trace = uuider.Create()
	}

	return context.WithValue(context.Background(), CtxTraceContext{}, trace)
}
