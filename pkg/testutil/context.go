package testutil

import (
	"net/http"

	"regverify/pkg/requestcontext"
)

// WithRequestID attaches a request ID to the request context, as the
// RequestID middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
