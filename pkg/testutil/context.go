package testutil

import (
	"net/http"
	"time"

	"padron/pkg/requestcontext"
)

// WithRequestTime pins the request-scoped time.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
