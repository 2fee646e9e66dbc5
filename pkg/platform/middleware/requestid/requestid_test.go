package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padron/pkg/requestcontext"
)

func serve(t *testing.T, inbound string) (header, seen string) {
	t.Helper()
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(Header, inbound)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Header().Get(Header), seen
}

func TestMiddleware_EchoesInboundID(t *testing.T) {
	header, seen := serve(t, "abc-123")

	assert.Equal(t, "abc-123", header)
	assert.Equal(t, "abc-123", seen)
}

func TestMiddleware_GeneratesUUIDWhenMissing(t *testing.T) {
	header, seen := serve(t, "")

	_, err := uuid.Parse(header)
	require.NoError(t, err)
	assert.Equal(t, header, seen)
}

func TestMiddleware_ReplacesOversizedID(t *testing.T) {
	header, _ := serve(t, strings.Repeat("x", 500))

	_, err := uuid.Parse(header)
	assert.NoError(t, err)
}
