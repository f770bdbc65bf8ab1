package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"regverify/pkg/requestcontext"
)

func TestMiddlewareWithClock(t *testing.T) {
	pinned := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return pinned.Add(time.Duration(calls-1) * time.Hour)
	}

	var first, second time.Time
	h := MiddlewareWithClock(clock)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		second = requestcontext.Now(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, pinned, first)
	assert.Equal(t, first, second, "one instant per request")
	assert.Equal(t, 1, calls)
}
