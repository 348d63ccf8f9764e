package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "stow/pkg/domain"
	"stow/pkg/requestcontext"
)

func TestRateLimit_MemoryFallback(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RateLimit(nil, 3, time.Minute, logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	caller := id.NewIdentity()
	other := id.NewIdentity()

	do := func(c id.Identity) int {
		req := httptest.NewRequest(http.MethodPost, "/permissions/grant", nil)
		req = req.WithContext(requestcontext.WithCaller(req.Context(), c))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for range 3 {
		assert.Equal(t, http.StatusNoContent, do(caller))
	}
	assert.Equal(t, http.StatusTooManyRequests, do(caller))

	// Callers are limited independently.
	assert.Equal(t, http.StatusNoContent, do(other))
}

func TestRateLimit_BucketsUnauthenticatedByIP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RateLimit(nil, 1, time.Minute, logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/permissions/grant", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:4001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:4002"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2:4001"))
}
