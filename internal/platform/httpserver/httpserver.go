package httpserver

import (
	"net/http"
	"time"
)

// New builds the ledger's HTTP server. Header and idle timeouts are set so a
// stalled client cannot hold a connection open indefinitely; per-request
// deadlines come from the timeout middleware instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
