// Package httputil centralizes JSON response helpers for the HTTP transport.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "stow/pkg/domain-errors"
)

// errorResponse is the JSON error envelope used across all endpoints.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError translates a domain error into the JSON error envelope. Internal
// errors deliberately omit the description so infrastructure details never
// leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.Description = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
