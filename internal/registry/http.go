package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	id "stow/pkg/domain"
	"stow/pkg/platform/circuit"
	"stow/pkg/platform/sentinel"
)

// HTTPUserRegistry queries a remote user registry service. A circuit breaker
// shields the ledger from a flapping registry; while the breaker is open,
// lookups fail with sentinel.ErrUnavailable, which the guard surfaces as an
// internal error - never as an authorization pass.
type HTTPUserRegistry struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewHTTPUserRegistry(baseURL string, logger *slog.Logger) *HTTPUserRegistry {
	return &HTTPUserRegistry{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: circuit.New("user-registry", circuit.WithFailureThreshold(5)),
		logger:  logger,
	}
}

func (r *HTTPUserRegistry) IsUser(ctx context.Context, identity id.Identity) (bool, error) {
	if !r.breaker.Allow() {
		return false, fmt.Errorf("user registry: %w", sentinel.ErrUnavailable)
	}

	var resp struct {
		Registered bool `json:"registered"`
	}
	if err := r.getJSON(ctx, r.baseURL+"/users/"+identity.String(), &resp); err != nil {
		return false, err
	}
	return resp.Registered, nil
}

func (r *HTTPUserRegistry) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build registry request: %w", err)
	}
	res, err := r.client.Do(req)
	if err != nil {
		r.recordFailure(ctx, err)
		return fmt.Errorf("user registry request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		r.recordFailure(ctx, fmt.Errorf("status %d", res.StatusCode))
		return fmt.Errorf("user registry returned status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		r.recordFailure(ctx, err)
		return fmt.Errorf("decode user registry response: %w", err)
	}
	r.breaker.RecordSuccess()
	return nil
}

func (r *HTTPUserRegistry) recordFailure(ctx context.Context, err error) {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "user registry circuit opened", "error", err)
	}
}

// HTTPRecordRegistry queries a remote record ownership registry. Ownership is
// never cached here so owner-gated operations always observe the current
// recorded owner.
type HTTPRecordRegistry struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewHTTPRecordRegistry(baseURL string, logger *slog.Logger) *HTTPRecordRegistry {
	return &HTTPRecordRegistry{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: circuit.New("record-registry", circuit.WithFailureThreshold(5)),
		logger:  logger,
	}
}

func (r *HTTPRecordRegistry) RecordOwnerOf(ctx context.Context, record id.RecordHash) (id.Identity, error) {
	if !r.breaker.Allow() {
		return id.ZeroIdentity, fmt.Errorf("record registry: %w", sentinel.ErrUnavailable)
	}

	url := r.baseURL + "/records/" + record.String() + "/owner"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return id.ZeroIdentity, fmt.Errorf("build registry request: %w", err)
	}
	res, err := r.client.Do(req)
	if err != nil {
		r.recordFailure(ctx, err)
		return id.ZeroIdentity, fmt.Errorf("record registry request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		// An unknown record is a fact, not a registry fault.
		r.breaker.RecordSuccess()
		return id.ZeroIdentity, fmt.Errorf("record registry: %w", sentinel.ErrNotFound)
	default:
		r.recordFailure(ctx, fmt.Errorf("status %d", res.StatusCode))
		return id.ZeroIdentity, fmt.Errorf("record registry returned status %d", res.StatusCode)
	}

	var resp struct {
		Owner string `json:"owner"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		r.recordFailure(ctx, err)
		return id.ZeroIdentity, fmt.Errorf("decode record registry response: %w", err)
	}
	owner, err := id.ParseIdentity(resp.Owner)
	if err != nil {
		r.recordFailure(ctx, err)
		return id.ZeroIdentity, fmt.Errorf("record registry returned invalid owner: %w", err)
	}
	r.breaker.RecordSuccess()
	return owner, nil
}

func (r *HTTPRecordRegistry) recordFailure(ctx context.Context, err error) {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "record registry circuit opened", "error", err)
	}
}
