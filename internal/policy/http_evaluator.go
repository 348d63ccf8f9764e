package policy

import (
	"bytes"
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

// HTTPEvaluator consults a remote policy service. Any transport or protocol
// failure is an error, which the gateway treats as a denial. A circuit
// breaker keeps a dead policy service from slowing every grant to its
// timeout; while open, the evaluator denies immediately.
type HTTPEvaluator struct {
	id      string
	url     string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewHTTPEvaluator(evalID, url string, logger *slog.Logger) *HTTPEvaluator {
	return &HTTPEvaluator{
		id:      evalID,
		url:     url,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: circuit.New("policy-"+evalID, circuit.WithFailureThreshold(5)),
		logger:  logger,
	}
}

func (e *HTTPEvaluator) ID() string { return e.id }

func (e *HTTPEvaluator) CheckPolicy(ctx context.Context, record id.RecordHash, viewer id.Identity, keyReference string) (bool, error) {
	if !e.breaker.Allow() {
		return false, fmt.Errorf("policy service %s: %w", e.id, sentinel.ErrUnavailable)
	}

	body, err := json.Marshal(struct {
		Record       string `json:"record"`
		Viewer       string `json:"viewer"`
		KeyReference string `json:"key_reference"`
	}{
		Record:       record.String(),
		Viewer:       viewer.String(),
		KeyReference: keyReference,
	})
	if err != nil {
		return false, fmt.Errorf("encode policy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build policy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := e.client.Do(req)
	if err != nil {
		e.recordFailure(ctx, err)
		return false, fmt.Errorf("policy service %s: %w", e.id, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		e.recordFailure(ctx, fmt.Errorf("status %d", res.StatusCode))
		return false, fmt.Errorf("policy service %s returned status %d", e.id, res.StatusCode)
	}

	var resp struct {
		Allowed bool `json:"allowed"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		e.recordFailure(ctx, err)
		return false, fmt.Errorf("decode policy response: %w", err)
	}
	e.breaker.RecordSuccess()
	return resp.Allowed, nil
}

func (e *HTTPEvaluator) recordFailure(ctx context.Context, err error) {
	if _, change := e.breaker.RecordFailure(); change.Opened {
		e.logger.WarnContext(ctx, "policy service circuit opened",
			"evaluator", e.id,
			"error", err,
		)
	}
}
