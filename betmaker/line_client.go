package betmaker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"betline/contracts"
	"betline/models"
)

// errNotFound marks a 404 from the provider. The caller knows which id it
// asked for and maps this to a typed not-found error.
var errNotFound = errors.New("line provider returned 404")

// lineClient reads events from the line provider over HTTP with a bounded
// per-request timeout and a bounded number of retries on transport errors
// and 5xx responses. A 404 is final and never retried.
type lineClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// NewLineClient creates a client for the line provider HTTP API.
func NewLineClient(baseURL string, timeout time.Duration, maxRetries int) *lineClient {
	return &lineClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

func (c *lineClient) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	var resp contracts.EventResponse
	err := c.getJSON(ctx, fmt.Sprintf("/api/v1/events/%d", eventID), &resp)
	if errors.Is(err, errNotFound) {
		return nil, models.NewEventNotFoundError(eventID)
	}
	if err != nil {
		return nil, err
	}
	return resp.ToEvent()
}

func (c *lineClient) ListEvents(ctx context.Context) ([]*models.Event, error) {
	return c.listEvents(ctx, "/api/v1/events")
}

func (c *lineClient) ListActiveEvents(ctx context.Context) ([]*models.Event, error) {
	return c.listEvents(ctx, "/api/v1/events/active")
}

func (c *lineClient) listEvents(ctx context.Context, path string) ([]*models.Event, error) {
	var resp []contracts.EventResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	events := make([]*models.Event, 0, len(resp))
	for _, item := range resp {
		event, err := item.ToEvent()
		if err != nil {
			return nil, fmt.Errorf("failed to parse event %d: %w", item.EventID, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// getJSON fetches path and decodes the body into v, retrying transient
// failures with a growing delay. Exhausted retries surface as a
// RemoteUnavailableError so callers can answer 503 instead of 500.
func (c *lineClient) getJSON(ctx context.Context, path string, v interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return &models.RemoteUnavailableError{Err: ctx.Err()}
			case <-time.After(time.Duration(attempt-1) * 500 * time.Millisecond):
			}
		}

		lastErr = c.tryGetJSON(ctx, path, v)
		if lastErr == nil || errors.Is(lastErr, errNotFound) {
			return lastErr
		}

		log.WithFields(log.Fields{
			"path":    path,
			"attempt": attempt,
			"error":   lastErr,
		}).Warn("Line provider request failed")
	}
	return &models.RemoteUnavailableError{Err: lastErr}
}

func (c *lineClient) tryGetJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	default:
		// Drain so the keep-alive connection stays reusable
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("line provider returned status %d", resp.StatusCode)
	}
}
