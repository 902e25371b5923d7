package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/config"
	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/avast/retry-go/v4"
)

// Client talks to the remote attendance API. Every failure it returns wraps
// attendance.ErrRemoteUnavailable.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	attempts   uint
	delay      time.Duration
}

// NewClient creates a gateway client from configuration
func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{},
		timeout:    cfg.Timeout,
		attempts:   cfg.RetryAttempts,
		delay:      cfg.RetryDelay,
	}
}

// APIError represents a non-success response from the remote API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("attendance gateway error [%d]: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// MarkAttendance posts a check-in or check-out event
func (c *Client) MarkAttendance(ctx context.Context, mark attendance.RemoteMark) (attendance.RemoteRecord, error) {
	body, err := json.Marshal(mark)
	if err != nil {
		return attendance.RemoteRecord{}, fmt.Errorf("failed to encode mark request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/attendance/mark", nil, body)
	if err != nil {
		return attendance.RemoteRecord{}, err
	}

	var record attendance.RemoteRecord
	if err := decodeData(raw, &record); err != nil {
		return attendance.RemoteRecord{}, fmt.Errorf("%w: %w", attendance.ErrRemoteUnavailable, err)
	}
	return record, nil
}

// ListAttendance fetches remote records for an employee in a date range
func (c *Client) ListAttendance(ctx context.Context, employeeID string, dateFrom string, dateTo string) ([]attendance.RemoteRecord, error) {
	query := url.Values{}
	query.Set("employee_id", employeeID)
	if dateFrom != "" {
		query.Set("date_from", dateFrom)
	}
	if dateTo != "" {
		query.Set("date_to", dateTo)
	}

	raw, err := c.do(ctx, http.MethodGet, "/attendance", query, nil)
	if err != nil {
		return nil, err
	}

	var records []attendance.RemoteRecord
	if err := decodeData(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrRemoteUnavailable, err)
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	retryOpts := []retry.Option{
		retry.Attempts(c.attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(c.delay),
		retry.MaxJitter(c.delay / 5),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying attendance gateway request",
				"method", method,
				"path", path,
				"attempt", n+1,
				"error", err,
			)
		}),
		retry.Context(ctx),
	}

	raw, err := retry.DoWithData(func() ([]byte, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(attemptCtx, method, endpoint, reader)
		if err != nil {
			return nil, retry.Unrecoverable(err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(payload, resp.Status)}
			// Client errors will not improve on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, retry.Unrecoverable(apiErr)
			}
			return nil, apiErr
		}
		return payload, nil
	}, retryOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", attendance.ErrRemoteUnavailable, method, path, err)
	}
	return raw, nil
}

// decodeData accepts both the {success, data} envelope and a bare JSON payload.
func decodeData(raw []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return errors.New("empty response body")
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return fmt.Errorf("invalid response body: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return fmt.Errorf("remote rejected request: %s", env.Message)
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(trimmed, out)
}

func errorMessage(payload []byte, fallback string) string {
	var env envelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return fallback
}

// Disabled is used when no remote API is configured; every change stays local.
type Disabled struct{}

func (Disabled) MarkAttendance(ctx context.Context, mark attendance.RemoteMark) (attendance.RemoteRecord, error) {
	return attendance.RemoteRecord{}, fmt.Errorf("%w: %w", attendance.ErrRemoteUnavailable, attendance.ErrGatewayDisabled)
}

func (Disabled) ListAttendance(ctx context.Context, employeeID string, dateFrom string, dateTo string) ([]attendance.RemoteRecord, error) {
	return nil, fmt.Errorf("%w: %w", attendance.ErrRemoteUnavailable, attendance.ErrGatewayDisabled)
}
