// remote/client.go - CivicReport service client
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"civicsync/models"
)

// API is the subset of the CivicReport service the agent consumes. Services
// depend on this interface so tests can substitute a fake.
type API interface {
	CreateReport(ctx context.Context, payload models.ReportSubmission, idempotencyKey string) (*models.Report, error)
	GetReports(ctx context.Context) ([]models.Report, error)
	GetCurrentUser(ctx context.Context) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) (*models.User, error)
	ConfirmReport(ctx context.Context, reportID string) (*ConfirmResult, error)
	ToggleSubscription(ctx context.Context, reportID, userID string) (*SubscriptionResult, error)
	ListBadges(ctx context.Context) ([]models.Badge, error)
	GetGamificationSettings(ctx context.Context) (*models.GamificationSettings, error)
}

// ConfirmResult is the confirm-report response.
type ConfirmResult struct {
	Report        models.Report         `json:"report"`
	Notifications []models.Notification `json:"notifications"`
}

// SubscriptionResult carries the canonical objects after a subscription toggle.
type SubscriptionResult struct {
	Report models.Report `json:"report"`
	User   models.User   `json:"user"`
}

// TokenSource supplies the current session bearer token, empty when no user
// session exists.
type TokenSource func() string

// Client talks JSON over HTTP to the CivicReport service.
type Client struct {
	baseURL string
	token   TokenSource
	http    *http.Client
}

// NewClient creates a service client. timeout bounds every request.
func NewClient(baseURL string, token TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateReport submits a report. The idempotency key lets the service drop a
// duplicate when an earlier acknowledgment was lost before the queue entry was
// removed.
func (c *Client) CreateReport(ctx context.Context, payload models.ReportSubmission, idempotencyKey string) (*models.Report, error) {
	var report models.Report
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	if err := c.do(ctx, http.MethodPost, "/api/reports", payload, headers, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetReports fetches the server-confirmed reports for the session user.
func (c *Client) GetReports(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	if err := c.do(ctx, http.MethodGet, "/api/reports", nil, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetCurrentUser fetches a fresh user snapshot.
func (c *Client) GetCurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser persists the user snapshot after the award loop finishes.
func (c *Client) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var updated models.User
	if err := c.do(ctx, http.MethodPut, "/api/users/me", user, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ConfirmReport adds the session user's confirmation to a report.
func (c *Client) ConfirmReport(ctx context.Context, reportID string) (*ConfirmResult, error) {
	var result ConfirmResult
	if err := c.do(ctx, http.MethodPost, "/api/reports/"+reportID+"/confirm", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ToggleSubscription flips the follow state for a report. Only opaque ids go
// over the wire; the canonical objects come back.
func (c *Client) ToggleSubscription(ctx context.Context, reportID, userID string) (*SubscriptionResult, error) {
	var result SubscriptionResult
	body := map[string]string{"user_id": userID}
	if err := c.do(ctx, http.MethodPost, "/api/reports/"+reportID+"/subscription", body, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListBadges fetches the badge definitions in evaluation order.
func (c *Client) ListBadges(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if err := c.do(ctx, http.MethodGet, "/api/badges", nil, nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// GetGamificationSettings fetches the points rules.
func (c *Client) GetGamificationSettings(ctx context.Context) (*models.GamificationSettings, error) {
	var settings models.GamificationSettings
	if err := c.do(ctx, http.MethodGet, "/api/gamification/settings", nil, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
