// Package payments wraps the Mercado Pago-shaped REST API: checkout
// preference and subscription creation plus authoritative lookups of
// payments and preapprovals by id.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cedbrasilia/enroll-api/internal/models"
	"github.com/cedbrasilia/enroll-api/pkg/config"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
)

// Client talks to the payment provider with a bounded timeout.
type Client struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a provider Client.
func NewClient(cfg config.ProviderConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// CheckoutItems describes what the customer is buying.
type CheckoutItems struct {
	Name     string
	Email    string
	Whatsapp string
	Courses  []string
}

func (i CheckoutItems) metadata() map[string]string {
	return map[string]string{
		"nome":     i.Name,
		"email":    i.Email,
		"whatsapp": i.Whatsapp,
		"cursos":   strings.Join(i.Courses, ","),
	}
}

// CreatePreference creates a one-time checkout preference and returns the
// hosted checkout URL.
func (c *Client) CreatePreference(ctx context.Context, items CheckoutItems) (string, error) {
	payload := map[string]interface{}{
		"items": []map[string]interface{}{{
			"title":       "Assinatura CED – " + strings.Join(items.Courses, ", "),
			"quantity":    1,
			"unit_price":  c.cfg.CheckoutAmount,
			"currency_id": "BRL",
		}},
		"payer": map[string]interface{}{
			"name":  items.Name,
			"email": items.Email,
			"phone": map[string]string{"number": items.Whatsapp},
		},
		"back_urls": map[string]string{
			"success": c.cfg.SuccessURL,
			"failure": c.cfg.FailureURL,
			"pending": c.cfg.FailureURL,
		},
		"auto_return":      "approved",
		"notification_url": c.cfg.NotificationURL,
		"metadata":         items.metadata(),
	}

	body, err := c.post(ctx, "/checkout/preferences", payload)
	if err != nil {
		return "", err
	}

	var parsed struct {
		InitPoint string `json:"init_point"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.InitPoint == "" {
		return "", appErrors.Clone(appErrors.ErrUpstreamUnavailable, "provider did not return a checkout link")
	}
	return parsed.InitPoint, nil
}

// CreateSubscription creates a monthly preapproval running for one year and
// returns the hosted subscription URL.
func (c *Client) CreateSubscription(ctx context.Context, items CheckoutItems) (string, error) {
	now := time.Now()
	payload := map[string]interface{}{
		"reason":      "Assinatura CED – Cursos: " + strings.Join(items.Courses, ", "),
		"payer_email": items.Email,
		"auto_recurring": map[string]interface{}{
			"frequency":          1,
			"frequency_type":     "months",
			"transaction_amount": c.cfg.SubscriptionAmount,
			"currency_id":        "BRL",
			"start_date":         now.Format("2006-01-02T00:00:00.000-03:00"),
			"end_date":           now.AddDate(1, 0, 0).Format("2006-01-02T00:00:00.000-03:00"),
		},
		"back_url":         c.cfg.SuccessURL,
		"notification_url": c.cfg.NotificationURL,
		"metadata":         items.metadata(),
	}

	body, err := c.post(ctx, "/preapproval", payload)
	if err != nil {
		return "", err
	}

	var parsed struct {
		InitPoint        string `json:"init_point"`
		SandboxInitPoint string `json:"sandbox_init_point"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", appErrors.Clone(appErrors.ErrUpstreamUnavailable, "malformed subscription response")
	}
	link := parsed.InitPoint
	if link == "" {
		link = parsed.SandboxInitPoint
	}
	if link == "" {
		return "", appErrors.Clone(appErrors.ErrUpstreamUnavailable, "provider did not return a subscription link")
	}
	return link, nil
}

// Payment fetches the authoritative payment record by id. Webhook payload
// fields are never trusted for financial state; this lookup is.
func (c *Client) Payment(ctx context.Context, id string) (*models.Payment, error) {
	body, err := c.get(ctx, "/v1/payments/"+id)
	if err != nil {
		return nil, err
	}
	var payment models.Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnavailable, "malformed payment response")
	}
	return &payment, nil
}

// Preapproval fetches the authoritative subscription record by id.
func (c *Client) Preapproval(ctx context.Context, id string) (*models.Preapproval, error) {
	body, err := c.get(ctx, "/preapproval/"+id)
	if err != nil {
		return nil, err
	}
	var preapproval models.Preapproval
	if err := json.Unmarshal(body, &preapproval); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnavailable, "malformed preapproval response")
	}
	return &preapproval, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "payment provider unreachable")
	}
	defer res.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to read provider response")
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logger.Warn("provider request failed",
			zap.String("path", req.URL.Path),
			zap.Int("status", res.StatusCode))
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnavailable, fmt.Sprintf("provider returned status %d", res.StatusCode))
	}
	return body, nil
}
