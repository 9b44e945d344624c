// Package notify delivers best-effort messages: welcome texts through the
// WhatsApp gateway and orchestration stage logs to chat-ops webhooks.
// Nothing here may influence an enrollment outcome.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cedbrasilia/enroll-api/pkg/config"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
)

// WhatsAppClient sends templated text messages through a CallMeBot-shaped
// gateway (GET with phone/text/apikey query parameters).
type WhatsAppClient struct {
	cfg        config.MessagingConfig
	httpClient *http.Client
	logger     *zap.Logger
	sleep      func(time.Duration)
}

// NewWhatsAppClient constructs the gateway client.
func NewWhatsAppClient(cfg config.MessagingConfig, logger *zap.Logger) *WhatsAppClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Send delivers a message to the given phone number, retrying with a fixed
// backoff. The caller treats any error as log-and-continue.
func (c *WhatsAppClient) Send(ctx context.Context, phone, text string) error {
	if !c.cfg.Enabled {
		return nil
	}

	params := url.Values{}
	params.Set("phone", phone)
	params.Set("text", text)
	params.Set("apikey", c.cfg.APIKey)
	endpoint := c.cfg.BaseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		lastErr = c.send(ctx, endpoint)
		if lastErr == nil {
			return nil
		}
		c.logger.Warn("whatsapp dispatch failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.cfg.Attempts),
			zap.Error(lastErr))
		if attempt < c.cfg.Attempts {
			c.sleep(c.cfg.RetryDelay)
		}
	}
	return appErrors.Wrap(lastErr, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "whatsapp gateway unreachable")
}

func (c *WhatsAppClient) send(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<16))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", res.StatusCode)
	}
	return nil
}

// WelcomeMessage composes the post-enrollment text: assigned code, acquired
// courses and onboarding pointer. Content stays deliberately plain; real
// templating is out of scope.
func WelcomeMessage(name, code string, courses []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Matrícula confirmada para %s.\n", name)
	fmt.Fprintf(&b, "Login: %s | Senha inicial: enviada por email.\n", code)
	if len(courses) > 0 {
		fmt.Fprintf(&b, "Cursos liberados: %s.\n", strings.Join(courses, ", "))
	}
	b.WriteString("Acesse: https://www.cedbrasilia.com.br/acesso")
	return b.String()
}
