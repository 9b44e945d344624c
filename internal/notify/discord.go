package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cedbrasilia/enroll-api/pkg/config"
)

// ChatObserver mirrors orchestration stage transitions to chat-ops webhooks
// (Discord-compatible `{"content": ...}` payloads). Deliveries run on their
// own goroutine and are never awaited: a dead webhook must not slow down or
// fail an enrollment.
type ChatObserver struct {
	webhookURLs []string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewChatObserver builds the observer; with no webhook URLs configured it
// only logs locally.
func NewChatObserver(cfg config.ObserverConfig, logger *zap.Logger) *ChatObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &ChatObserver{
		webhookURLs: cfg.WebhookURLs,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// StageChanged implements service.Observer.
func (o *ChatObserver) StageChanged(txnID, stage, detail string) {
	msg := "[" + txnID + "] " + stage
	if detail != "" {
		msg += " | " + detail
	}
	o.logger.Info("enrollment_stage", zap.String("txn_id", txnID), zap.String("stage", stage), zap.String("detail", detail))

	for _, webhook := range o.webhookURLs {
		go o.post(webhook, msg)
	}
}

func (o *ChatObserver) post(webhook, msg string) {
	payload, err := json.Marshal(map[string]string{"content": msg})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := o.httpClient.Do(req)
	if err != nil {
		o.logger.Debug("chat-ops webhook unreachable", zap.Error(err))
		return
	}
	defer res.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<16))
}
