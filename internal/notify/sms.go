// Package notify holds the outbound side channels: the SMS gateway for
// verification codes and the telegram alerts for the owner.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"zapis/internal/config"

	"github.com/rs/zerolog"
)

// GatewaySender dispatches verification codes through an HTTP SMS
// gateway. Fire-and-forget: a 2xx response means the gateway accepted
// the message, delivery is not tracked.
type GatewaySender struct {
	url    string
	apiKey string
	sender string
	http   *http.Client
	logger *zerolog.Logger
}

func NewGatewaySender(cfg config.SMSConfig, logger *zerolog.Logger) *GatewaySender {
	timeout := 5 * time.Second
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	return &GatewaySender{
		url:    strings.TrimSpace(cfg.GatewayURL),
		apiKey: strings.TrimSpace(cfg.APIKey),
		sender: cfg.Sender,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (s *GatewaySender) SendCode(ctx context.Context, phone, code string) error {
	if s.url == "" {
		return fmt.Errorf("sms gateway url not configured")
	}

	payload := map[string]string{
		"to":   phone,
		"from": s.sender,
		"body": fmt.Sprintf("Код подтверждения: %s", code),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	s.logger.Debug().Str("phone", phone).Msg("verification code dispatched")
	return nil
}

// NoopSender accepts every send and logs the code. For development
// environments without a gateway.
type NoopSender struct {
	logger *zerolog.Logger
}

func NewNoopSender(logger *zerolog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) SendCode(ctx context.Context, phone, code string) error {
	s.logger.Info().Str("phone", phone).Str("code", code).Msg("SMS gateway disabled, code not dispatched")
	return nil
}
