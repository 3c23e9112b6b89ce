// Package sms sends lure text messages through an HTTP gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotConfigured is returned when the gateway is not configured.
	ErrNotConfigured = errors.New("sms: gateway not configured")
	// ErrSendFailed is returned when delivery fails.
	ErrSendFailed = errors.New("sms: failed to send message")
)

// Config holds SMS gateway configuration.
type Config struct {
	GatewayURL string
	APIKey     string
	From       string
	Timeout    time.Duration
}

// Message is one outbound text message.
type Message struct {
	To   string
	Body string
}

// Sender sends lure SMS messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	IsConfigured() bool
}

// GatewaySender posts messages to a JSON HTTP gateway.
type GatewaySender struct {
	config Config
	client *http.Client
}

// NewGatewaySender creates a gateway sender.
func NewGatewaySender(cfg Config) *GatewaySender {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &GatewaySender{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// IsConfigured reports whether the gateway is usable.
func (s *GatewaySender) IsConfigured() bool {
	return s.config.GatewayURL != "" && s.config.APIKey != ""
}

// Send posts one message to the gateway.
func (s *GatewaySender) Send(ctx context.Context, msg *Message) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"from": s.config.From,
		"to":   msg.To,
		"body": msg.Body,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.GatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: gateway returned %d", ErrSendFailed, resp.StatusCode)
	}
	return nil
}

// NoOpSender discards every message.
type NoOpSender struct{}

// NewNoOpSender creates a no-op sender.
func NewNoOpSender() *NoOpSender { return &NoOpSender{} }

// IsConfigured always returns true.
func (s *NoOpSender) IsConfigured() bool { return true }

// Send does nothing.
func (s *NoOpSender) Send(_ context.Context, _ *Message) error { return nil }
