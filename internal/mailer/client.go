package mailer

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

	"github.com/jafarshop/marketapi/internal/config"
)

// Client talks to the transactional mail HTTP API. A client without an API
// key is disabled: Send becomes a no-op, which is a valid configuration.
type Client struct {
	apiBase     string
	apiKey      string
	fromAddress string
	fromName    string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a new mail API client
func NewClient(cfg config.MailerConfig, logger *zap.Logger) *Client {
	return &Client{
		apiBase:     strings.TrimSuffix(cfg.APIBase, "/"),
		apiKey:      cfg.APIKey,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Enabled reports whether the client is configured to send
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// sendRequest is the mail API payload
type sendRequest struct {
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name,omitempty"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	HTML        string `json:"html"`
}

// SendResult is the mail API response
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Send delivers one HTML email. When the client is disabled it returns a
// non-success result and no error.
func (c *Client) Send(ctx context.Context, to, subject, html string) (*SendResult, error) {
	if !c.Enabled() {
		c.logger.Debug("Mailer disabled, skipping send", zap.String("to", to))
		return &SendResult{Success: false}, nil
	}

	jsonData, err := json.Marshal(sendRequest{
		FromAddress: c.fromAddress,
		FromName:    c.fromName,
		To:          to,
		Subject:     subject,
		HTML:        html,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.apiBase + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("mail API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result SendResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}
