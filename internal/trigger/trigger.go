// Package trigger sends fire-and-forget action requests to the push server.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/arbhalerao/sse-demo/internal/logging"
)

var ErrUnexpectedStatus = errors.New("trigger: unexpected response status")

type request struct {
	Action string `json:"action"`
}

type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(url string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{url: url, httpClient: httpClient, logger: logger}
}

// Trigger posts {"action": action} and waits for the response status. Any
// event the server pushes in reaction arrives on the stream, not here.
func (c *Client) Trigger(ctx context.Context, action string) error {
	err := c.send(ctx, action)
	if err != nil {
		c.logger.Warn("trigger failed", "url", c.url, "action", action, "err", err)
		return err
	}
	c.logger.Debug("trigger sent", "url", c.url, "action", action)
	return nil
}

func (c *Client) send(ctx context.Context, action string) error {
	body, err := json.Marshal(request{Action: action})
	if err != nil {
		return fmt.Errorf("trigger: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("trigger: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trigger: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
