// Package proxy implements the client side of the hosting database proxy:
// a single authenticated endpoint dispatching on {"action": ..., "api_key": ...}.
// All shared state (orders, ledger, conversation state, cleanup tasks) lives
// behind this API; every call can fail and is handled as a recoverable error.
//
// The client plays the role the connection pool plays elsewhere: it only
// transports actions. Feature repositories define their own actions and
// response shapes on top of Call.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Params carries the action-specific parameters of one call.
type Params map[string]interface{}

// CallError is a request the proxy itself rejected (success=false).
type CallError struct {
	Action  string
	Message string
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("proxy action %s failed", e.Action)
	}
	return fmt.Sprintf("proxy action %s failed: %s", e.Action, e.Message)
}

// Client talks to the database proxy endpoint.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

// New creates a proxy client. The timeout is short on purpose: a slow store
// must not stall update handling, the caller retries on the next event.
func New(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Call posts one action and decodes the response payload into out (may be
// nil when only success matters). A success=false reply becomes a *CallError.
func (c *Client) Call(ctx context.Context, action string, params Params, out interface{}) error {
	body := make(map[string]interface{}, len(params)+2)
	for k, v := range params {
		body[k] = v
	}
	body["action"] = action
	body["api_key"] = c.apiKey

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("proxy %s: encode: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("proxy %s: request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).WithField("action", action).Warn("proxy call failed")
		return fmt.Errorf("proxy %s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("proxy %s: read: %w", action, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{"action": action, "status": resp.StatusCode}).Warn("proxy returned non-200")
		return fmt.Errorf("proxy %s: status %d", action, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("proxy %s: decode: %w", action, err)
	}
	if !env.Success {
		return &CallError{Action: action, Message: env.Error}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("proxy %s: decode payload: %w", action, err)
		}
	}
	return nil
}
