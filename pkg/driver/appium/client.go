// Package appium implements the driver factory and session handle against an
// Appium server using the W3C WebDriver protocol.
package appium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/device-agent/pkg/core"
)

const (
	defaultRequestTimeout = 30 * time.Second

	// retryInterval is the constant wait between transport-level retries.
	retryInterval = 500 * time.Millisecond
)

// Client handles HTTP communication with the Appium server. Transport
// failures (dial errors, unparseable 5xx responses) are retried up to the
// descriptor's TransportRetries with a constant interval; WebDriver-level
// errors are never retried here — the session manager owns that policy.
type Client struct {
	serverURL string
	client    *http.Client
	retries   uint64
}

// NewClient creates a client tuned by the descriptor's transport settings.
func NewClient(desc *core.Descriptor) *Client {
	timeout := desc.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	retries := desc.TransportRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		serverURL: strings.TrimSuffix(desc.ServerURL, "/"),
		client:    &http.Client{Timeout: timeout},
		retries:   uint64(retries),
	}
}

// HTTP helpers

func (c *Client) get(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, "GET", path, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	return c.request(ctx, "POST", path, body)
}

func (c *Client) delete(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, "DELETE", path, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}) (map[string]interface{}, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	var result map[string]interface{}
	op := func() error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, bodyReader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return core.ErrServerUnreachable.WithCause(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return core.ErrServerUnreachable.WithCause(err)
		}

		var parsed map[string]interface{}
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			if resp.StatusCode >= 500 {
				return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
			}
			return backoff.Permanent(fmt.Errorf("failed to parse response: %w", err))
		}

		// WebDriver-level error: legitimate driver answer, not a transport
		// failure, so it is not retried.
		if errValue, ok := parsed["value"].(map[string]interface{}); ok {
			if errMsg, ok := errValue["message"].(string); ok {
				if errType, ok := errValue["error"].(string); ok {
					return backoff.Permanent(fmt.Errorf("%s: %s", errType, errMsg))
				}
			}
		}

		result = parsed
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), c.retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return result, nil
}
