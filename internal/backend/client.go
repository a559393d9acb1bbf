package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/darwiniquina/daily-task/internal/logger"
)

// Client talks to the remote row store's REST surface. Each table is
// addressed through From; filters, ordering and the verb are collected
// by the returned Query.
type Client struct {
	baseURL    string
	apiKey     string
	auth       *Auth
	httpClient *http.Client
}

// NewClient creates a client for the row store at baseURL. auth may be nil
// for unauthenticated access; when set, its access token is attached to
// every request.
func NewClient(baseURL, apiKey string, auth *Auth) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		auth:       auth,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// From starts a query against a table
func (c *Client) From(table string) *Query {
	return newQuery(c, table)
}

// do performs one request against the row store and decodes the response
// body into dest (skipped when dest is nil or the body is empty).
func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}

	req.Header.Set("apikey", c.apiKey)
	token := c.apiKey
	if c.auth != nil {
		if t := c.auth.Token(); t != "" {
			token = t
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("Row store request", logger.F("method", method), logger.F("url", url))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Row store request failed", logger.F("error", err), logger.F("url", url))
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	logger.Debug("Row store response", logger.F("status", resp.StatusCode), logger.F("size", len(respBody)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, respBody)
	}

	if dest == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into a structured Error
func decodeError(status int, body []byte) error {
	var be Error
	if err := json.Unmarshal(body, &be); err == nil && (be.Code != "" || be.Message != "") {
		return &be
	}
	return &Error{
		Code:    fmt.Sprintf("HTTP%d", status),
		Message: string(body),
	}
}
