// Package client calls the check service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"censorship/pkg/models"
)

var ErrUnexpectedStatus = fmt.Errorf("unexpected status from check service")

type ctxKeyRequestID struct{}

// WithRequestID returns a context whose requests carry id in X-Request-Id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL, e.g. "http://localhost:8055".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Check reports whether the service considers text profane.
func (c *Client) Check(ctx context.Context, text string) (bool, error) {
	b, err := json.Marshal(models.Comment{Text: text})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check", bytes.NewReader(b))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if id, ok := ctx.Value(ctxKeyRequestID{}).(string); ok && id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("check request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusUnprocessableEntity:
		return true, nil
	default:
		log.Debugf("[client] check service answered %s", resp.Status)
		return false, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
}
