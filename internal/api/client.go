// Package api is the HTTP client for the school health backend.
//
// Every call carries "Authorization: Bearer <token>" and a fresh
// X-Request-ID. Responses are normalised at this boundary (see adapter.go)
// so the rest of the console never touches wire field names.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aanand-mishra/school-health/internal/auth"
	"github.com/google/uuid"
)

const (
	requestsPath  = "/medication-requests"
	inventoryPath = "/medications/inventory"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Client talks to the backend under BaseURL (e.g. "http://localhost:8082/api").
type Client struct {
	BaseURL    string
	Tokens     auth.TokenSource
	HTTPClient *http.Client
}

// New returns a Client. A zero timeout leaves the transport default.
func New(baseURL string, tokens auth.TokenSource, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Tokens:     tokens,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// do sends one request. req, when non-nil, is JSON-encoded as the body;
// res, when non-nil, receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, req, res any) error {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return Precondition(err)
	}

	var body io.Reader
	if req != nil {
		b := &bytes.Buffer{}
		if err := json.NewEncoder(b).Encode(req); err != nil {
			return Precondition(fmt.Errorf("encode request: %w", err))
		}
		body = b
	}

	u := c.BaseURL + path
	if len(params) != 0 {
		u += "?" + params.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return Precondition(err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	reqID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", reqID)

	slog.Debug("api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("x_request_id", reqID))

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	httpRes, err := hc.Do(httpReq)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer httpRes.Body.Close()

	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(httpRes.Body, maxErrorBody))
		apiErr := statusError(httpRes.StatusCode, extractMessage(raw))
		slog.Warn("api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("x_request_id", reqID),
			slog.Int("status", httpRes.StatusCode))
		return apiErr
	}

	if res == nil {
		return nil
	}
	if err := json.NewDecoder(httpRes.Body).Decode(res); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &Error{Kind: KindServer, StatusCode: httpRes.StatusCode,
			Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// extractMessage pulls the human-readable text out of an error body.
// JSON bodies are searched for "message", then "error"; short plain-text
// bodies are returned trimmed; anything else yields "".
func extractMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var envelope struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return ""
		}
		if envelope.Message != "" {
			return envelope.Message
		}
		var s string
		if json.Unmarshal(envelope.Error, &s) == nil {
			return s
		}
		return ""
	}

	text := string(raw)
	if strings.HasPrefix(text, "<") || len(text) > 300 {
		return ""
	}
	return text
}

func requestPath(id, action string) string {
	return requestsPath + "/" + url.PathEscape(id) + "/" + action
}
