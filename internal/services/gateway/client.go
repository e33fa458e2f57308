// Package gateway is the single boundary between the engine and the remote
// task API. Every response is normalized here; nothing upstream sees wire
// field names.
package gateway

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

	"github.com/google/uuid"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
	"golang.org/x/oauth2"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxDetailLen caps raw-text error bodies surfaced to users
const maxDetailLen = 200

// Client talks to the task API over HTTP
type Client struct {
	baseURL  string
	http     Doer
	fallback oauth2.TokenSource
	logger   *slog.Logger
	now      func() time.Time
}

// NewClient creates a new API client with dependency injection
func NewClient(baseURL string, doer Doer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
		now:     time.Now,
	}
}

// WithFallbackCredentials sets the token source used when a session has no
// bearer token of its own
func (c *Client) WithFallbackCredentials(ts oauth2.TokenSource) *Client {
	c.fallback = ts
	return c
}

// WithClock replaces the clock used for defaulted timestamps
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// BaseURL returns the API root the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one request and returns the raw body of a 2xx response.
// Cancellation is returned as the bare context error.
func (c *Client) do(ctx context.Context, s auth.Session, op, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := auth.Resolve(s, c.fallback); tok != nil {
		tok.SetAuthHeader(req)
	}

	c.logger.Debug("api request", "op", op, "method", method, "path", path, "request_id", requestID)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.logger.Debug("api request canceled", "op", op, "request_id", requestID)
			return nil, ctxErr
		}
		c.logger.Debug("api unreachable", "op", op, "request_id", requestID, "error", err)
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.TransportError{Op: op, Err: err}
	}

	c.logger.Debug("api response",
		"op", op,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.GatewayError{Op: op, Status: resp.StatusCode, Detail: extractDetail(raw)}
	}
	return raw, nil
}

// extractDetail pulls a human-readable message out of an error body
func extractDetail(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"message", "error", "detail", "msg"} {
			switch v := body[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case map[string]any:
				if m, ok := v["message"].(string); ok && m != "" {
					return m
				}
			}
		}
		if errs, ok := body["errors"].([]any); ok && len(errs) > 0 {
			if first, ok := errs[0].(map[string]any); ok {
				if m, ok := first["message"].(string); ok {
					return m
				}
			}
			if s, ok := errs[0].(string); ok {
				return s
			}
		}
		return ""
	}

	text := string(raw)
	if strings.HasPrefix(text, "<") || len(text) > maxDetailLen {
		return ""
	}
	return text
}

// decode parses a JSON body keeping numbers intact
func decode(op string, raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &domain.GatewayError{Op: op, Status: http.StatusOK, Detail: "malformed response", Err: err}
	}
	return v, nil
}

// unwrapList finds the item array in a bare-array or enveloped response
func unwrapList(v any) []map[string]any {
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case map[string]any:
		for _, key := range listEnvelopeKeys {
			switch inner := x[key].(type) {
			case []any:
				items = inner
			case map[string]any:
				// {data: {tasks: [...]}}
				if nested := unwrapList(inner); nested != nil {
					return nested
				}
			}
			if items != nil {
				break
			}
		}
	}
	if items == nil {
		return nil
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// unwrapTask finds the task object in a flat, {task, assignees} or {data}
// response. Assignees carried beside the task are folded in.
func unwrapTask(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	if task, ok := m["task"].(map[string]any); ok {
		if assignees, ok := m["assignees"]; ok {
			if _, has := lookup(task, taskAssigneeKeys); !has {
				merged := make(map[string]any, len(task)+1)
				for k, val := range task {
					merged[k] = val
				}
				merged["assignees"] = assignees
				task = merged
			}
		}
		return task, true
	}
	if data, ok := m["data"].(map[string]any); ok {
		return unwrapTask(data)
	}
	if _, ok := lookup(m, taskIDKeys); !ok {
		return nil, false
	}
	return m, true
}

var errNoTask = errors.New("response carried no task")
