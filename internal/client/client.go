package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"assistant/internal/logging"
)

const defaultBaseURL = "http://127.0.0.1:8000"

type Options struct {
	BaseURL     string
	CookiePath  string
	Timeout     time.Duration
	Logger      logging.Logger
	StreamDebug bool
}

// Client talks to the journal assistant backend. Authentication is a cookie
// session, so every request shares one jar that is optionally persisted.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	stream      *http.Client
	cookies     *cookieStore
	logger      logging.Logger
	streamDebug bool
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		raw = defaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", raw)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	cookies := &cookieStore{path: strings.TrimSpace(opts.CookiePath), jar: jar, base: base}
	if err := cookies.load(); err != nil {
		logger.Warn("cookie_load_failed", logging.F("error", err))
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		// streams stay open for the whole turn
		stream: &http.Client{
			Jar: jar,
		},
		cookies:     cookies,
		logger:      logger,
		streamDebug: opts.StreamDebug,
	}, nil
}

func NewWithBaseURL(baseURL string) (*Client, error) {
	return New(Options{BaseURL: baseURL})
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api_request_failed",
			logging.F("method", method),
			logging.F("path", path),
			logging.F("error", err),
		)
		return nil, err
	}
	if c.logger.Enabled(logging.Debug) {
		c.logger.Debug("api_request",
			logging.F("method", method),
			logging.F("path", path),
			logging.F("status", resp.StatusCode),
			logging.F("duration_ms", time.Since(start).Milliseconds()),
		)
	}
	if err := c.cookies.save(); err != nil {
		c.logger.Warn("cookie_save_failed", logging.F("error", err))
	}
	return resp, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.baseURL.String(), "/") + path
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	var detail string
	if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: detail}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Gone reports a 404 or 410, which the stream endpoints return once a
// stream has finished or expired.
func (e *APIError) Gone() bool {
	return e != nil && (e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone)
}

func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	apiErr := asAPIError(err)
	return apiErr != nil && apiErr.StatusCode == http.StatusUnauthorized
}
