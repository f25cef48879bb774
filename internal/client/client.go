package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
)

// Client talks to the sheetviz upload service.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	token            string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// Upload mirrors the service's upload document. Listings leave Data nil.
type Upload struct {
	ID         string            `json:"_id"`
	FileName   string            `json:"fileName"`
	UserID     string            `json:"userId"`
	UploadDate time.Time         `json:"uploadDate"`
	Data       analysis.RawTable `json:"data,omitempty"`
}

// LoginResult carries the session token; UserID holds the account name.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// New returns a client with custom HTTP timeout and retry/backoff behavior.
func New(baseURL string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		baseURL:          strings.TrimRight(baseURL, "/"),
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body, err := jsonBody(map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/register", body, nil)
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body, err := jsonBody(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUploads returns metadata for every upload of the current user.
func (c *Client) ListUploads(ctx context.Context) ([]Upload, error) {
	var out []Upload
	if err := c.do(ctx, http.MethodGet, "/api/uploads", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchUpload retrieves an upload with its table. Every failure is wrapped in
// a *FetchError.
func (c *Client) FetchUpload(ctx context.Context, id string) (*Upload, error) {
	var out Upload
	if err := c.do(ctx, http.MethodGet, "/api/uploads/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, &FetchError{UploadID: id, Err: err}
	}
	return &out, nil
}

// UploadFile sends a local spreadsheet as the multipart "file" field.
func (c *Client) UploadFile(ctx context.Context, path string) (*Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	payload := buf.Bytes()
	body := func() (io.Reader, string) { return bytes.NewReader(payload), mw.FormDataContentType() }

	var out struct {
		Message string `json:"message"`
		Upload  Upload `json:"upload"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/uploads", body, &out); err != nil {
		return nil, err
	}
	return &out.Upload, nil
}

// DeleteUpload removes one upload.
func (c *Client) DeleteUpload(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/uploads/"+url.PathEscape(id), nil, nil)
}

// DeleteAccount removes the current user and all uploads.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/account", nil, nil)
}

// bodyFunc rebuilds the request body for every attempt.
type bodyFunc func() (io.Reader, string)

func jsonBody(v any) (bodyFunc, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return func() (io.Reader, string) { return bytes.NewReader(payload), "application/json" }, nil
}

func (c *Client) do(ctx context.Context, method, path string, body bodyFunc, out any) error {
	endpoint := c.baseURL + path
	maxAttempts := c.retryMaxAttempts
	backoff := c.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Respect context cancellation
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var rdr io.Reader
		contentType := ""
		if body != nil {
			rdr, contentType = body()
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.token != "" {
			req.Header.Set("Authorization", c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isRetryableNetErr(err) && attempt < maxAttempts {
				lastErr = err
				c.sleep(ctx, withJitter(backoff))
				backoff *= 2
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &UnreachableError{Host: c.baseURL, Err: err}
		}
		retry, err := c.handle(resp, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == maxAttempts {
			break
		}
		var rl *RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			c.sleep(ctx, rl.RetryAfter)
			continue
		}
		// exponential backoff with cap
		sleep := withJitter(backoff)
		if c.retryMaxDelay > 0 && sleep > c.retryMaxDelay {
			sleep = c.retryMaxDelay
		}
		c.sleep(ctx, sleep)
		backoff *= 2
	}
	return lastErr
}

// handle decodes a response; retry reports whether the failure is transient.
func (c *Client) handle(resp *http.Response, out any) (retry bool, err error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var msg messageResponse
		_ = json.Unmarshal(body, &msg)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: msg.Message, RequestID: resp.Header.Get("X-Request-Id")}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		transient := resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)
		return transient, classifyAPIError(apiErr, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isRetryableNetErr(err error) bool {
	// net errors like timeouts
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// EOF or connection reset
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// classifyAPIError maps a generic APIError to a typed error.
func classifyAPIError(apiErr *APIError, resp *http.Response) error {
	switch sc := apiErr.StatusCode; {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case sc == http.StatusTooManyRequests:
		var ra time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
				ra = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: ra}
	case sc == http.StatusNotFound:
		return &NotFoundError{APIError: apiErr}
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: apiErr}
	default:
		return apiErr
	}
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	// jitter factor in [0.8, 1.2)
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
