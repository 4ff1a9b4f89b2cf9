package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader carries the public API key on every request.
const APIKeyHeader = "apikey"

// Form is a multipart body: plain fields plus at most one file.
type Form struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      []byte
}

// Call describes one API request.
type Call struct {
	Method string
	Path   string
	Body   any
	Form   *Form
	// Token overrides the session token. NoAuth sends no token at all.
	Token  string
	NoAuth bool
}

// Transport performs API calls with fiber's HTTP client.
type Transport struct {
	baseURL string
	apiKey  string
	timeout time.Duration

	mu             sync.RWMutex
	tokenSource    func() string
	onUnauthorized func()
}

// NewTransport returns a transport for the API at baseURL.
func NewTransport(baseURL, apiKey string, timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Transport{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, timeout: timeout}
}

// BaseURL returns the API root the transport talks to.
func (t *Transport) BaseURL() string { return t.baseURL }

// APIKey returns the configured public API key.
func (t *Transport) APIKey() string { return t.apiKey }

// SetTokenSource installs the function that supplies bearer tokens.
func (t *Transport) SetTokenSource(fn func() string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokenSource = fn
}

// OnUnauthorized installs a hook run whenever a request that carried a
// token is answered with 401.
func (t *Transport) OnUnauthorized(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUnauthorized = fn
}

func (t *Transport) token(c Call) string {
	if c.NoAuth {
		return ""
	}
	if c.Token != "" {
		return c.Token
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.tokenSource == nil {
		return ""
	}
	return t.tokenSource()
}

// Do sends a JSON request and decodes a JSON answer into out, which may be nil.
func (t *Transport) Do(ctx context.Context, method, path string, body, out any) error {
	return t.Send(ctx, Call{Method: method, Path: path, Body: body}, out)
}

type result struct {
	code int
	body []byte
	err  error
}

// Send performs c. Non-2xx answers come back as *APIError.
func (t *Transport) Send(ctx context.Context, c Call, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	token := t.token(c)

	done := make(chan result, 1)
	go func() {
		code, body, err := t.exchange(c, token, timeout)
		done <- result{code: code, body: body, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return res.err
	}

	if res.code >= http.StatusBadRequest {
		apiErr := &APIError{Status: res.code}
		_ = json.Unmarshal(res.body, apiErr)
		if res.code == http.StatusUnauthorized && token != "" {
			t.mu.RLock()
			hook := t.onUnauthorized
			t.mu.RUnlock()
			if hook != nil {
				hook()
			}
		}
		return apiErr
	}
	if out == nil || len(res.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", c.Method, c.Path, err)
	}
	return nil
}

func (t *Transport) exchange(c Call, token string, timeout time.Duration) (int, []byte, error) {
	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(c.Method)
	req.SetRequestURI(t.baseURL + c.Path)
	a.Timeout(timeout)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if t.apiKey != "" {
		a.Set(APIKeyHeader, t.apiKey)
	}
	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	switch {
	case c.Form != nil:
		args := fiber.AcquireArgs()
		defer fiber.ReleaseArgs(args)
		for k, v := range c.Form.Fields {
			args.Set(k, v)
		}
		if c.Form.FileField != "" {
			a.FileData(&fiber.FormFile{Fieldname: c.Form.FileField, Name: c.Form.FileName, Content: c.Form.File})
		}
		a.MultipartForm(args)
	case c.Body != nil:
		a.JSON(c.Body)
	}

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return 0, nil, fmt.Errorf("%s %s: %w", c.Method, c.Path, err)
	}
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return 0, nil, fmt.Errorf("%s %s: %w", c.Method, c.Path, errors.Join(errs...))
	}
	return code, body, nil
}
