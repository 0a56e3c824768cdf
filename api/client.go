// Package api talks to the DocHub HTTP service. Every response is a JSON
// envelope {code, message, data}; code 0 is success.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/jrsteele09/go-dochub-client/notify"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "http://localhost:8080/api/v1"
	DefaultTimeout = 15 * time.Second

	RequestIDHeader = "X-Request-ID"
	maxBodyBytes    = 10 << 20
)

type Client struct {
	baseURL  *url.URL
	http     *http.Client
	limiter  *rate.Limiter
	notifier notify.Notifier

	tokens         oauth2.TokenSource
	onUnauthorized func()
	lock           sync.RWMutex
}

type Option func(*Client)

// WithHTTPClient replaces the transport. The client's timeout still applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithRateLimit throttles outgoing requests. A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

func NewClient(baseURL string, timeout time.Duration, options ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[api.NewClient] invalid base url %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:  u,
		http:     &http.Client{},
		limiter:  rate.NewLimiter(rate.Inf, 0),
		notifier: notify.Nop{},
	}
	for _, opt := range options {
		opt(c)
	}

	hc := *c.http
	hc.Timeout = timeout
	c.http = &hc
	return c, nil
}

// SetTokenSource supplies the bearer token for authenticated requests.
func (c *Client) SetTokenSource(ts oauth2.TokenSource) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers the handler run when a request that carried a
// bearer token is rejected with HTTP 401.
func (c *Client) OnUnauthorized(fn func()) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.onUnauthorized = fn
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values // empty values are dropped
	Body   any

	// AccessToken is sent instead of the token source's token.
	AccessToken string
	// Quiet suppresses notices and the unauthorized handler.
	Quiet bool
	// Anonymous sends no bearer token, even when a session exists.
	Anonymous bool
}

// Do sends r and decodes the envelope's data into out, which may be nil.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Method: r.Method, Path: r.Path, cause: err}
	}

	req, bearer, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := &Error{Method: r.Method, Path: r.Path, kind: errs.ErrNetwork, cause: err}
		if ctx.Err() == nil {
			c.notify(r, apiErr, bearer)
		}
		return apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		apiErr := &Error{Method: r.Method, Path: r.Path, kind: errs.ErrNetwork, cause: err}
		c.notify(r, apiErr, bearer)
		return apiErr
	}

	var env envelope
	envErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Method:  r.Method,
			Path:    r.Path,
			Status:  resp.StatusCode,
			Code:    env.Code,
			Message: env.Message,
			kind:    classify(resp.StatusCode, env.Code),
		}
		log.Debug().Int("status", resp.StatusCode).Int("code", env.Code).Str("path", r.Path).Str("request_id", req.Header.Get(RequestIDHeader)).Msg("api request failed")
		if callerOwned(env.Code) {
			return apiErr
		}
		c.notify(r, apiErr, bearer)
		if apiErr.Status == http.StatusUnauthorized && bearer && !r.Quiet {
			c.unauthorized()
		}
		return apiErr
	}

	if envErr != nil {
		return &Error{Method: r.Method, Path: r.Path, Status: resp.StatusCode, kind: errs.ErrServer, cause: fmt.Errorf("decoding envelope: %w", envErr)}
	}
	if env.Code != CodeSuccess {
		return &Error{
			Method:  r.Method,
			Path:    r.Path,
			Status:  resp.StatusCode,
			Code:    env.Code,
			Message: env.Message,
			kind:    classify(resp.StatusCode, env.Code),
		}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Method: r.Method, Path: r.Path, Status: resp.StatusCode, kind: errs.ErrServer, cause: fmt.Errorf("decoding data: %w", err)}
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, bool, error) {
	u := c.baseURL.JoinPath(r.Path)
	u.RawQuery = encodeQuery(r.Query)

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, false, fmt.Errorf("[api.Do] encoding %s %s body: %w", r.Method, r.Path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, false, fmt.Errorf("[api.Do] building %s %s: %w", r.Method, r.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())

	tok := c.bearer(r)
	if tok == nil {
		return req, false, nil
	}
	tok.SetAuthHeader(req)
	return req, true, nil
}

func (c *Client) bearer(r Request) *oauth2.Token {
	if r.Anonymous {
		return nil
	}
	if r.AccessToken != "" {
		return &oauth2.Token{AccessToken: r.AccessToken, TokenType: "Bearer"}
	}

	c.lock.RLock()
	ts := c.tokens
	c.lock.RUnlock()
	if ts == nil {
		return nil
	}
	tok, err := ts.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return nil
	}
	return tok
}

// notify shows the notice for a status-level or transport failure. A 401 on
// an anonymous request is left to the caller.
func (c *Client) notify(r Request, e *Error, bearer bool) {
	if r.Quiet {
		return
	}
	if e.Status == http.StatusUnauthorized && !bearer {
		return
	}
	c.notifier.Error(e.UserMessage())
	e.notified = true
}

// callerOwned reports envelope codes whose meaning only the caller knows:
// a disabled account gets its own alert and a duplicate may be success.
func callerOwned(code int) bool {
	return code == CodeUserDisabled || code == CodeDuplicate
}

func (c *Client) unauthorized() {
	c.lock.RLock()
	fn := c.onUnauthorized
	c.lock.RUnlock()
	if fn != nil {
		fn()
	}
}

// encodeQuery serializes values in key order, skipping empty ones.
func encodeQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	clean := url.Values{}
	for key, vs := range values {
		for _, v := range vs {
			if v != "" {
				clean.Add(key, v)
			}
		}
	}
	return clean.Encode()
}
