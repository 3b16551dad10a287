// Package apiclient performs authenticated JSON calls against the console's
// backends and recovers transparently from an expired access token.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/livee-admin-console/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Request describes one call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Anonymous requests carry no bearer token and never trigger a refresh.
	Anonymous bool

	retried     bool
	accessToken string
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[apiclient] decode response: %w", err)
	}
	return nil
}

// Client talks to one base URL. Clients built on the same Gate share its refresh.
type Client struct {
	name       string
	baseURL    string
	gate       *Gate
	httpClient *http.Client
	log        zerolog.Logger
	metrics    *metrics.Collectors
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithName sets the client label used in logs and metrics. It defaults to the
// base URL's host.
func WithName(name string) Option {
	return func(c *Client) {
		c.name = name
	}
}

func New(baseURL string, gate *Gate, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		gate:       gate,
		httpClient: http.DefaultClient,
		log:        zerolog.Nop(),
		metrics:    metrics.New(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.name == "" {
		if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
			c.name = u.Host
		} else {
			c.name = c.baseURL
		}
	}
	c.log = c.log.With().Str("client", c.name).Logger()
	return c
}

// BaseURL returns the URL every request path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req. A 401 on a request that has not been replayed yet hands control
// to the gate and replays the request once with the refreshed token. Every other
// failure is returned as is: *APIError for HTTP errors, a wrapped error for
// transport failures.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var body []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("[apiclient] encode request body: %w", err)
		}
		body = encoded
	}
	return c.do(ctx, req, body)
}

func (c *Client) do(ctx context.Context, req *Request, body []byte) (*Response, error) {
	token := c.bearer(req)
	resp, err := c.send(ctx, req, body, token)
	if err == nil {
		return resp, nil
	}
	if req.Anonymous || req.retried || !IsAuthError(err) {
		return nil, err
	}

	var sent string
	if token != nil {
		sent = token.AccessToken
	}
	label := req.Method + " " + req.Path
	accessToken, err := c.gate.Recover(ctx, label, sent)
	if err != nil {
		return nil, err
	}

	replay := *req
	replay.retried = true
	replay.accessToken = accessToken
	c.log.Debug().Str("request", label).Msg("replaying request with refreshed token")
	return c.do(ctx, &replay, body)
}

func (c *Client) send(ctx context.Context, req *Request, body []byte, token *oauth2.Token) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("[apiclient] build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token != nil {
		token.SetAuthHeader(httpReq)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.Requests.WithLabelValues(c.name, metrics.StatusClass(0)).Inc()
		return nil, fmt.Errorf("[apiclient] %s %s: %w", req.Method, target, err)
	}
	defer httpResp.Body.Close()

	c.metrics.Requests.WithLabelValues(c.name, metrics.StatusClass(httpResp.StatusCode)).Inc()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient] read response of %s %s: %w", req.Method, target, err)
	}

	c.log.Trace().Str("method", req.Method).Str("url", target).Int("status", httpResp.StatusCode).Msg("request completed")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, NewAPIError(req.Method, target, httpResp.StatusCode, data)
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

// bearer picks the token for req: the refreshed token on a replay, the session's
// token otherwise. It returns nil when there is nothing to send.
func (c *Client) bearer(req *Request) *oauth2.Token {
	if req.Anonymous {
		return nil
	}
	if req.accessToken != "" {
		return &oauth2.Token{AccessToken: req.accessToken, TokenType: "Bearer"}
	}
	token := c.gate.sessions.Session().Token
	if token == nil || token.AccessToken == "" {
		return nil
	}
	return token
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: in}, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPatch, Path: path, Body: in}, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, &Request{Method: http.MethodDelete, Path: path}, nil)
}

func (c *Client) call(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}
