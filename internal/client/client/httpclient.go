package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geotrack/tracker-client/internal/client/models"
	"github.com/geotrack/tracker-client/internal/logging"
	"github.com/google/uuid"
)

const (
	RequestIDHeaderName = "X-Request-ID"

	defaultTimeout  = 10 * time.Second
	maxErrorBodyLen = 64 << 10
)

// HTTPClient implements Client over the authority's JSON HTTP API.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	jar     *resettableJar
	issued  *issuedCookies
	timeout time.Duration
	cookies CookieStore
	log     logging.Logger
}

type Option func(*HTTPClient)

// WithTimeout bounds every request. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCookieStore makes the session cookie survive restarts.
func WithCookieStore(s CookieStore) Option {
	return func(c *HTTPClient) { c.cookies = s }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.http.Transport = rt }
}

// NewHTTPClient builds a client for the authority at baseURL
// (e.g. "http://localhost:8080"). Stored cookies, if any, are loaded into
// the jar before it returns.
func NewHTTPClient(ctx context.Context, baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	jar, err := newResettableJar()
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: jar},
		jar:     jar,
		issued:  newIssuedCookies(),
		timeout: defaultTimeout,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cookies != nil {
		cookies, err := c.cookies.LoadCookies(ctx)
		if err != nil {
			c.log.Warn(ctx, "stored cookies ignored", "error", err)
		} else if len(cookies) > 0 {
			c.issued.remember(cookies, time.Now())
			jar.SetCookies(c.baseURL, cookies)
		}
	}
	return c, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Login posts the credentials as given; normalisation is the caller's job.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPost, "/login", credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("%w: login response without user", ErrMalformedResponse)
	}
	return out.User, nil
}

// Me returns the user of the session the cookie jar currently carries.
func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("%w: session response without user", ErrMalformedResponse)
	}
	return out.User, nil
}

// Logout asks the authority to drop the session. The local cookies are
// discarded whatever the outcome.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, nil)

	if rerr := c.jar.Reset(); rerr != nil {
		c.log.Warn(ctx, "cookie jar reset failed", "error", rerr)
	}
	c.issued.reset()
	c.persistCookies(ctx)
	return err
}

// Ping reports whether the authority answers at all. Any HTTP response,
// including 401, counts as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/me", nil, nil)
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode request: %w", ErrUnavailable, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeaderName, reqID)

	log := c.log.With("method", method, "path", path, "request_id", reqID)
	log.Debug(ctx, "request")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug(ctx, "transport failure", "error", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	log.Debug(ctx, "response", "status", resp.StatusCode)
	c.issued.remember(resp.Cookies(), time.Now())
	c.persistCookies(ctx)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	if err == nil && len(data) > 0 {
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			se.Message = strings.TrimSpace(eb.Message)
		}
	}
	return se
}

func (c *HTTPClient) persistCookies(ctx context.Context) {
	if c.cookies == nil {
		return
	}
	live := c.issued.annotate(c.jar.Cookies(c.baseURL))
	if err := c.cookies.SaveCookies(ctx, live); err != nil {
		c.log.Warn(ctx, "cookies not persisted", "error", err)
	}
}
