// Package gateway is the console's single door to the admin REST API.
//
// Every call carries the bearer credential from the session store (when one
// exists) together with the cookie session held by the client's jar, so pages
// relying on either mode work. Expected failures come back as *RequestError;
// a 401 additionally clears the credential and fires the sign-in redirect.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/bekirdag/admin-console/internal/session"
)

// DefaultSignInPath is the entry point the redirect hook receives.
const DefaultSignInPath = "/login"

// Gateway issues authenticated requests.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	session    *session.Store
	logger     *slog.Logger

	signInPath string
	onSignIn   func(path string)
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default client. The gateway works on a copy,
// so c itself is never given a jar or a timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		if c != nil {
			g.httpClient = c
		}
	}
}

// WithTimeout sets the transport timeout, whichever client is used.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithSignInRedirect registers the hook called after a 401.
func WithSignInRedirect(path string, fn func(path string)) Option {
	return func(g *Gateway) {
		if strings.TrimSpace(path) != "" {
			g.signInPath = path
		}
		g.onSignIn = fn
	}
}

// New returns a Gateway for baseURL using store for the credential.
func New(baseURL string, store *session.Store, opts ...Option) *Gateway {
	if store == nil {
		store = session.NewStore(nil)
	}
	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    store,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		signInPath: DefaultSignInPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	client := *g.httpClient
	g.httpClient = &client
	if g.timeout > 0 {
		g.httpClient.Timeout = g.timeout
	}
	if g.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err == nil {
			g.httpClient.Jar = jar
		}
	}
	return g
}

// BaseURL returns the API root the gateway talks to.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Authenticated reports whether a credential is held.
func (g *Gateway) Authenticated() bool { return g.session.Token() != "" }

// Identity exposes what the held token says about its owner.
func (g *Gateway) Identity() (session.Identity, error) { return g.session.Identity() }

// Request performs method on path. body, when non-nil, is JSON-encoded.
// extra headers override the defaults.
func (g *Gateway) Request(ctx context.Context, method, path string, body any, extra http.Header) (*Envelope, error) {
	start := time.Now()
	req, err := g.buildRequest(ctx, method, path, body, extra)
	if err != nil {
		return nil, &RequestError{Kind: ParseFailure, Method: method, Path: path, Err: err}
	}
	requestID := req.Header.Get("X-Request-ID")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warn("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, &RequestError{Kind: NetworkFailure, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: NetworkFailure, Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	g.logger.Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		g.expire()
		return nil, &RequestError{Kind: AuthExpired, Method: method, Path: path, Status: resp.StatusCode, Messages: errorMessages(raw)}
	}

	if resp.StatusCode >= 400 {
		re := &RequestError{
			Kind:     kindForStatus(resp.StatusCode),
			Method:   method,
			Path:     path,
			Status:   resp.StatusCode,
			Messages: errorMessages(raw),
		}
		g.logger.Warn("request rejected", "method", method, "path", path, "status", resp.StatusCode, "kind", re.Kind.String())
		return nil, re
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, &RequestError{Kind: ParseFailure, Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	if !env.Success {
		return env, &RequestError{Kind: ServerError, Method: method, Path: path, Status: resp.StatusCode, Messages: errorMessages(raw)}
	}
	return env, nil
}

func (g *Gateway) buildRequest(ctx context.Context, method, path string, body any, extra http.Header) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := g.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, values := range extra {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return req, nil
}

func (g *Gateway) expire() {
	if err := g.session.Clear(); err != nil {
		g.logger.Warn("clearing credential failed", "error", err)
	}
	g.logger.Info("session expired, redirecting", "to", g.signInPath)
	if g.onSignIn != nil {
		g.onSignIn(g.signInPath)
	}
}
