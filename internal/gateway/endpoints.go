package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// Session endpoints.
const (
	StatusPath = "/api/auth/status"
	LogoutPath = "/api/auth/logout"
)

// List fetches one page of resource.
func (g *Gateway) List(ctx context.Context, resource string, query url.Values) (Page, error) {
	path := resource
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	env, err := g.Request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return Page{}, err
	}
	rows, err := decodeRecords(env.Data)
	if err != nil {
		return Page{}, &RequestError{Kind: ParseFailure, Method: http.MethodGet, Path: path, Err: err}
	}
	return Page{
		Rows:       rows,
		Page:       env.Page,
		TotalPages: env.TotalPages,
		Total:      env.Total,
	}, nil
}

// Facet fetches the distinct values offered by a select filter.
func (g *Gateway) Facet(ctx context.Context, resource, facet string) ([]string, error) {
	path := resource + "/" + strings.TrimLeft(facet, "/")
	env, err := g.Request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	values, err := decodeStrings(env.Data)
	if err != nil {
		return nil, &RequestError{Kind: ParseFailure, Method: http.MethodGet, Path: path, Err: err}
	}
	return values, nil
}

// Create POSTs a new record.
func (g *Gateway) Create(ctx context.Context, resource string, body map[string]any) (*Envelope, error) {
	return g.Request(ctx, http.MethodPost, resource, body, nil)
}

// Update PUTs record id.
func (g *Gateway) Update(ctx context.Context, resource, id string, body map[string]any) (*Envelope, error) {
	return g.Request(ctx, http.MethodPut, recordPath(resource, id), body, nil)
}

// Delete removes record id (logically, for soft-delete resources).
func (g *Gateway) Delete(ctx context.Context, resource, id string) (*Envelope, error) {
	return g.Request(ctx, http.MethodDelete, recordPath(resource, id), nil, nil)
}

// Restore reactivates a soft-deleted record.
func (g *Gateway) Restore(ctx context.Context, resource, id string) (*Envelope, error) {
	return g.Request(ctx, http.MethodPut, recordPath(resource, id)+"/restore", nil, nil)
}

// Purge deletes a record permanently.
func (g *Gateway) Purge(ctx context.Context, resource, id string) (*Envelope, error) {
	return g.Request(ctx, http.MethodDelete, recordPath(resource, id)+"/permanent", nil, nil)
}

// RunJob triggers an opaque side job and returns the server's message.
func (g *Gateway) RunJob(ctx context.Context, path string, body map[string]any) (string, error) {
	env, err := g.Request(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// AuthStatus is the decoded /api/auth/status body.
type AuthStatus struct {
	Authenticated bool
	Role          string
	Name          string
}

// Status asks the server whether the current credential or cookie session
// is still valid.
func (g *Gateway) Status(ctx context.Context) (AuthStatus, error) {
	env, err := g.Request(ctx, http.MethodGet, StatusPath, nil, nil)
	if err != nil {
		return AuthStatus{}, err
	}
	root := gjson.ParseBytes(env.Raw)
	st := AuthStatus{
		Authenticated: root.Get("isAuthenticated").Bool(),
		Role:          root.Get("user.role").String(),
	}
	for _, key := range []string{"user.name", "user.username", "user.email"} {
		if v := root.Get(key).String(); v != "" {
			st.Name = v
			break
		}
	}
	return st, nil
}

// Adopt stores a pre-issued token as the session credential.
func (g *Gateway) Adopt(token string) error {
	return g.session.Set(token)
}

// Logout ends the server session and drops the credential regardless of
// the server's answer.
func (g *Gateway) Logout(ctx context.Context) error {
	_, err := g.Request(ctx, http.MethodPost, LogoutPath, nil, nil)
	if clearErr := g.session.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	if IsAuthExpired(err) {
		return nil
	}
	return err
}

func recordPath(resource, id string) string {
	return strings.TrimRight(resource, "/") + "/" + url.PathEscape(id)
}
