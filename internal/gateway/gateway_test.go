package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekirdag/admin-console/internal/session"
)

// mockAPI simulates the admin API endpoints the console uses.
func mockAPI(t *testing.T) (*httptest.Server, *http.Header) {
	t.Helper()

	var last http.Header
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/contests", func(w http.ResponseWriter, r *http.Request) {
		last = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		fmt.Fprintf(w, `{"success":true,"data":[{"id":7,"name":"Spring Cup","place":"Tokyo","published":"○"}],"page":%s,"totalPages":3,"total":101}`, page)
	})
	mux.HandleFunc("GET /api/contests/places", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":["Osaka","Tokyo",null]}`)
	})
	mux.HandleFunc("PUT /api/contests/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["name"] == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"success":false,"errors":[{"msg":"name is required"},{"message":"date is invalid"}]}`)
			return
		}
		fmt.Fprint(w, `{"success":true}`)
	})
	mux.HandleFunc("POST /api/contests", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"error":"<b>duplicate</b> contest"}`)
	})
	mux.HandleFunc("DELETE /api/contests/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"error":{"message":"contest not found"}}`)
	})
	mux.HandleFunc("GET /api/broken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>oops</html>`)
	})
	mux.HandleFunc("GET /api/private", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"error":"unauthenticated"}`)
	})
	mux.HandleFunc("GET /api/auth/status", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "cookie-session", Path: "/"})
		fmt.Fprint(w, `{"isAuthenticated":true,"user":{"role":"admin","username":"hanako","email":"h@example.com"}}`)
	})
	mux.HandleFunc("GET /api/echo-cookie", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil {
			fmt.Fprint(w, `{"success":true,"data":null}`)
			return
		}
		fmt.Fprintf(w, `{"success":true,"data":%q}`, c.Value)
	})
	mux.HandleFunc("POST /api/orders/sync", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"message":"12 orders imported"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestRequest_AttachesBearerWhenPresent(t *testing.T) {
	srv, last := mockAPI(t)
	store := session.NewStore(nil)
	require.NoError(t, store.Set("tok-1"))
	g := New(srv.URL, store)

	_, err := g.List(context.Background(), "/api/contests", url.Values{"page": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", last.Get("Authorization"))
	assert.Equal(t, "application/json", last.Get("Content-Type"))
	assert.NotEmpty(t, last.Get("X-Request-ID"))
}

func TestRequest_OmitsBearerWithoutCredential(t *testing.T) {
	srv, last := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	_, err := g.List(context.Background(), "/api/contests", nil)
	require.NoError(t, err)
	assert.Empty(t, last.Get("Authorization"))
}

func TestRequest_CallerHeadersOverrideDefaults(t *testing.T) {
	srv, last := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	_, err := g.Request(context.Background(), http.MethodGet, "/api/contests", nil, http.Header{
		"Content-Type": {"text/plain"},
		"X-Request-Id": {"fixed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", last.Get("Content-Type"))
	assert.Equal(t, "fixed", last.Get("X-Request-ID"))
}

func TestList_DecodesPage(t *testing.T) {
	srv, _ := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	page, err := g.List(context.Background(), "/api/contests", url.Values{"page": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 101, page.Total)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "7", page.Rows[0].ID("id"))
	assert.Equal(t, "○", page.Rows[0].String("published"))
}

func TestFacet_SkipsNulls(t *testing.T) {
	srv, _ := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	values, err := g.Facet(context.Background(), "/api/contests", "places")
	require.NoError(t, err)
	assert.Equal(t, []string{"Osaka", "Tokyo"}, values)
}

func TestRequest_ValidationMessagesVerbatim(t *testing.T) {
	srv, _ := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	_, err := g.Update(context.Background(), "/api/contests", "7", map[string]any{"name": ""})
	require.Error(t, err)
	assert.Equal(t, ValidationFailure, KindOf(err))

	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"name is required", "date is invalid"}, re.Messages)
	assert.Equal(t, "name is required\ndate is invalid", UserMessage("Save", err))
}

func TestRequest_SuccessFalseIsServerError(t *testing.T) {
	srv, _ := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	_, err := g.Create(context.Background(), "/api/contests", map[string]any{"name": "x"})
	require.Error(t, err)
	assert.Equal(t, ServerError, KindOf(err))
	assert.Equal(t, "<b>duplicate</b> contest", UserMessage("Create", err))
}

func TestRequest_NotFoundObjectError(t *testing.T) {
	srv, _ := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	_, err := g.Delete(context.Background(), "/api/contests", "9")
	assert.Equal(t, NotFound, KindOf(err))
	assert.Equal(t, "contest not found", UserMessage("Delete", err))
}

func TestRequest_ParseFailure(t *testing.T) {
	srv, _ := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	_, err := g.Request(context.Background(), http.MethodGet, "/api/broken", nil, nil)
	assert.Equal(t, ParseFailure, KindOf(err))
	assert.Equal(t, "Load failed: the server sent an unreadable response", UserMessage("Load", err))
}

func TestRequest_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	g := New(base, session.NewStore(nil))
	_, err := g.Request(context.Background(), http.MethodGet, "/api/contests", nil, nil)
	assert.Equal(t, NetworkFailure, KindOf(err))
}

func TestRequest_UnauthenticatedClearsAndRedirects(t *testing.T) {
	srv, _ := mockAPI(t)
	store := session.NewStore(nil)
	require.NoError(t, store.Set("stale"))

	var redirectedTo []string
	g := New(srv.URL, store, WithSignInRedirect("/login", func(p string) {
		redirectedTo = append(redirectedTo, p)
	}))

	_, err := g.Request(context.Background(), http.MethodGet, "/api/private", nil, nil)
	assert.True(t, IsAuthExpired(err))
	assert.Empty(t, store.Token())
	assert.Equal(t, []string{"/login"}, redirectedTo)
	assert.False(t, g.Authenticated())
}

func TestRequest_SendsCookieSession(t *testing.T) {
	srv, _ := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	st, err := g.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	assert.Equal(t, "admin", st.Role)
	assert.Equal(t, "hanako", st.Name)

	env, err := g.Request(context.Background(), http.MethodGet, "/api/echo-cookie", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"cookie-session"`, string(env.Data))
}

func TestNew_OptionOrderAndCallerClient(t *testing.T) {
	caller := &http.Client{Timeout: time.Minute}
	g := New("http://api.test", nil, WithTimeout(5*time.Second), WithHTTPClient(caller))
	assert.Equal(t, 5*time.Second, g.httpClient.Timeout, "timeout survives a later client option")
	assert.NotNil(t, g.httpClient.Jar)
	assert.NotSame(t, caller, g.httpClient)
	assert.Nil(t, caller.Jar, "the caller's client is not modified")
	assert.Equal(t, time.Minute, caller.Timeout)

	shared := http.DefaultClient.Jar
	New("http://api.test", nil, WithHTTPClient(http.DefaultClient))
	assert.Equal(t, shared, http.DefaultClient.Jar)

	g = New("http://api.test", nil, WithHTTPClient(caller))
	assert.Equal(t, time.Minute, g.httpClient.Timeout, "no timeout option keeps the client's own")
}

func TestRunJob_ReturnsMessage(t *testing.T) {
	srv, _ := mockAPI(t)
	g := New(srv.URL, session.NewStore(nil))

	msg, err := g.RunJob(context.Background(), "/api/orders/sync", nil)
	require.NoError(t, err)
	assert.Equal(t, "12 orders imported", msg)
}

func TestLogout_ClearsEvenWhenServerFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	store := session.NewStore(nil)
	require.NoError(t, store.Set("tok"))
	g := New(srv.URL, store)

	err := g.Logout(context.Background())
	assert.Equal(t, ServerError, KindOf(err))
	assert.Empty(t, store.Token())
}
