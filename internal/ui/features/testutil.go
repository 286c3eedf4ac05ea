// Package features provides shared test utilities for UI feature tests.
package features

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/history"
	"github.com/leapstack-labs/parq/internal/testutil"
	"github.com/leapstack-labs/parq/internal/ui/features/common"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Deps    *common.Deps
	Store   *testutil.FakeStore
	History *history.Store
}

// SetupTestFixture wires a fake store, a cookie session store and an
// in-memory history into handler dependencies.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	fake := &testutil.FakeStore{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ep, err := endpoint.New(srv.URL+"/parliament", endpoint.DefaultQueryPath, endpoint.DefaultUpdatePath)
	require.NoError(t, err)

	hist, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = hist.Close() })

	// Submissions settle on detached goroutines that may outlive a test,
	// so their logs must not go to t.Log.
	logger := slog.New(slog.DiscardHandler)

	settings := workspace.Settings{HideMaster: true, History: hist, Logger: logger}
	return &TestFixture{
		Deps: &common.Deps{
			Workspaces: workspace.NewRegistry(workspace.NewFactory(ep, srv.Client(), settings)),
			Sessions:   NewTestSessionStore(),
			Endpoint:   ep,
			History:    hist,
			Logger:     logger,
		},
		Store:   fake,
		History: hist,
	}
}

// Serve mounts routes on a test server and returns a cookie-keeping client.
func (f *TestFixture) Serve(t *testing.T, setup func(chi.Router, *common.Deps) error) *Client {
	t.Helper()

	r := chi.NewMux()
	require.NoError(t, setup(r, f.Deps))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return NewClient(t, srv.URL)
}

// Client is a browser-like HTTP client that keeps its session cookie.
type Client struct {
	t    *testing.T
	base string
	http *http.Client
}

// NewClient creates a client with its own cookie jar.
func NewClient(t *testing.T, base string) *Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &Client{t: t, base: base, http: &http.Client{Jar: jar}}
}

// Fresh returns a client for the same server with an empty cookie jar,
// i.e. a second browser.
func (c *Client) Fresh() *Client {
	return NewClient(c.t, c.base)
}

// Get fetches path and returns the status and full body.
func (c *Client) Get(path string) (int, string) {
	c.t.Helper()
	return c.do(http.MethodGet, path, nil)
}

// Post sends signals as the datastar JSON body.
func (c *Client) Post(path string, signals any) (int, string) {
	c.t.Helper()
	body := []byte("{}")
	if signals != nil {
		var err error
		body, err = json.Marshal(signals)
		require.NoError(c.t, err)
	}
	return c.do(http.MethodPost, path, bytes.NewReader(body))
}

func (c *Client) do(method, path string, body io.Reader) (int, string) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, string(data)
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
