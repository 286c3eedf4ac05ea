package history

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store "github.com/leapstack-labs/parq/internal/history"
	"github.com/leapstack-labs/parq/internal/ui/features"
)

func TestPage(t *testing.T) {
	f := features.SetupTestFixture(t)
	client := f.Serve(t, SetupRoutes)

	_, body := client.Get("/history")
	assert.Contains(t, body, "no submissions yet")

	_, err := f.History.Record(context.Background(), store.Entry{
		Mode:        "update",
		Method:      http.MethodPost,
		Payload:     "INSERT DATA { <urn:a> <urn:b> <urn:c> }",
		SubmittedAt: time.Now(),
		State:       store.StateFailure,
		Reason:      "endpoint returned 500",
	})
	require.NoError(t, err)

	status, body := client.Get("/history")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "INSERT DATA { &lt;urn:a&gt; &lt;urn:b&gt; &lt;urn:c&gt; }")
	assert.Contains(t, body, `title="endpoint returned 500"`)

	_, body = client.Get("/history?mode=query")
	assert.Contains(t, body, "no submissions yet")
}

func TestClearSSE(t *testing.T) {
	f := features.SetupTestFixture(t)
	client := f.Serve(t, SetupRoutes)

	_, err := f.History.Record(context.Background(), store.Entry{Mode: "query", State: store.StateSuccess, SubmittedAt: time.Now()})
	require.NoError(t, err)

	status, body := client.Post("/api/history/clear", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "no submissions yet")

	entries, err := f.History.Recent(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDisabled(t *testing.T) {
	f := features.SetupTestFixture(t)
	f.Deps.History = nil
	client := f.Serve(t, SetupRoutes)

	_, body := client.Get("/history")
	assert.Contains(t, body, "history is disabled")
	assert.NotContains(t, body, "/api/history/clear")
}
