package cli

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leapstack-labs/parq/internal/cli/testutil"
	"github.com/leapstack-labs/parq/internal/testutil"
)

func TestRootCmd_Version(t *testing.T) {
	clitest.SetupEnv(t)

	res, err := clitest.Execute(t, NewRootCmd(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, res.Out, "parq v"+Version)
}

func TestRootCmd_Help(t *testing.T) {
	res, err := clitest.Execute(t, NewRootCmd(), "", "--help")
	require.NoError(t, err)

	for _, sub := range []string{"query", "update", "graphs", "history", "ui", "tui", "completion"} {
		assert.Contains(t, res.Out, sub)
	}
}

func TestRootCmd_OutputFlag(t *testing.T) {
	clitest.SetupEnv(t)

	res, err := clitest.Execute(t, NewRootCmd(), "", "--output", "csv", "query", "SELECT ?s ?o WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.Equal(t, "s,o\nurn:ex:alice,Alice\nurn:ex:bob,\n", res.Out)
}

func TestRootCmd_EndpointFlag(t *testing.T) {
	env := clitest.SetupEnv(t)

	// A second store reached only through the flag.
	other := &testutil.FakeStore{}
	srv := httptest.NewServer(other)
	t.Cleanup(srv.Close)

	_, err := clitest.Execute(t, NewRootCmd(), "", "--endpoint", srv.URL+"/parliament", "-o", "json", "query", "SELECT * { ?s ?p ?o }")
	require.NoError(t, err)

	assert.Empty(t, env.Store.Calls(), "the configured endpoint is overridden")
	require.Len(t, other.Calls(), 1)
	assert.Equal(t, "/parliament/sparql", other.Calls()[0].Path)
}

func TestRootCmd_InvalidOutput(t *testing.T) {
	clitest.SetupEnv(t)

	_, err := clitest.Execute(t, NewRootCmd(), "", "--output", "html", "graphs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRootCmd_Completion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			res, err := clitest.Execute(t, NewRootCmd(), "", "completion", shell)
			require.NoError(t, err)
			assert.NotEmpty(t, res.Out)
		})
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, err := clitest.Execute(t, NewRootCmd(), "", "unknown-command")
	assert.Error(t, err)
}
