// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/parq/internal/cli/config"
	"github.com/leapstack-labs/parq/internal/testutil"
)

// Env is an isolated CLI environment: an empty working directory, a
// fake store behind PARQ_ENDPOINT_URL and a fresh history database.
type Env struct {
	Dir         string
	Store       *testutil.FakeStore
	EndpointURL string
	HistoryPath string
}

// SetupEnv prepares an Env. Config state is reset so every command
// loads it again.
func SetupEnv(t *testing.T) *Env {
	t.Helper()

	store := &testutil.FakeStore{}
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Chdir(dir)

	env := &Env{
		Dir:         dir,
		Store:       store,
		EndpointURL: srv.URL + "/parliament",
		HistoryPath: filepath.Join(dir, "history.db"),
	}
	t.Setenv(config.EnvPrefix+"ENDPOINT_URL", env.EndpointURL)
	t.Setenv(config.EnvPrefix+"HISTORY_PATH", env.HistoryPath)

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	return env
}

// Result is what a command printed.
type Result struct {
	Out string
	Err string
}

// Execute runs cmd with args and stdin, capturing both streams.
func Execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (Result, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return Result{Out: out.String(), Err: errOut.String()}, err
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
