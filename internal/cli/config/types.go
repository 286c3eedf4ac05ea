// Package config provides configuration management for the parq CLI.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
)

// EndpointConfig locates the graph store.
type EndpointConfig struct {
	URL        string `koanf:"url"`
	QueryPath  string `koanf:"query_path"`
	UpdatePath string `koanf:"update_path"`
	// Timeout bounds each HTTP exchange; zero means none.
	Timeout time.Duration `koanf:"timeout"`
}

// GraphsConfig configures graph enumeration.
type GraphsConfig struct {
	HideMaster bool `koanf:"hide_master"`
}

// HistoryConfig configures the submission history store.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port          int    `koanf:"port"`
	AutoOpen      bool   `koanf:"auto_open"`
	SessionSecret string `koanf:"session_secret"`

	// MaxWorkspaces and WorkspaceIdle bound the per-browser state the
	// server keeps. Zero disables the bound.
	MaxWorkspaces int           `koanf:"max_workspaces"`
	WorkspaceIdle time.Duration `koanf:"workspace_idle"`
}

// Config holds all CLI configuration options.
type Config struct {
	Endpoint EndpointConfig    `koanf:"endpoint"`
	Prefixes map[string]string `koanf:"prefixes"`
	Graphs   GraphsConfig      `koanf:"graphs"`
	History  HistoryConfig     `koanf:"history"`
	UI       UIConfig          `koanf:"ui"`
	Verbose  bool              `koanf:"verbose"`
	Output   string            `koanf:"output"`
}

// Default configuration values.
const (
	DefaultOutput        = "table"
	DefaultUIPort        = 8765
	DefaultSessionSecret = "parq-dev-secret-change-in-production" //nolint:gosec
)

// DefaultHistoryPath is the history database under the user's config
// directory, or ./.parq when that is unknown.
func DefaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".parq", "history.db")
	}
	return filepath.Join(dir, "parq", "history.db")
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"endpoint.url":         endpoint.DefaultURL,
		"endpoint.query_path":  endpoint.DefaultQueryPath,
		"endpoint.update_path": endpoint.DefaultUpdatePath,
		"endpoint.timeout":     "0s",
		"graphs.hide_master":   true,
		"history.enabled":      true,
		"history.path":         DefaultHistoryPath(),
		"ui.port":              DefaultUIPort,
		"ui.auto_open":         true,
		"ui.session_secret":    DefaultSessionSecret,
		"ui.max_workspaces":    workspace.DefaultMaxWorkspaces,
		"ui.workspace_idle":    workspace.DefaultIdleTimeout.String(),
		"verbose":              false,
		"output":               DefaultOutput,
	}
}
