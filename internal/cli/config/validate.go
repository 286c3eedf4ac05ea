package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/leapstack-labs/parq/internal/render"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint.URL)
	if err != nil {
		return fmt.Errorf("invalid endpoint.url %q: %w", c.Endpoint.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint.url must be an http or https URL, got %q", c.Endpoint.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint.url %q has no host", c.Endpoint.URL)
	}

	for name, path := range map[string]string{
		"endpoint.query_path":  c.Endpoint.QueryPath,
		"endpoint.update_path": c.Endpoint.UpdatePath,
	} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s must start with '/', got %q", name, path)
		}
	}

	if c.Endpoint.Timeout < 0 {
		return fmt.Errorf("endpoint.timeout must not be negative")
	}

	if _, err := render.ParseFormat(c.Output); err != nil {
		return err
	}

	for name, ns := range c.Prefixes {
		if name == "" || strings.ContainsAny(name, ": \t") {
			return fmt.Errorf("invalid prefix name %q", name)
		}
		if ns == "" {
			return fmt.Errorf("prefix %q has an empty namespace", name)
		}
	}

	if c.UI.Port < 0 || c.UI.Port > 65535 {
		return fmt.Errorf("ui.port %d out of range", c.UI.Port)
	}

	if c.UI.MaxWorkspaces < 0 {
		return fmt.Errorf("ui.max_workspaces must not be negative")
	}
	if c.UI.WorkspaceIdle < 0 {
		return fmt.Errorf("ui.workspace_idle must not be negative")
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}

	return nil
}
