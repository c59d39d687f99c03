// Package config builds the run configuration for fabsync. The config is
// an explicit value constructed once at startup and passed into every flow
// that needs it; there is no ambient global. Values are layered: config
// file, then environment, then command-line flags.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"gitlab.com/tozd/go/errors"
)

// Config is the resolved run configuration.
type Config struct {
	// TargetWorkspaceID is the workspace receiving items and folders.
	TargetWorkspaceID string `json:"target_workspace_id" yaml:"target_workspace_id"`
	// SourceWorkspaceID is the workspace pipeline definitions are read
	// from; only the pipeline deploy flow needs it.
	SourceWorkspaceID string `json:"source_workspace_id" yaml:"source_workspace_id"`
	// RepoPath is the root of the local artifact export.
	RepoPath string `json:"repo_path" yaml:"repo_path"`
	// Token is the bearer credential for every API call.
	Token string `json:"token" yaml:"token"`
	// BaseURL overrides the API endpoint; empty means production.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// IgnorePatterns are doublestar globs for local directories to skip.
	IgnorePatterns []string `json:"ignore_patterns" yaml:"ignore_patterns"`
}

// envBindings maps config fields to their environment variable names.
// Legacy variable names are kept as fallbacks so existing CI definitions
// keep working.
var envBindings = []struct {
	field func(*Config) *string
	names []string
}{
	{func(c *Config) *string { return &c.TargetWorkspaceID }, []string{"FABSYNC_TARGET_WORKSPACE_ID", "TARGET_WORKSPACE_ID", "target_workspace_id"}},
	{func(c *Config) *string { return &c.SourceWorkspaceID }, []string{"FABSYNC_SOURCE_WORKSPACE_ID", "SOURCE_WORKSPACE_ID", "source_workspace_id"}},
	{func(c *Config) *string { return &c.RepoPath }, []string{"FABSYNC_REPO_PATH", "AZURE_REPO_PATH", "Azure_repo_path"}},
	{func(c *Config) *string { return &c.Token }, []string{"FABSYNC_TOKEN", "AUTH_TOKEN", "auth_token"}},
}

// ApplyEnv overlays environment variables onto the config. A .env file in
// the working directory is loaded best-effort first. Env values only fill
// fields the config file left empty.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	for _, binding := range envBindings {
		field := binding.field(c)
		if *field != "" {
			continue
		}
		for _, name := range binding.names {
			if v := os.Getenv(name); v != "" {
				*field = v
				break
			}
		}
	}
}

// Validate checks the configuration for one command invocation. Config
// errors are fatal and must surface before any network call.
func (c *Config) Validate(needSource, needRepo bool) error {
	if c.Token == "" {
		return errors.New("auth token is not set")
	}
	if c.TargetWorkspaceID == "" {
		return errors.New("target workspace id is not set")
	}
	if needSource && c.SourceWorkspaceID == "" {
		return errors.New("source workspace id is not set")
	}
	if needRepo && c.RepoPath == "" {
		return errors.New("repository path is not set")
	}
	return nil
}
