package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wosp.yaml")
	data := `
query:
  defaultOperator: AND
  caseMode: sensitive
  editBudget: 1
output:
  element: sentence
  maximum: 5
search:
  timeout: 2s
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WOSP_QUERY_PROXIMITY_MODE", "inclusive")
	t.Setenv("WOSP_SERVER_PORT", "9191")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Query.DefaultOperator != "AND" || cfg.Query.CaseMode != "sensitive" || cfg.Query.EditBudget != 1 {
		t.Errorf("query section = %+v", cfg.Query)
	}
	if !cfg.Query.Inclusive() {
		t.Error("proximity mode override not applied")
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Output.Element != "sentence" || cfg.Output.Maximum != 5 {
		t.Errorf("output section = %+v", cfg.Output)
	}
	if cfg.Search.Timeout != 2*time.Second {
		t.Errorf("Search.Timeout = %v", cfg.Search.Timeout)
	}
	// untouched defaults survive
	if cfg.Query.Wildcard != "?" || cfg.Output.Before != 1 {
		t.Errorf("defaults lost: %+v %+v", cfg.Query, cfg.Output)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"operator", func(c *Config) { c.Query.DefaultOperator = "MAYBE" }, "defaultOperator"},
		{"case mode", func(c *Config) { c.Query.CaseMode = "shouty" }, "caseMode"},
		{"budget", func(c *Config) { c.Query.EditBudget = -1 }, "editBudget"},
		{"wildcard", func(c *Config) { c.Query.Wildcard = "" }, "wildcard"},
		{"wildcard twice", func(c *Config) { c.Query.Wildcard = "??" }, "wildcard"},
		{"truncation clash", func(c *Config) { c.Query.Truncation = "?$" }, "truncation"},
		{"element", func(c *Config) { c.Output.Element = "chapter" }, "output.element"},
		{"context", func(c *Config) { c.Output.After = -2 }, "output.before"},
		{"postgres source", func(c *Config) {
			c.Sources.Postgres.Enabled = true
			c.Sources.Postgres.Table = ""
		}, "sources.postgres"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, apperrors.ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestWildcardRune(t *testing.T) {
	q := Default().Query
	q.Wildcard = "*"
	if got := q.WildcardRune(); got != '*' {
		t.Errorf("WildcardRune = %q", got)
	}
}
