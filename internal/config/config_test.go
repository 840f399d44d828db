package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wordhash.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	if *cfg != Default() {
		t.Errorf("Load() = %+v, want defaults %+v", *cfg, Default())
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "db: from-file.db\naddr: \":7000\"\nlog_level: debug\n")
	t.Setenv("WORDHASH_ADDR", ":7100")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--log-format", "json"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	if cfg.DBPath != "from-file.db" {
		t.Errorf("DBPath = %q, want value from file", cfg.DBPath)
	}
	if cfg.Addr != ":7100" {
		t.Errorf("Addr = %q, want value from env", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want file value kept over flag default", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want value from flag", cfg.LogFormat)
	}
	if cfg.ReposDir != "repos" {
		t.Errorf("ReposDir = %q, want default", cfg.ReposDir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "log_format: xml\n")
	if _, err := Load(path, nil); err == nil {
		t.Error("Expected an error for an unknown log format")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestPath(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	env := func(string) string { return "/etc/wordhash.yaml" }

	if got := Path(fs, env); got != "/etc/wordhash.yaml" {
		t.Errorf("Path() = %q, want env value", got)
	}
	if err := fs.Parse([]string{"--config", "local.yaml"}); err != nil {
		t.Fatal(err)
	}
	if got := Path(fs, env); got != "local.yaml" {
		t.Errorf("Path() = %q, want flag value", got)
	}
}
