package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOT_NAME", "PORT", "HEALTH_CHECK_INTERVAL",
		"ATENA_BASE_DIR", "ATENA_LOGS_DIR", "ATENA_DATA_DIR",
		"LOG_LEVEL", "ATENA_LOG_FILE",
		"ATENA_LOG_MAX_SIZE_MB", "ATENA_LOG_MAX_BACKUPS", "ATENA_LOG_MAX_AGE_DAYS",
		"ATENA_DB", "ATENA_HELP_CACHE", "ATENA_DOC_BASE_URL",
		"ATENA_COMMAND_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotName != DefaultBotName {
		t.Errorf("BotName = %q, want %q", cfg.BotName, DefaultBotName)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.HealthCheckInterval != DefaultHealthCheckInterval {
		t.Errorf("HealthCheckInterval = %s, want %s", cfg.HealthCheckInterval, DefaultHealthCheckInterval)
	}
	if cfg.CommandTimeout != DefaultCommandTimeout {
		t.Errorf("CommandTimeout = %s, want %s", cfg.CommandTimeout, DefaultCommandTimeout)
	}
	if cfg.DocBaseURL != DefaultDocBaseURL {
		t.Errorf("DocBaseURL = %q, want %q", cfg.DocBaseURL, DefaultDocBaseURL)
	}
	if want := filepath.Join("data", "atena.db"); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if want := filepath.Join("logs", "atena.log"); cfg.LogFile != want {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, want)
	}
	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_NAME", "custom-bot")
	t.Setenv("PORT", "9090")
	t.Setenv("HEALTH_CHECK_INTERVAL", "5")
	t.Setenv("ATENA_COMMAND_TIMEOUT", "30")
	t.Setenv("ATENA_DB", "/tmp/other.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotName != "custom-bot" {
		t.Errorf("BotName = %q", cfg.BotName)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.HealthCheckInterval != 5*time.Second {
		t.Errorf("HealthCheckInterval = %s", cfg.HealthCheckInterval)
	}
	if cfg.CommandTimeout != 30*time.Second {
		t.Errorf("CommandTimeout = %s", cfg.CommandTimeout)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadBadEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")
	t.Setenv("HEALTH_CHECK_INTERVAL", "-3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default %d", cfg.Port, DefaultPort)
	}
	if cfg.HealthCheckInterval != DefaultHealthCheckInterval {
		t.Errorf("HealthCheckInterval = %s, want default", cfg.HealthCheckInterval)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "atena.yaml")
	content := []byte(`
bot_name: file-bot
port: 7070
health_check_interval: 10
doc_base_url: https://docs.example.com
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotName != "file-bot" {
		t.Errorf("BotName = %q", cfg.BotName)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.HealthCheckInterval != 10*time.Second {
		t.Errorf("HealthCheckInterval = %s", cfg.HealthCheckInterval)
	}
	if cfg.DocBaseURL != "https://docs.example.com" {
		t.Errorf("DocBaseURL = %q", cfg.DocBaseURL)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "atena.yaml")
	if err := os.WriteFile(path, []byte("port: 7070\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9191")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9191 {
		t.Errorf("Port = %d, want env to win over file", cfg.Port)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d", cfg.Port)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "atena.yaml")
	if err := os.WriteFile(path, []byte("port: [oops\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestOpsLogSeparateFromAppLog(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join("logs", "operations.log"); cfg.OpsLogFile != want {
		t.Errorf("OpsLogFile = %q, want %q", cfg.OpsLogFile, want)
	}
	if cfg.OpsLogFile == cfg.LogFile {
		t.Fatalf("operation log shares the app log file: %q", cfg.LogFile)
	}

	t.Setenv("ATENA_OPS_LOG", "/tmp/ops.jsonl")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load with ATENA_OPS_LOG: %v", err)
	}
	if cfg.OpsLogFile != "/tmp/ops.jsonl" {
		t.Errorf("OpsLogFile = %q", cfg.OpsLogFile)
	}

	// Pointing both at one file is rejected outright.
	t.Setenv("ATENA_OPS_LOG", filepath.Join("logs", "atena.log"))
	if _, err := Load(""); err == nil {
		t.Fatal("expected error when ops log and app log share a file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		BotName:             "ATENA",
		Port:                8080,
		HealthCheckInterval: time.Minute,
		CommandTimeout:      time.Minute,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"zero interval", func(c *Config) { c.HealthCheckInterval = 0 }},
		{"zero timeout", func(c *Config) { c.CommandTimeout = 0 }},
		{"blank name", func(c *Config) { c.BotName = "  " }},
	}
	for _, tt := range tests {
		c := base
		tt.mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
