package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for both the control-plane
// server and the manager CLI. Priority: environment > config file > defaults.
type Config struct {
	BotName             string
	Port                int
	HealthCheckInterval time.Duration

	BaseDir string
	LogsDir string
	DataDir string

	LogLevel   string
	LogFile    string
	OpsLogFile string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	DBPath       string
	HelpCacheDir string
	DocBaseURL   string

	CommandTimeout time.Duration
}

// ConfigFile mirrors the optional YAML config file on disk.
type ConfigFile struct {
	BotName             string `yaml:"bot_name"`
	Port                int    `yaml:"port"`
	HealthCheckInterval int    `yaml:"health_check_interval"`
	BaseDir             string `yaml:"base_dir"`
	LogsDir             string `yaml:"logs_dir"`
	DataDir             string `yaml:"data_dir"`
	LogLevel            string `yaml:"log_level"`
	LogFile             string `yaml:"log_file"`
	OpsLogFile          string `yaml:"ops_log_file"`
	LogMaxSizeMB        int    `yaml:"log_max_size_mb"`
	LogMaxBackups       int    `yaml:"log_max_backups"`
	LogMaxAgeDays       int    `yaml:"log_max_age_days"`
	DBPath              string `yaml:"db_path"`
	HelpCacheDir        string `yaml:"help_cache_dir"`
	DocBaseURL          string `yaml:"doc_base_url"`
	CommandTimeoutSec   int    `yaml:"command_timeout_sec"`
}

const (
	DefaultPort                = 8080
	DefaultHealthCheckInterval = 60 * time.Second
	DefaultBotName             = "ATENA"
	DefaultCommandTimeout      = 300 * time.Second
	DefaultDocBaseURL          = "https://pkg.go.dev"
)

// Load resolves configuration from an optional YAML file plus environment
// variables. filePath may be empty.
func Load(filePath string) (*Config, error) {
	var cf *ConfigFile
	if filePath != "" {
		loaded, err := loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", filePath, err)
		}
		cf = loaded
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	cfg := &Config{
		BotName:             pickString(os.Getenv("BOT_NAME"), fileString(cf, func(c *ConfigFile) string { return c.BotName }), DefaultBotName),
		Port:                pickInt(parseIntEnv("PORT", 0), fileInt(cf, func(c *ConfigFile) int { return c.Port }), DefaultPort),
		HealthCheckInterval: pickDuration(parseSecondsEnv("HEALTH_CHECK_INTERVAL"), fileSeconds(cf, func(c *ConfigFile) int { return c.HealthCheckInterval }), DefaultHealthCheckInterval),
		BaseDir:             pickString(os.Getenv("ATENA_BASE_DIR"), fileString(cf, func(c *ConfigFile) string { return c.BaseDir }), cwd),
		LogsDir:             pickString(os.Getenv("ATENA_LOGS_DIR"), fileString(cf, func(c *ConfigFile) string { return c.LogsDir }), "logs"),
		DataDir:             pickString(os.Getenv("ATENA_DATA_DIR"), fileString(cf, func(c *ConfigFile) string { return c.DataDir }), "data"),
		LogLevel:            pickString(os.Getenv("LOG_LEVEL"), fileString(cf, func(c *ConfigFile) string { return c.LogLevel }), "info"),
		LogFile:             pickString(os.Getenv("ATENA_LOG_FILE"), fileString(cf, func(c *ConfigFile) string { return c.LogFile }), ""),
		OpsLogFile:          pickString(os.Getenv("ATENA_OPS_LOG"), fileString(cf, func(c *ConfigFile) string { return c.OpsLogFile }), ""),
		MaxSizeMB:           pickInt(parseIntEnv("ATENA_LOG_MAX_SIZE_MB", 0), fileInt(cf, func(c *ConfigFile) int { return c.LogMaxSizeMB }), 100),
		MaxBackups:          pickInt(parseIntEnv("ATENA_LOG_MAX_BACKUPS", 0), fileInt(cf, func(c *ConfigFile) int { return c.LogMaxBackups }), 3),
		MaxAgeDays:          pickInt(parseIntEnv("ATENA_LOG_MAX_AGE_DAYS", 0), fileInt(cf, func(c *ConfigFile) int { return c.LogMaxAgeDays }), 7),
		DBPath:              pickString(os.Getenv("ATENA_DB"), fileString(cf, func(c *ConfigFile) string { return c.DBPath }), ""),
		HelpCacheDir:        pickString(os.Getenv("ATENA_HELP_CACHE"), fileString(cf, func(c *ConfigFile) string { return c.HelpCacheDir }), ""),
		DocBaseURL:          pickString(os.Getenv("ATENA_DOC_BASE_URL"), fileString(cf, func(c *ConfigFile) string { return c.DocBaseURL }), DefaultDocBaseURL),
		CommandTimeout:      pickDuration(parseSecondsEnv("ATENA_COMMAND_TIMEOUT"), fileSeconds(cf, func(c *ConfigFile) int { return c.CommandTimeoutSec }), DefaultCommandTimeout),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "atena.db")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.LogsDir, "atena.log")
	}
	// The operation log must stay separate from the app log file: the sink
	// appends JSON records while the logger mirrors them as text, and both
	// writing to one file would double every entry in the /logs tail.
	if cfg.OpsLogFile == "" {
		cfg.OpsLogFile = filepath.Join(cfg.LogsDir, "operations.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved configuration for obvious misconfiguration.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("health check interval must be positive, got %s", c.HealthCheckInterval)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command timeout must be positive, got %s", c.CommandTimeout)
	}
	if strings.TrimSpace(c.BotName) == "" {
		return fmt.Errorf("bot name must not be empty")
	}
	if c.OpsLogFile != "" && c.OpsLogFile == c.LogFile {
		return fmt.Errorf("operation log and app log must not share a file: %s", c.LogFile)
	}
	return nil
}

// ListenAddr returns the HTTP bind address for the control plane.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file is fine, env and defaults still apply.
			return nil, nil
		}
		return nil, err
	}
	var cf ConfigFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

func fileString(cf *ConfigFile, get func(*ConfigFile) string) string {
	if cf == nil {
		return ""
	}
	return strings.TrimSpace(get(cf))
}

func fileInt(cf *ConfigFile, get func(*ConfigFile) int) int {
	if cf == nil {
		return 0
	}
	return get(cf)
}

func fileSeconds(cf *ConfigFile, get func(*ConfigFile) int) time.Duration {
	if cf == nil {
		return 0
	}
	return time.Duration(get(cf)) * time.Second
}

func pickString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func pickInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func pickDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func parseIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseSecondsEnv(key string) time.Duration {
	n := parseIntEnv(key, 0)
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
