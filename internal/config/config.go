package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers understood by db.Open.
const (
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverModernc = "sqlite"  // modernc.org/sqlite (pure Go)
)

// Email transports.
const (
	TransportLog  = "log"
	TransportSMTP = "smtp"
)

// Config represents the UMIG configuration stored in $UMIG_HOME/config.yaml.
type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	Log          LogConfig          `yaml:"log"`
	Server       ServerConfig       `yaml:"server"`
	Email        EmailConfig        `yaml:"email"`
	Notification NotificationConfig `yaml:"notification"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
}

// DatabaseConfig selects the SQLite file and driver.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite3" or "sqlite"
	Path   string `yaml:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ServerConfig controls `umig serve`.
type ServerConfig struct {
	ListenAddr       string `yaml:"listen_addr"`
	DispatchSchedule string `yaml:"dispatch_schedule"` // cron spec, empty disables
}

// EmailConfig selects and configures the e-mail transport.
type EmailConfig struct {
	Transport string `yaml:"transport"` // "log" or "smtp"
	From      string `yaml:"from"`
	SMTPHost  string `yaml:"smtp_host"`
	SMTPPort  int    `yaml:"smtp_port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// NotificationConfig controls variable construction and outbox dispatch.
type NotificationConfig struct {
	BaseURL     string `yaml:"base_url"`
	Concurrency int    `yaml:"concurrency"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"` // "stdout", "otlp-http", "none"
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// HomeDir returns the UMIG home directory: $UMIG_HOME, else ~/.umig.
func HomeDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("UMIG_HOME")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".umig"), nil
}

// Default returns the configuration used when no file exists.
func Default(homeDir string) *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: DriverMattn,
			Path:   filepath.Join(homeDir, "umig.db"),
		},
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			ListenAddr:       "127.0.0.1:8090",
			DispatchSchedule: "@every 1m",
		},
		Email: EmailConfig{
			Transport: TransportLog,
			From:      "umig@localhost",
			SMTPPort:  25,
		},
		Notification: NotificationConfig{
			BaseURL:     "http://localhost:8090",
			Concurrency: 4,
			MaxAttempts: 3,
		},
		Telemetry: TelemetryConfig{
			Exporter:    "none",
			ServiceName: "umig",
			SampleRate:  1.0,
		},
	}
}

// LoadConfig reads config.yaml from dir, applies defaults for missing
// fields, then environment overrides. A missing file is not an error.
func LoadConfig(dir string) (*Config, error) {
	cfg := Default(dir)

	path := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes config.yaml to dir.
func SaveConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMattn, DriverModernc:
	default:
		return fmt.Errorf("unknown database driver %q (supported: %s, %s)", c.Database.Driver, DriverMattn, DriverModernc)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	switch c.Email.Transport {
	case TransportLog:
	case TransportSMTP:
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("email.smtp_host is required for smtp transport")
		}
	default:
		return fmt.Errorf("unknown email transport %q (supported: %s, %s)", c.Email.Transport, TransportLog, TransportSMTP)
	}
	if c.Notification.Concurrency < 1 {
		c.Notification.Concurrency = 1
	}
	if c.Notification.MaxAttempts < 1 {
		c.Notification.MaxAttempts = 1
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("UMIG_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("UMIG_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("UMIG_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("UMIG_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("UMIG_BASE_URL"); v != "" {
		c.Notification.BaseURL = v
	}
	if v := os.Getenv("UMIG_EMAIL_TRANSPORT"); v != "" {
		c.Email.Transport = v
	}
	if v := os.Getenv("UMIG_SMTP_HOST"); v != "" {
		c.Email.SMTPHost = v
	}
	if v := os.Getenv("UMIG_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Email.SMTPPort = port
		}
	}
	if v := os.Getenv("UMIG_SMTP_PASSWORD"); v != "" {
		c.Email.Password = v
	}
}
