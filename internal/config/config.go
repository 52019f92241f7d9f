package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultListenAddress      = "127.0.0.1:8087"
	defaultAdvisoryInterval   = 30
	defaultCompletionDelay    = 2
	defaultConditionTag       = "knee_rehabilitation"
	defaultHandshakeTimeoutMS = 5000
)

// Config stores runtime configuration for the daemon.
type Config struct {
	Daemon   DaemonConfig   `toml:"daemon"`
	Patient  PatientConfig  `toml:"patient"`
	Device   DeviceConfig   `toml:"device"`
	CareHub  CareHubConfig  `toml:"carehub"`
	Advisory AdvisoryConfig `toml:"advisory"`
	Webhook  WebhookConfig  `toml:"webhook"`
	Store    StoreConfig    `toml:"store"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DaemonConfig struct {
	Address string `toml:"address"`
}

type PatientConfig struct {
	ID        string `toml:"id"`
	Condition string `toml:"condition"`
}

type DeviceConfig struct {
	BridgeURL          string `toml:"bridge_url"`
	HandshakeTimeoutMS int    `toml:"handshake_timeout_ms"`
}

type CareHubConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

type AdvisoryConfig struct {
	URL                    string `toml:"url"`
	IntervalSeconds        int    `toml:"interval_seconds"`
	CompletionDelaySeconds int    `toml:"completion_delay_seconds"`
}

type WebhookConfig struct {
	TargetURL string `toml:"target_url"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// Interval returns the recurring recommendation fetch period.
func (a AdvisoryConfig) Interval() time.Duration {
	if a.IntervalSeconds <= 0 {
		return defaultAdvisoryInterval * time.Second
	}
	return time.Duration(a.IntervalSeconds) * time.Second
}

// CompletionDelay returns the pause before the post-completion refresh.
func (a AdvisoryConfig) CompletionDelay() time.Duration {
	if a.CompletionDelaySeconds <= 0 {
		return defaultCompletionDelay * time.Second
	}
	return time.Duration(a.CompletionDelaySeconds) * time.Second
}

// HandshakeTimeout returns the websocket dial timeout for the sensor bridge.
func (d DeviceConfig) HandshakeTimeout() time.Duration {
	if d.HandshakeTimeoutMS <= 0 {
		return defaultHandshakeTimeoutMS * time.Millisecond
	}
	return time.Duration(d.HandshakeTimeoutMS) * time.Millisecond
}

func Default() Config {
	return Config{
		Daemon:  DaemonConfig{Address: defaultListenAddress},
		Patient: PatientConfig{Condition: defaultConditionTag},
		Advisory: AdvisoryConfig{
			IntervalSeconds:        defaultAdvisoryInterval,
			CompletionDelaySeconds: defaultCompletionDelay,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("could not determine home directory")
	}
	return filepath.Join(home, ".config", "kinetic", "config.toml"), nil
}

// DefaultStorePath returns the default bbolt database location.
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("could not determine home directory")
	}
	return filepath.Join(home, ".local", "share", "kinetic", "kinetic.db"), nil
}

// Load resolves configuration from defaults, an optional TOML file, and
// KINETIC_* environment overrides, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("KINETIC_CONFIG"))
	}
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults plus env are enough
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if cfg.Store.Path == "" {
		storePath, err := DefaultStorePath()
		if err != nil {
			return Config{}, err
		}
		cfg.Store.Path = storePath
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Daemon.Address = envOrDefault("KINETIC_ADDR", cfg.Daemon.Address)
	cfg.Patient.ID = envOrDefault("KINETIC_PATIENT_ID", cfg.Patient.ID)
	cfg.Patient.Condition = envOrDefault("KINETIC_CONDITION", cfg.Patient.Condition)
	cfg.Device.BridgeURL = envOrDefault("KINETIC_DEVICE_URL", cfg.Device.BridgeURL)
	cfg.CareHub.BaseURL = envOrDefault("KINETIC_CAREHUB_URL", cfg.CareHub.BaseURL)
	cfg.CareHub.Token = envOrDefault("KINETIC_CAREHUB_TOKEN", cfg.CareHub.Token)
	cfg.Advisory.URL = envOrDefault("KINETIC_ADVISORY_URL", cfg.Advisory.URL)
	cfg.Advisory.IntervalSeconds = envOrDefaultInt("KINETIC_ADVISORY_INTERVAL", cfg.Advisory.IntervalSeconds)
	cfg.Advisory.CompletionDelaySeconds = envOrDefaultInt("KINETIC_ADVISORY_COMPLETION_DELAY", cfg.Advisory.CompletionDelaySeconds)
	cfg.Webhook.TargetURL = envOrDefault("KINETIC_WEBHOOK_URL", cfg.Webhook.TargetURL)
	cfg.Store.Path = envOrDefault("KINETIC_DB_PATH", cfg.Store.Path)
	cfg.Logging.Level = envOrDefault("KINETIC_LOG_LEVEL", cfg.Logging.Level)
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
