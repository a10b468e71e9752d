package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/olt-alarms/internal/logger"
)

// Config holds the settings of one OLT alarm manager process.
type Config struct {
	// Device identifies the OLT whose indications are processed.
	Device DeviceConfig `yaml:"device"`
	// Suppression controls the redundant-clear filter.
	Suppression SuppressionConfig `yaml:"suppression"`
	// Registry points at the child-device registry.
	Registry RegistryConfig `yaml:"registry"`
	// Server configures the gRPC and metrics listeners.
	Server ServerConfig `yaml:"server"`
	// Logging configures the global logger.
	Logging LoggingConfig `yaml:"logging"`
}

// DeviceConfig identifies the managed OLT.
type DeviceConfig struct {
	ID              string `yaml:"id"`
	LogicalDeviceID string `yaml:"logical_device_id"`
	SerialNumber    string `yaml:"serial_number"`
	// PonPorts is the number of PON interfaces; zero selects the platform default.
	PonPorts uint32 `yaml:"pon_ports"`
}

// SuppressionConfig controls OLT LOS clear suppression.
type SuppressionConfig struct {
	// OltLosClear drops repeated OLT LOS clears when true. Defaults to true.
	OltLosClear *bool `yaml:"olt_los_clear"`
}

// RegistryConfig locates the device registry.
type RegistryConfig struct {
	// File is a YAML registry file; empty starts with an empty registry.
	File string `yaml:"file"`
}

// ServerConfig controls the listeners and client calls.
type ServerConfig struct {
	// ListenAddress is the gRPC address for indication ingest, simulation and watch.
	ListenAddress string `yaml:"listen_addr"`
	// MetricsAddress serves /metrics over HTTP; empty disables it.
	MetricsAddress string `yaml:"metrics_addr"`
	// Timeout bounds client RPC calls and server shutdown.
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	// DefaultConfigFilename is the default settings file.
	DefaultConfigFilename = "olt-alarms.yaml"

	// DefaultListenAddress is the default gRPC address.
	DefaultListenAddress = "127.0.0.1:50060"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// Environment variables overriding file settings.
const (
	envLogLevel       = "OLT_ALARMS_LOG_LEVEL"
	envListenAddress  = "OLT_ALARMS_LISTEN_ADDR"
	envMetricsAddress = "OLT_ALARMS_METRICS_ADDR"
	envSuppression    = "OLT_ALARMS_SUPPRESS_OLT_LOS_CLEAR"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errDeviceIDRequired is returned when the OLT device id is missing.
	errDeviceIDRequired = errors.New("device id must be provided")
	// errUnknownLogLevel is returned for a level ParseLogLevel rejects.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Load reads configuration from path, applies environment overrides and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Device.ID == "" {
		return errDeviceIDRequired
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.Server.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.Server.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.Server.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = DefaultTimeout
	}

	if cfg.Suppression.OltLosClear == nil {
		enabled := true
		cfg.Suppression.OltLosClear = &enabled
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if _, ok := logger.ParseLogLevel(cfg.Logging.Level); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.Logging.Level)
	}

	return nil
}

// SuppressOltLosClear reports whether repeated OLT LOS clears are dropped.
func (c *Config) SuppressOltLosClear() bool {
	return c.Suppression.OltLosClear == nil || *c.Suppression.OltLosClear
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv(envListenAddress); v != "" {
		cfg.Server.ListenAddress = v
	}

	if v := os.Getenv(envMetricsAddress); v != "" {
		cfg.Server.MetricsAddress = v
	}

	if v := os.Getenv(envSuppression); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Suppression.OltLosClear = &enabled
		}
	}
}
