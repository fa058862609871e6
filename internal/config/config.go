// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables and
// an optional JSON or YAML config file.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the control API listening address (ip:port).
	Port string `json:"address" yaml:"address"`

	// StorageDSN selects the storage backend: "memory", "sqlite://<path>"
	// or a postgres:// connection string.
	StorageDSN string `json:"storage_dsn" yaml:"storage_dsn"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// BiometricAttempts bounds how many times a cancelled biometric prompt is
	// shown again during a single unlock.
	BiometricAttempts int `json:"biometric_attempts" yaml:"biometric_attempts"`

	// MigrationRetries is the number of extra onboarding migration attempts
	// made before the application is reset. Zero means fail fast.
	MigrationRetries int `json:"migration_retries" yaml:"migration_retries"`

	// AutoLock is the idle period after which an unlocked wallet is locked.
	// Zero disables auto-lock.
	AutoLock Duration `json:"auto_lock" yaml:"auto_lock"`

	// DeviceEnrolled and DeviceSecurityLevel describe the device for the
	// static biometric authenticator used by the daemon.
	DeviceEnrolled      bool   `json:"device_enrolled" yaml:"device_enrolled"`
	DeviceSecurityLevel string `json:"device_security_level" yaml:"device_security_level"`

	// KeychainKey, when set, encrypts keychain items at rest.
	KeychainKey string `json:"keychain_key" yaml:"keychain_key"`

	// Config is the path to the Config file.
	Config string `json:"-" yaml:"-"`
}

// Duration is a time.Duration that decodes from strings such as "5m".
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	d.Duration = time.Duration(n)
	return nil
}

// UnmarshalYAML accepts a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.parse(value.Value)
}

// String implements flag.Value.
func (d *Duration) String() string { return d.Duration.String() }

// Set implements flag.Value.
func (d *Duration) Set(s string) error { return d.parse(s) }

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// options holds the current configuration values.
var options = Default()

// Default returns the options used when nothing overrides them.
func Default() *Options {
	return &Options{
		Port:                "localhost:8080",
		StorageDSN:          "sqlite://walletkeeper.db",
		LogLevel:            "info",
		BiometricAttempts:   3,
		AutoLock:            Duration{5 * time.Minute},
		DeviceEnrolled:      true,
		DeviceSecurityLevel: "BIOMETRIC",
		Config:              "config.json",
	}
}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", options.Port, "run control API on ip:port")
	flag.StringVar(&options.StorageDSN, "d", options.StorageDSN, "storage dsn (memory, sqlite://path, postgres://...)")
	flag.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	flag.Var(&options.AutoLock, "lock", "auto-lock idle timeout (0 disables)")
	flag.StringVar(&options.Config, "config", options.Config, "path to config file")
	flag.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
}

// Parse parses the command-line flags, the config file and environment
// variables, in that order of increasing precedence. It returns a pointer
// to the Options struct containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			if err := LoadFile(options.Config, options); err != nil {
				log.Fatalf("error while loading config file: %v", err)
			}
		}
	}

	ApplyEnv(options)
	return options
}

// LoadFile decodes the config file at path into opts. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, opts)
	default:
		err = json.Unmarshal(data, opts)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides opts with the supported environment variables.
func ApplyEnv(opts *Options) {
	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		opts.Port = serverAddress
	}
	if dsn := os.Getenv("STORAGE_DSN"); dsn != "" {
		opts.StorageDSN = dsn
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		opts.LogLevel = lvl
	}
}
