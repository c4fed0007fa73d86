// Package config loads maintsync configuration.
//
// Configuration is a JSON file named maintenance-config.json. Without an
// explicit path the first file found in these locations is used:
//  1. the directory containing the maintsync executable
//  2. /etc/zabbix
//  3. /etc/zabbix-maintenance
//
// Environment variables with the MAINTSYNC_ prefix override file values,
// e.g. MAINTSYNC_ZABBIX_PASSWORD.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultLockFile is the run lock and journal database location
const DefaultLockFile = "/var/lib/maintsync/maintsync.db"

const (
	configName = "maintenance-config"
	configType = "json"
	envPrefix  = "MAINTSYNC"
)

// ErrNotFound is matched by NotFoundError
var ErrNotFound = errors.New("config file not found")

// NotFoundError reports that no configuration file exists in any location
type NotFoundError struct {
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s.%s found (searched: %s)", configName, configType, strings.Join(e.Searched, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Config is the maintsync configuration
type Config struct {
	// URL is the Zabbix JSON-RPC endpoint, e.g. https://zabbix/api_jsonrpc.php
	URL string `mapstructure:"zabbix_url" validate:"required,url"`

	// Username and Password authenticate via user.login
	Username string `mapstructure:"zabbix_username" validate:"required"`
	Password string `mapstructure:"zabbix_password" validate:"required"`

	// InsecureSkipVerify disables TLS certificate verification
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`

	// RequestTimeout bounds every API request
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`

	// RequestsPerSecond paces API requests; 0 disables pacing
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`

	// LockFile is the run lock database preventing overlapping passes
	LockFile string `mapstructure:"lock_file" validate:"required"`

	// LockTimeout is how long to wait for a running pass to release the lock
	LockTimeout time.Duration `mapstructure:"lock_timeout" validate:"gt=0"`

	// MetricsTextfile is written after each pass when set
	MetricsTextfile string `mapstructure:"metrics_textfile"`

	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json"`

	// Path is the file the configuration was read from
	Path string `mapstructure:"-"`
}

// keys lists every configuration key so environment overrides apply even
// when the key is absent from the file
var keys = []string{
	"zabbix_url",
	"zabbix_username",
	"zabbix_password",
	"insecure_skip_verify",
	"request_timeout",
	"requests_per_second",
	"lock_file",
	"lock_timeout",
	"metrics_textfile",
	"log_level",
	"log_json",
}

// DefaultSearchPaths returns the directories searched for the config file
func DefaultSearchPaths() []string {
	var paths []string
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		paths = append(paths, filepath.Dir(exe))
	}
	return append(paths, "/etc/zabbix", "/etc/zabbix-maintenance")
}

// Load reads configuration from cfgFile, or from the default search paths
// when cfgFile is empty.
func Load(cfgFile string) (*Config, error) {
	return LoadWithPaths(cfgFile, DefaultSearchPaths())
}

// LoadWithPaths is Load with an explicit list of directories to search
func LoadWithPaths(cfgFile string, searchPaths []string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType(configType)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			if isFileNotFoundError(err) {
				return nil, &NotFoundError{Searched: []string{cfgFile}}
			}
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, &NotFoundError{Searched: searchPaths}
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config %s: %w", v.ConfigFileUsed(), err)
	}
	cfg.Path = v.ConfigFileUsed()

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", cfg.Path, err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("insecure_skip_verify", false)
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("requests_per_second", 0)
	v.SetDefault("lock_file", DefaultLockFile)
	v.SetDefault("lock_timeout", "5s")
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", keyFor(fe.StructField()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// keyFor maps a struct field back to its configuration key
func keyFor(field string) string {
	switch field {
	case "URL":
		return "zabbix_url"
	case "Username":
		return "zabbix_username"
	case "Password":
		return "zabbix_password"
	case "RequestTimeout":
		return "request_timeout"
	case "RequestsPerSecond":
		return "requests_per_second"
	case "LockFile":
		return "lock_file"
	case "LockTimeout":
		return "lock_timeout"
	case "LogLevel":
		return "log_level"
	default:
		return field
	}
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return errors.Is(err, os.ErrNotExist)
}
