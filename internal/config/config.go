// Package config loads taskly settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Client modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Server storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// EnvPrefix prefixes every environment override, e.g. TASKLY_SERVER_ADDR.
const EnvPrefix = "TASKLY"

// Config is the full taskly configuration.
type Config struct {
	Client ClientConfig `yaml:"client" mapstructure:"client"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ClientConfig configures the terminal UI.
type ClientConfig struct {
	Mode      string        `yaml:"mode" mapstructure:"mode"`
	ServerURL string        `yaml:"server_url" mapstructure:"server_url"`
	Timeout   time.Duration `yaml:"-" mapstructure:"timeout"`
	DataDir   string        `yaml:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig configures `taskly serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	Driver          string        `yaml:"driver" mapstructure:"driver"`
	SQLitePath      string        `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	PostgresURL     string        `yaml:"postgres_url" mapstructure:"postgres_url"`
	JWTSecret       string        `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"-" mapstructure:"token_ttl"`
	CORSOrigins     string        `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"-" mapstructure:"shutdown_timeout"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
	File   string `yaml:"file" mapstructure:"file"`
}

// MarshalYAML writes durations as strings like "10s".
func (c ClientConfig) MarshalYAML() (any, error) {
	type plain ClientConfig
	return struct {
		plain   `yaml:",inline"`
		Timeout string `yaml:"timeout"`
	}{plain(c), c.Timeout.String()}, nil
}

// MarshalYAML writes durations as strings like "24h0m0s".
func (c ServerConfig) MarshalYAML() (any, error) {
	type plain ServerConfig
	return struct {
		plain           `yaml:",inline"`
		TokenTTL        string `yaml:"token_ttl"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	}{plain(c), c.TokenTTL.String(), c.ShutdownTimeout.String()}, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Mode:      ModeRemote,
			ServerURL: "http://localhost:8080",
			Timeout:   10 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			Driver:          DriverSQLite,
			TokenTTL:        24 * time.Hour,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the directory holding config.yaml.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "taskly"), nil
}

// DefaultPath returns the path `taskly config init` writes to.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml is looked up in Dir() and the working directory and may be
// absent. A .env file in the working directory is loaded first and TASKLY_*
// variables override everything else.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("client.mode", d.Client.Mode)
	v.SetDefault("client.server_url", d.Client.ServerURL)
	v.SetDefault("client.timeout", d.Client.Timeout)
	v.SetDefault("client.data_dir", d.Client.DataDir)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.driver", d.Server.Driver)
	v.SetDefault("server.sqlite_path", d.Server.SQLitePath)
	v.SetDefault("server.postgres_url", d.Server.PostgresURL)
	v.SetDefault("server.jwt_secret", d.Server.JWTSecret)
	v.SetDefault("server.token_ttl", d.Server.TokenTTL)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
	v.SetDefault("log.file", d.Log.File)
}

// Validate checks enumerations and required combinations.
func (c *Config) Validate() error {
	switch c.Client.Mode {
	case ModeRemote, ModeLocal:
	default:
		return fmt.Errorf("client.mode must be %q or %q, got %q", ModeRemote, ModeLocal, c.Client.Mode)
	}
	if c.Client.Mode == ModeRemote && c.Client.ServerURL == "" {
		return errors.New("client.server_url is required in remote mode")
	}

	switch c.Server.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Server.PostgresURL == "" {
			return errors.New("server.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("server.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Server.Driver)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
