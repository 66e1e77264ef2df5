// Package settings loads server settings from blockyard.yaml, the
// environment and .env files.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. BLOCKYARD_SERVER_PORT
const EnvPrefix = "BLOCKYARD"

// Storage drivers
const (
	DriverFile     = "file"
	DriverFileZstd = "file-zstd"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Settings is the server configuration
type Settings struct {
	Server    ServerSettings    `mapstructure:"server"`
	Storage   StorageSettings   `mapstructure:"storage"`
	Sessions  SessionSettings   `mapstructure:"sessions"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Metrics   MetricsSettings   `mapstructure:"metrics"`
	Ngrok     NgrokSettings     `mapstructure:"ngrok"`
}

// ServerSettings controls the HTTP listener
type ServerSettings struct {
	Host      string `mapstructure:"host" validate:"required"`
	Port      int    `mapstructure:"port" validate:"min=1,max=65535"`
	ConfigDir string `mapstructure:"config_dir" validate:"required"`
	Debug     bool   `mapstructure:"debug"`
}

// Addr returns host:port
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageSettings selects the session persistence backend
type StorageSettings struct {
	Driver      string        `mapstructure:"driver" validate:"required,oneof=file file-zstd sqlite postgres"`
	SessionsDir string        `mapstructure:"sessions_dir" validate:"required_if=Driver file,required_if=Driver file-zstd"`
	DSN         string        `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	MaxOpen     int           `mapstructure:"max_open" validate:"min=0"`
	MaxIdle     int           `mapstructure:"max_idle" validate:"min=0"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

// SessionSettings controls in-memory session retention
type SessionSettings struct {
	MaxAge          time.Duration `mapstructure:"max_age" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
}

// RateLimitSettings throttles /api per client IP. Zero RPS disables it.
// TrustProxy keys clients by X-Forwarded-For and must only be set when the
// server sits behind a reverse proxy that appends that header.
type RateLimitSettings struct {
	RPS        float64 `mapstructure:"rps" validate:"min=0"`
	Burst      int     `mapstructure:"burst" validate:"min=0"`
	TrustProxy bool    `mapstructure:"trust_proxy"`
}

// MetricsSettings toggles the Prometheus endpoint
type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled"`
}

// NgrokSettings configures the optional public tunnel
type NgrokSettings struct {
	Enabled   bool   `mapstructure:"enabled"`
	AuthToken string `mapstructure:"auth_token"`
	Domain    string `mapstructure:"domain"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.config_dir", "configs")
	v.SetDefault("server.debug", false)

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.sessions_dir", "sessions")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.max_open", 10)
	v.SetDefault("storage.max_idle", 2)
	v.SetDefault("storage.max_lifetime", 5*time.Minute)

	v.SetDefault("sessions.max_age", 24*time.Hour)
	v.SetDefault("sessions.cleanup_interval", time.Hour)

	v.SetDefault("rate_limit.rps", 20.0)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.trust_proxy", false)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("ngrok.enabled", false)
	v.SetDefault("ngrok.auth_token", "")
	v.SetDefault("ngrok.domain", "")
}

// Load reads settings with priority env > file > defaults. An empty path
// searches for blockyard.yaml in the working directory and ./configs; a
// missing file is fine unless the path was given explicitly.
func Load(path string) (*Settings, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("blockyard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	// ngrok's own variable names keep working
	if v.GetString("ngrok.auth_token") == "" {
		for _, key := range []string{"NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"} {
			if token := os.Getenv(key); token != "" {
				v.Set("ngrok.auth_token", token)
				break
			}
		}
	}
	if env := os.Getenv("NGROK_ENABLED"); env == "true" || env == "1" {
		v.Set("ngrok.enabled", true)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if err := Validate(&s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return &s, nil
}

// Default returns the settings used when nothing is configured
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	// defaults always decode
	_ = v.Unmarshal(&s)
	return &s
}

var validate = validator.New()

// Validate checks struct tags and reports every failing field
func Validate(s *Settings) error {
	if err := validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			messages := make([]string, 0, len(validationErrs))
			for _, e := range validationErrs {
				messages = append(messages, fmt.Sprintf(
					"field '%s' failed validation: %s (value: '%v')",
					e.Namespace(), e.Tag(), e.Value(),
				))
			}
			return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
		}
		return err
	}
	return nil
}
