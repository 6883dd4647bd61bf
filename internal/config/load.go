package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LIBRARY_SERVER_PORT.
const EnvPrefix = "LIBRARY"

// configFileEnv names an explicit config file path.
const configFileEnv = EnvPrefix + "_CONFIG_FILE"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or a ConfigurationError if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv(configFileEnv); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, domain.NewConfigurationError("failed to read config file", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, domain.NewConfigurationError("failed to unmarshal config", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, domain.NewConfigurationError(
			fmt.Sprintf("config validation failed: %v", err), err)
	}

	return &cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it.
// Keys without a sensible default are registered empty and caught by validation.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.require_tls", false)
	v.SetDefault("server.https_port", 443)
	v.SetDefault("server.hsts_max_age_seconds", 31536000)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.token_issuer", "library-api")
	v.SetDefault("auth.token_audience", "library-api-clients")
	v.SetDefault("auth.token_signing_key", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("api.default_version", "1.0")
	v.SetDefault("api.versions", []string{"1.0", "2.0"})
	v.SetDefault("api.version_query_param", "ver")
	v.SetDefault("api.version_media_type_param", "v")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.max_body_bytes", 1024)
	v.SetDefault("cache.profiles.default.duration_seconds", 60)
	v.SetDefault("cache.profiles.default.location", "any")
	v.SetDefault("cache.profiles.default.no_store", false)
	v.SetDefault("cache.profiles.never.duration_seconds", 0)
	v.SetDefault("cache.profiles.never.location", "none")
	v.SetDefault("cache.profiles.never.no_store", true)
}
