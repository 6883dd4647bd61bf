package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	API      APIConfig      `mapstructure:"api" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	RequireTLS             bool   `mapstructure:"require_tls"`
	HTTPSPort              int    `mapstructure:"https_port" validate:"gt=0,lt=65536"`
	HSTSMaxAgeSeconds      int    `mapstructure:"hsts_max_age_seconds" validate:"gte=0"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ShutdownTimeout returns the graceful shutdown budget as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

// AuthConfig contains bearer-token settings.
type AuthConfig struct {
	TokenIssuer          string `mapstructure:"token_issuer" validate:"required"`
	TokenAudience        string `mapstructure:"token_audience" validate:"required"`
	TokenSigningKey      string `mapstructure:"token_signing_key" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// TokenLifetime returns the access token lifetime as a duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// APIConfig contains API version negotiation settings.
type APIConfig struct {
	DefaultVersion        string   `mapstructure:"default_version" validate:"required"`
	Versions              []string `mapstructure:"versions" validate:"required,min=1,dive,required"`
	VersionQueryParam     string   `mapstructure:"version_query_param" validate:"required"`
	VersionMediaTypeParam string   `mapstructure:"version_media_type_param" validate:"required"`
}

// CacheConfig contains response caching settings.
type CacheConfig struct {
	Backend      string                        `mapstructure:"backend" validate:"required,oneof=memory redis"`
	RedisURL     string                        `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	MaxBodyBytes int                           `mapstructure:"max_body_bytes" validate:"gt=0"`
	Profiles     map[string]CacheProfileConfig `mapstructure:"profiles" validate:"required,dive"`
}

// CacheProfileConfig describes one named caching policy.
type CacheProfileConfig struct {
	DurationSeconds int    `mapstructure:"duration_seconds" validate:"gte=0"`
	Location        string `mapstructure:"location" validate:"required,oneof=any none"`
	NoStore         bool   `mapstructure:"no_store"`
}
