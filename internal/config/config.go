// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret            string  `mapstructure:"JWT_SECRET"`
	Port                 string  `mapstructure:"PORT"`
	DBDriver             string  `mapstructure:"DB_DRIVER"`
	DBHost               string  `mapstructure:"DB_HOST"`
	DBPort               string  `mapstructure:"DB_PORT"`
	DBUser               string  `mapstructure:"DB_USER"`
	DBPassword           string  `mapstructure:"DB_PASSWORD"`
	DBName               string  `mapstructure:"DB_NAME"`
	DBSSLMode            string  `mapstructure:"DB_SSLMODE"`
	SQLitePath           string  `mapstructure:"SQLITE_PATH"`
	RedisURL             string  `mapstructure:"REDIS_URL"`
	AllowedOrigins       string  `mapstructure:"ALLOWED_ORIGINS"`
	Env                  string  `mapstructure:"APP_ENV"`
	MediaRoot            string  `mapstructure:"MEDIA_ROOT"`
	MediaURL             string  `mapstructure:"MEDIA_URL"`
	ImageMaxUploadSizeMB int     `mapstructure:"IMAGE_MAX_UPLOAD_SIZE_MB"`
	IndexCacheSeconds    int     `mapstructure:"INDEX_CACHE_SECONDS"`
	TracingEnabled       bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter      string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint         string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8000")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "yatube")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "yatube.db")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:8000,http://127.0.0.1:8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("MEDIA_ROOT", "media")
	viper.SetDefault("MEDIA_URL", "/media/")
	viper.SetDefault("IMAGE_MAX_UPLOAD_SIZE_MB", 10)
	viper.SetDefault("INDEX_CACHE_SECONDS", 20)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.MediaURL != "" && !strings.HasSuffix(c.MediaURL, "/") {
		c.MediaURL += "/"
	}
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.ImageMaxUploadSizeMB < 0 {
		return errors.New("IMAGE_MAX_UPLOAD_SIZE_MB must not be negative")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver != "sqlite" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver != "sqlite" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must be enabled in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
