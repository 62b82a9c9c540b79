package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Env:        tt.env,
				DBDriver:   "postgres",
				DBSSLMode:  tt.sslMode,
				JWTSecret:  "secure-secret-at-least-32-chars-long",
				DBPassword: "secure-password",
				Port:       "8080",
			}

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRejectsUnknownDriver(t *testing.T) {
	c := &Config{Port: "8000", JWTSecret: "x", DBDriver: "mysql"}
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateProductionSecret(t *testing.T) {
	c := &Config{
		Env:        "production",
		Port:       "8000",
		DBDriver:   "postgres",
		DBSSLMode:  "require",
		DBPassword: "secure-password",
		JWTSecret:  defaultJWTSecret,
	}
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("DB_DRIVER")
	defer os.Unsetenv("MEDIA_URL")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_DRIVER", " SQLite ")
	os.Setenv("MEDIA_URL", "/uploads")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "/uploads/", c.MediaURL)
	assert.Equal(t, 20, c.IndexCacheSeconds)
}
