package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:        "development",
			Port:       "8375",
			JWTSecret:  "secure-secret-at-least-32-chars-long",
			DBPassword: "secure-password",
			DBSSLMode:  "disable",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing JWT secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"default JWT secret in production", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"short JWT secret in production", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"default DB password in production", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"strong production config", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
		}, false},
		{"prod alias enforced", func(c *Config) {
			c.Env = "prod"
			c.DBPassword = ""
		}, true},
		{"short JWT secret tolerated in development", func(c *Config) {
			c.JWTSecret = "short"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
