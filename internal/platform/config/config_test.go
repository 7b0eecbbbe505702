package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Addr:          ":8080",
		DatabaseURL:   "postgres://localhost/leavehub",
		JWTSecret:     "secret",
		ToastDuration: 10 * time.Second,
		Environment:   "development",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing database url",
			mutate:  func(c *Config) { c.DatabaseURL = " " },
			wantErr: true,
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: true,
		},
		{
			name:    "production requires slack webhook",
			mutate:  func(c *Config) { c.Environment = "production" },
			wantErr: true,
		},
		{
			name: "production with slack webhook",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.SlackWebhookURL = "https://hooks.slack.com/services/T0/B0/x"
			},
		},
		{
			name:    "zero toast duration",
			mutate:  func(c *Config) { c.ToastDuration = 0 },
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.MigrationsDir != "migrations" {
		t.Fatalf("expected default migrations dir, got %q", cfg.MigrationsDir)
	}
	if cfg.ToastDuration != 10*time.Second {
		t.Fatalf("expected default toast duration 10s, got %v", cfg.ToastDuration)
	}
	if !cfg.RunMigrations {
		t.Fatal("expected migrations enabled by default")
	}
}
