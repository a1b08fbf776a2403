package config

import "testing"

func TestApplyDefaultsBackfillsMissingFields(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Name: "my-service"},
		Auth:   AuthConfig{Enabled: true, JWTSecret: "s3cret"},
	}
	applyDefaults(cfg)

	if cfg.Server.Name != "my-service" {
		t.Fatalf("explicit value must survive, got %q", cfg.Server.Name)
	}
	if cfg.Server.HTTPPort == 0 || cfg.Server.GRPCPort == 0 {
		t.Fatalf("ports must be backfilled: %+v", cfg.Server)
	}
	if cfg.Database.Driver == "" || cfg.Database.Host == "" || cfg.Database.Port == 0 {
		t.Fatalf("database defaults must be backfilled: %+v", cfg.Database)
	}
	if cfg.Log.Driver == "" || cfg.Log.Level == "" {
		t.Fatalf("log defaults must be backfilled: %+v", cfg.Log)
	}
	if cfg.Auth.Issuer == "" || cfg.Auth.Audience == "" || cfg.Auth.TokenTTL == 0 {
		t.Fatalf("auth defaults must be backfilled: %+v", cfg.Auth)
	}
}

func TestApplyDefaultsNeverBackfillsCredentials(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.Database.Password != "" {
		t.Fatalf("database password must not be backfilled, got %q", cfg.Database.Password)
	}
	if cfg.Auth.JWTSecret != "" {
		t.Fatalf("jwt secret must not be backfilled, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.MasterUsername != "" || cfg.Auth.MasterPassword != "" {
		t.Fatalf("master credentials must not be backfilled: %+v", cfg.Auth)
	}
}
