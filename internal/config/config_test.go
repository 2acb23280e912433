package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
storage:
  type: minio
`)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8000" || cfg.Database.Driver != "mysql" || cfg.Auth.Scheme != "plain" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Auth.ExpireTime != 24*time.Hour || cfg.Database.ConnMaxLifetime != time.Hour {
		t.Fatalf("durations not scaled: %v %v", cfg.Auth.ExpireTime, cfg.Database.ConnMaxLifetime)
	}
	if cfg.RateLimit.MaxRequests != 6000 || len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("unexpected security defaults %+v %+v", cfg.RateLimit, cfg.CORS)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9000"
storage:
  type: minio
`)
	t.Setenv("PORT", "9100")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9100" || cfg.Database.Driver != "sqlite" {
		t.Fatalf("environment should win: %s %s", cfg.Server.Port, cfg.Database.Driver)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"plain", Config{Auth: AuthConfig{Scheme: "plain"}, Database: DatabaseConfig{Driver: "sqlite"}}, true},
		{"jwt without secret", Config{Auth: AuthConfig{Scheme: "jwt"}, Database: DatabaseConfig{Driver: "mysql"}}, false},
		{"short secret in release", Config{
			Server:   ServerConfig{Mode: "release"},
			Auth:     AuthConfig{Scheme: "jwt", Secret: "short"},
			Database: DatabaseConfig{Driver: "mysql"},
		}, false},
		{"unknown scheme", Config{Auth: AuthConfig{Scheme: "oauth"}, Database: DatabaseConfig{Driver: "mysql"}}, false},
		{"unknown driver", Config{Auth: AuthConfig{Scheme: "plain"}, Database: DatabaseConfig{Driver: "postgres"}}, false},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%s: Validate() = %v", tc.name, err)
		}
	}
}
