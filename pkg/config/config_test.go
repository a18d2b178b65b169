package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
environment: test
server:
  port: 9090
postgres:
  host: localhost
  port: 5432
  database: stockcast
  user: u
  password: p
clickhouse:
  host: localhost
  port: 9000
  database: stockcast
quotes:
  base_url: https://example.test
  api_keys:
    - k1
    - k2
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port=%d", cfg.Server.Port)
	}
	if cfg.Quotes.AttemptTimeout != 10*time.Second {
		t.Errorf("attempt_timeout=%v", cfg.Quotes.AttemptTimeout)
	}
	if cfg.Quotes.RetryDelay != time.Second {
		t.Errorf("retry_delay=%v", cfg.Quotes.RetryDelay)
	}
	if cfg.Forecast.WindowSize != 5 || cfg.Forecast.Epochs != 10 || cfg.Forecast.BatchSize != 32 {
		t.Errorf("forecast defaults: %+v", cfg.Forecast)
	}
	if cfg.Forecast.HistoryLimit != 100 || cfg.Forecast.MinHistory != 10 {
		t.Errorf("history defaults: %+v", cfg.Forecast)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("cache backend=%s", cfg.Cache.Backend)
	}
}

func TestLoadRejectsMissingKeys(t *testing.T) {
	body := `
environment: test
postgres:
  host: localhost
clickhouse:
  host: localhost
quotes:
  base_url: https://example.test
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected validation error for empty api_keys")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("QUOTE_API_KEYS", "e1,e2,e3")
	t.Setenv("POSTGRES_HOST", "db.internal")

	cfg, err := LoadWithEnv(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Quotes.APIKeys) != 3 || cfg.Quotes.APIKeys[0] != "e1" {
		t.Errorf("api keys=%v", cfg.Quotes.APIKeys)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("postgres host=%s", cfg.Postgres.Host)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := "postgres://u:p@localhost:5432/stockcast?sslmode=disable"
	if got := cfg.PostgresDSN(); got != want {
		t.Errorf("dsn=%s, want %s", got, want)
	}
}
