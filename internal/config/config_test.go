package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Path: "data/techsearch.db"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Search.DefaultPageSize != 25 || cfg.Search.MaxPageSize != 1000 {
		t.Errorf("page sizes = %d/%d", cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	}
	if cfg.Search.ExportDefaultLimit != 1000 || cfg.Search.ExportMaxLimit != 50000 {
		t.Errorf("export limits = %d/%d", cfg.Search.ExportDefaultLimit, cfg.Search.ExportMaxLimit)
	}
	if cfg.Cache.TTLSec != 300 {
		t.Errorf("cache ttl = %d", cfg.Cache.TTLSec)
	}
	if cfg.HTTP.MaxBodyBytes != 1<<20 {
		t.Errorf("max body = %d", cfg.HTTP.MaxBodyBytes)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Driver: DriverDuckDB, MaxOpenConns: 2},
		Search:   SearchConfig{ExportMaxLimit: 200},
	}
	cfg.ApplyDefaults()
	if cfg.Database.Driver != DriverDuckDB || cfg.Database.MaxOpenConns != 2 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Search.ExportMaxLimit != 200 {
		t.Errorf("export max = %d", cfg.Search.ExportMaxLimit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, "database.driver"},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"duckdb in memory", func(c *Config) { c.Database.Driver = DriverDuckDB; c.Database.Path = "" }, ""},
		{"cache without addrs", func(c *Config) { c.Cache.Enabled = true }, "cache.addrs"},
		{"cache with addrs", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Addrs = []string{"localhost:6379"}
		}, ""},
		{"local ttl above ttl", func(c *Config) { c.Cache.LocalTTLSec = c.Cache.TTLSec + 1 }, "cache.local_ttl_sec"},
		{"negative local ttl", func(c *Config) { c.Cache.LocalTTLSec = -1 }, "cache.local_ttl_sec"},
		{"page size above hard max", func(c *Config) { c.Search.MaxPageSize = 5000 }, "search.max_page_size"},
		{"default above max", func(c *Config) { c.Search.DefaultPageSize = 100; c.Search.MaxPageSize = 50 }, "default_page_size"},
		{"export default above max", func(c *Config) { c.Search.ExportMaxLimit = 10 }, "export_default_limit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TS_DB_PATH", "/var/lib/techsearch.db")
	t.Setenv("TS_EMPTY", "")

	in := "path: ${TS_DB_PATH}\nport: ${TS_PORT_UNSET:-8080}\nempty: ${TS_EMPTY:-fallback}\nnone: ${TS_NONE}"
	got := string(expandEnvVars([]byte(in)))
	want := "path: /var/lib/techsearch.db\nport: 8080\nempty: fallback\nnone: "
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestLoad_FromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	yaml := `
http:
  port: ${TS_TEST_PORT:-9090}
database:
  driver: sqlite
  path: /tmp/t.db
cache:
  enabled: true
  addrs: ["localhost:6379"]
search:
  export_max_limit: 5000
`
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Search.ExportMaxLimit != 5000 || cfg.Search.ExportDefaultLimit != 1000 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Addrs[0] != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
