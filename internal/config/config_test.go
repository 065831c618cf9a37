package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/docset/internal/domain/record"
)

func validConfig() Config {
	return Config{
		HTTP:   HTTPConfig{Port: 8080},
		Search: SearchConfig{Addrs: []string{"localhost:6379"}},
		Kinds: []KindConfig{{
			Name:         "person",
			Index:        "people",
			DefaultField: "first_name",
			Fields:       map[string]string{"first_name": "keyword", "age": "numeric"},
		}},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_Backends(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"redis without addrs", func(c *Config) { c.Search.Addrs = nil }, "search.addrs"},
		{"meili without host", func(c *Config) { c.Search.Backend = BackendMeilisearch }, "meili_host"},
		{"unknown backend", func(c *Config) { c.Search.Backend = "elastic" }, "search.backend"},
		{"sqlite without path", func(c *Config) { c.Records.Driver = RecordsSQLite }, "sqlite_path"},
		{"unknown records driver", func(c *Config) { c.Records.Driver = "mongo" }, "records.driver"},
		{"no kinds", func(c *Config) { c.Kinds = nil }, "at least one kind"},
		{"duplicate kind", func(c *Config) { c.Kinds = append(c.Kinds, c.Kinds[0]) }, "duplicate"},
		{"bad field kind", func(c *Config) { c.Kinds[0].Fields["age"] = "float" }, "invalid kind"},
		{"bad default field", func(c *Config) { c.Kinds[0].DefaultField = "nope" }, "default field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Kinds[0].Fields = map[string]string{"first_name": "keyword", "age": "numeric"}
			tt.mutate(&cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_BleveWithSQLite(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Search:  SearchConfig{Backend: BackendBleve},
		Records: RecordsConfig{Driver: RecordsSQLite, SQLitePath: "records.db"},
		Kinds:   []KindConfig{{Name: "person"}},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Kinds[0].Index != "person" {
		t.Errorf("index default = %q", cfg.Kinds[0].Index)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Search.Backend != BackendRedis || cfg.Records.Driver != RecordsRedis {
		t.Errorf("backend=%q records=%q", cfg.Search.Backend, cfg.Records.Driver)
	}
	if cfg.Search.Timeout().Milliseconds() != 5000 {
		t.Errorf("timeout = %v", cfg.Search.Timeout())
	}
	if cfg.Search.DefaultPageSize != 10 || cfg.HTTP.MaxPageSize != 100 {
		t.Errorf("page sizes = %d/%d", cfg.Search.DefaultPageSize, cfg.HTTP.MaxPageSize)
	}
}

func TestKindConfig_Kind(t *testing.T) {
	k := KindConfig{
		Name:   "person",
		Index:  "people",
		Prefix: "person:",
		Fields: map[string]string{"bio": "text"},
	}.Kind()
	if k.Fields["bio"] != record.Text || k.Prefix != "person:" {
		t.Errorf("kind = %+v", k)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DOCSET_TEST_ADDR", "redis:6380")
	got := string(expandEnvVars([]byte("a: ${DOCSET_TEST_ADDR}\nb: ${DOCSET_TEST_UNSET:-fallback}\nc: ${DOCSET_TEST_UNSET}")))
	want := "a: redis:6380\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := `
http:
  port: 9090
search:
  backend: bleve
records:
  driver: sqlite
  sqlite_path: ${DOCSET_TEST_DB:-/tmp/records.db}
kinds:
  - name: person
    index: people
    default_field: first_name
    fields:
      first_name: keyword
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Records.SQLitePath != "/tmp/records.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Kinds[0].Kind().Fields["first_name"] != record.Keyword {
		t.Errorf("kind = %+v", cfg.Kinds[0])
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Kinds) == 0 {
		t.Fatal("expected kinds")
	}
}
