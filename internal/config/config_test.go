package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestMergeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trainerdash.yaml")
	yaml := "addr: \":9090\"\napi_base_url: https://api.gym.test/api\nslow_request_ms: 250\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	if err := cfg.mergeFile(path); err != nil {
		t.Fatalf("mergeFile: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.APIBaseURL != "https://api.gym.test/api" || cfg.SlowRequestMs != 250 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DBPath != "trainerdash.db" {
		t.Errorf("unset keys keep defaults, DBPath = %q", cfg.DBPath)
	}
}

func TestMergeFile_Errors(t *testing.T) {
	cfg := Defaults()
	if err := cfg.mergeFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("addr: [unclosed"), 0o600)
	if err := cfg.mergeFile(path); err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("err = %v", err)
	}
}

// TestMergeEnv verifies environment variables win over file values.
func TestMergeEnv(t *testing.T) {
	cfg := Defaults()
	cfg.Addr = ":9090"
	cfg.mergeEnv(envMap(map[string]string{
		"TRAINERDASH_ADDR":            ":7070",
		"TRAINERDASH_SLOW_REQUEST_MS": "100",
		"TRAINERDASH_SLOW_QUERY_MS":   "not-a-number",
		"TRAINERDASH_RESEND_KEY":      " re_123 ",
	}))
	if cfg.Addr != ":7070" || cfg.SlowRequestMs != 100 || cfg.ResendKey != "re_123" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SlowQueryMs != 50 {
		t.Errorf("invalid number should keep default, got %d", cfg.SlowQueryMs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		want error
	}{
		{"development defaults", func(*Config) {}, nil},
		{"production without csrf", func(c *Config) { c.Env = "production"; c.SessionKey = "s" }, ErrMissingCSRFKey},
		{"production without session key", func(c *Config) { c.Env = "Production"; c.CSRFKey = validKey }, ErrMissingSessionKey},
		{"production complete", func(c *Config) { c.Env = "production"; c.CSRFKey = validKey; c.SessionKey = "s" }, nil},
		{"bad csrf key", func(c *Config) { c.CSRFKey = "abc" }, ErrInvalidCSRFKey},
		{"no api", func(c *Config) { c.APIBaseURL = "" }, ErrMissingAPIBaseURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mod(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	cfg := Defaults()
	cfg.CSRFKey = validKey
	if got := cfg.CSRFKeyBytes(); len(got) != 32 || got[1] != 0x11 {
		t.Errorf("CSRFKeyBytes = %x", got)
	}
	cfg.CSRFKey = ""
	a, b := cfg.CSRFKeyBytes(), cfg.CSRFKeyBytes()
	if len(a) != 32 || string(a) == string(b) {
		t.Error("development keys should be random per call")
	}
	cfg.SessionKey = "fixed"
	if cfg.SessionSecret() != "fixed" {
		t.Error("SessionSecret should return the configured key")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	os.WriteFile(path, []byte("db_path: file.db\naddr: \":1111\"\n"), 0o600)
	t.Setenv("TRAINERDASH_CONFIG", path)
	t.Setenv("TRAINERDASH_ADDR", ":2222")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "file.db" || cfg.Addr != ":2222" {
		t.Errorf("cfg = %+v", cfg)
	}
}
