// Package config loads the dashboard settings.
//
// Sources are layered, later ones winning: built-in defaults, the YAML file named by
// TRAINERDASH_CONFIG, a .env file in the working directory, then TRAINERDASH_* variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the dashboard reads.
const EnvPrefix = "TRAINERDASH_"

const EnvProduction = "production"

var (
	ErrMissingCSRFKey    = errors.New("TRAINERDASH_CSRF_KEY is required in production")
	ErrMissingSessionKey = errors.New("TRAINERDASH_SESSION_KEY is required in production")
	ErrInvalidCSRFKey    = errors.New("TRAINERDASH_CSRF_KEY must be 64 hex characters (32 bytes)")
	ErrMissingAPIBaseURL = errors.New("api_base_url is required")
)

// Config holds every setting of the server and the CLI.
type Config struct {
	Addr          string `yaml:"addr"`
	Env           string `yaml:"env"`
	APIBaseURL    string `yaml:"api_base_url"`
	DBPath        string `yaml:"db_path"`
	CSRFKey       string `yaml:"csrf_key"`
	SessionKey    string `yaml:"session_key"`
	ResendKey     string `yaml:"resend_key"`
	EmailFrom     string `yaml:"email_from"`
	ReplyTo       string `yaml:"reply_to"`
	SlowRequestMs int    `yaml:"slow_request_ms"`
	SlowQueryMs   int    `yaml:"slow_query_ms"`
}

// Defaults returns the development configuration.
func Defaults() Config {
	return Config{
		Addr:          ":8080",
		Env:           "development",
		APIBaseURL:    "http://localhost:8000/api",
		DBPath:        "trainerdash.db",
		EmailFrom:     "Trainer Dashboard <noreply@trainerdash.local>",
		SlowRequestMs: 500,
		SlowQueryMs:   50,
	}
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Load builds the configuration from every source.
// PRE: none
// POST: returned config passes Validate
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg.mergeEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// mergeFile overlays the non-zero values of a YAML file.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.overlay(file)
	return nil
}

func (c *Config) overlay(o Config) {
	setString(&c.Addr, o.Addr)
	setString(&c.Env, o.Env)
	setString(&c.APIBaseURL, o.APIBaseURL)
	setString(&c.DBPath, o.DBPath)
	setString(&c.CSRFKey, o.CSRFKey)
	setString(&c.SessionKey, o.SessionKey)
	setString(&c.ResendKey, o.ResendKey)
	setString(&c.EmailFrom, o.EmailFrom)
	setString(&c.ReplyTo, o.ReplyTo)
	if o.SlowRequestMs > 0 {
		c.SlowRequestMs = o.SlowRequestMs
	}
	if o.SlowQueryMs > 0 {
		c.SlowQueryMs = o.SlowQueryMs
	}
}

// mergeEnv overlays TRAINERDASH_* variables. getenv is os.Getenv outside tests.
func (c *Config) mergeEnv(getenv func(string) string) {
	var o Config
	o.Addr = getenv(EnvPrefix + "ADDR")
	o.Env = getenv(EnvPrefix + "ENV")
	o.APIBaseURL = getenv(EnvPrefix + "API_BASE_URL")
	o.DBPath = getenv(EnvPrefix + "DB_PATH")
	o.CSRFKey = getenv(EnvPrefix + "CSRF_KEY")
	o.SessionKey = getenv(EnvPrefix + "SESSION_KEY")
	o.ResendKey = getenv(EnvPrefix + "RESEND_KEY")
	o.EmailFrom = getenv(EnvPrefix + "EMAIL_FROM")
	o.ReplyTo = getenv(EnvPrefix + "REPLY_TO")
	o.SlowRequestMs, _ = strconv.Atoi(getenv(EnvPrefix + "SLOW_REQUEST_MS"))
	o.SlowQueryMs, _ = strconv.Atoi(getenv(EnvPrefix + "SLOW_QUERY_MS"))
	c.overlay(o)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate enforces the production requirements.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}
	if c.CSRFKey != "" {
		if key, err := hex.DecodeString(c.CSRFKey); err != nil || len(key) != 32 {
			return ErrInvalidCSRFKey
		}
	}
	if !c.IsProduction() {
		return nil
	}
	if c.CSRFKey == "" {
		return ErrMissingCSRFKey
	}
	if c.SessionKey == "" {
		return ErrMissingSessionKey
	}
	return nil
}

// CSRFKeyBytes returns the CSRF secret, generating a random one in development.
// PRE: c passed Validate
func (c Config) CSRFKeyBytes() []byte {
	if c.CSRFKey != "" {
		key, _ := hex.DecodeString(c.CSRFKey)
		return key
	}
	slog.Warn("csrf_key_random", "hint", "set "+EnvPrefix+"CSRF_KEY so forms survive a restart")
	return randomKey()
}

// SessionSecret returns the secret that seals stored tokens, generating a random one in
// development. A random secret makes every stored session unreadable after a restart.
func (c Config) SessionSecret() string {
	if c.SessionKey != "" {
		return c.SessionKey
	}
	slog.Warn("session_key_random", "hint", "set "+EnvPrefix+"SESSION_KEY so logins survive a restart")
	return hex.EncodeToString(randomKey())
}

func randomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return key
}
