// Package config loads the web application configuration. Settings come from
// an optional YAML file with environment variables taking precedence, so
// secrets never need to live on disk. The loaded struct is validated before
// use.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so "30s" style values can be written in the
// YAML file.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// Config holds every tunable of the web application.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `yaml:"addr"`
	// DatabasePath locates the SQLite file.
	DatabasePath string `yaml:"database_path"`
	// SigningKey signs session cookies.
	SigningKey string `yaml:"signing_key" validate:"required"`

	AppleMusic struct {
		DeveloperToken string `yaml:"developer_token" validate:"required"`
		UserToken      string `yaml:"user_token"`
	} `yaml:"apple_music"`

	Aggregation struct {
		// Limit caps concurrent storefront fetches. Zero uses the
		// aggregator default.
		Limit int `yaml:"limit" validate:"gte=0"`
		// Policy is "best-effort" or "fail-fast".
		Policy  string   `yaml:"policy" validate:"omitempty,oneof=best-effort fail-fast"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"aggregation"`

	Spotify struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"spotify"`

	Tidal struct {
		Token       string `yaml:"token"`
		CountryCode string `yaml:"country_code"`
	} `yaml:"tidal"`
}

func defaults() Config {
	var cfg Config
	cfg.Addr = ":4000"
	cfg.DatabasePath = "musadora.db"
	return cfg
}

// overlay replaces cfg fields with environment values when set. Environment
// variables win over the file so deployments can inject secrets.
func overlay(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Addr, "ADDR")
	set(&cfg.DatabasePath, "DATABASE_PATH")
	set(&cfg.SigningKey, "SIGNING_KEY")
	set(&cfg.AppleMusic.DeveloperToken, "APPLE_DEVELOPER_TOKEN")
	set(&cfg.AppleMusic.UserToken, "APPLE_MUSIC_USER_TOKEN")
	set(&cfg.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	set(&cfg.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	set(&cfg.Tidal.Token, "TIDAL_TOKEN")
	set(&cfg.Tidal.CountryCode, "TIDAL_COUNTRY_CODE")
}

// Load reads the YAML file at path when it exists, applies environment
// overrides and validates the result. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	overlay(&cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
