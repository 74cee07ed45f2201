package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	StorePath string `env:"LEADERIMAGES_TEST_STORE_PATH" envDefault:"leaders.db"`
	Strict    bool   `env:"LEADERIMAGES_TEST_STRICT"`
}

type prefixedTestConfig struct {
	Locale string `env:"LOCALE" envDefault:"en-US"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.StorePath != "leaders.db" {
		t.Fatalf("store path = %q, want leaders.db", cfg.StorePath)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("LEADERIMAGES_TEST_STRICT", "sometimes")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvWithPrefix(t *testing.T) {
	t.Setenv(EnvPrefix+"LOCALE", "fr-FR")

	var cfg prefixedTestConfig
	if err := ParseEnvWithPrefix(&cfg, EnvPrefix); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Locale != "fr-FR" {
		t.Fatalf("locale = %q, want fr-FR", cfg.Locale)
	}
}
