package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if !cfg.Development() {
		t.Error("expected development mode by default")
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected default model %q", cfg.Gemini.Model)
	}
	if cfg.Gemini.Temperature != 0.7 || cfg.Gemini.TopP != 0.95 || cfg.Gemini.TopK != 40 {
		t.Errorf("unexpected sampling defaults: %+v", cfg.Gemini)
	}
	if cfg.Gemini.MaxOutputTokens != 8192 {
		t.Errorf("expected default max output tokens 8192, got %d", cfg.Gemini.MaxOutputTokens)
	}
	if !cfg.Policy.FallbackTutor || !cfg.Policy.FallbackQuiz || !cfg.Policy.FallbackVisual {
		t.Errorf("fallback policies should default on: %+v", cfg.Policy)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("GEMINI_TEMPERATURE", "0.3")
	t.Setenv("GEMINI_MAX_OUTPUT_TOKENS", "2048")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("FALLBACK_QUIZ", "false")
	t.Setenv("POSTGRES_CONNECT_TIMEOUT", "2s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("expected port override, got %q", cfg.ServerPort)
	}
	if cfg.Development() {
		t.Error("production environment should not report development")
	}
	if cfg.Gemini.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", cfg.Gemini.Temperature)
	}
	if cfg.Gemini.MaxOutputTokens != 2048 {
		t.Errorf("expected max tokens 2048, got %d", cfg.Gemini.MaxOutputTokens)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.Policy.FallbackQuiz {
		t.Error("expected quiz fallback disabled")
	}
	if cfg.Postgres.ConnectTimeout != 2*time.Second {
		t.Errorf("expected 2s connect timeout, got %v", cfg.Postgres.ConnectTimeout)
	}
}

func TestParseHelpersFallBack(t *testing.T) {
	if got := parseDuration("nonsense", 5*time.Second); got != 5*time.Second {
		t.Errorf("parseDuration fallback = %v", got)
	}
	if got := parseInt32("abc", 7); got != 7 {
		t.Errorf("parseInt32 fallback = %d", got)
	}
	if got := parseFloat("abc", 0.5); got != 0.5 {
		t.Errorf("parseFloat fallback = %v", got)
	}
	if got := parseBool("maybe", true); !got {
		t.Error("parseBool fallback should be true")
	}
}

func TestBuildDSN(t *testing.T) {
	pg := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "orbit"}
	if got := pg.BuildDSN(); got != "postgres://u:p@db:5433/orbit" {
		t.Errorf("unexpected DSN %q", got)
	}
	pg.DSN = "postgres://override"
	if got := pg.BuildDSN(); got != "postgres://override" {
		t.Errorf("explicit DSN should win, got %q", got)
	}
}
