package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if !cfg.Watch.Enabled {
		t.Error("watcher should be enabled by default")
	}
}

func TestSettingsConfig_RequiresPath(t *testing.T) {
	cfg := SettingsConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty settings path should fail")
	}
	cfg = SettingsConfig{Path: "./settings", Exclude: []string{"backup/**", ""}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty exclude pattern should fail")
	}
}

func TestHistoryConfig_ZeroLimitDefaults(t *testing.T) {
	cfg := HistoryConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero limit should default: %v", err)
	}
	if cfg.Limit != 20 {
		t.Errorf("limit = %d, want 20", cfg.Limit)
	}
	cfg = HistoryConfig{Limit: -5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative limit should fail")
	}
}

func TestCatalogConfig_Locale(t *testing.T) {
	cfg := CatalogConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty locale should default: %v", err)
	}
	if cfg.Locale != "en-US" {
		t.Errorf("locale = %q, want en-US", cfg.Locale)
	}
	cfg = CatalogConfig{Locale: "ru-RU"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("ru-RU should pass: %v", err)
	}
	cfg = CatalogConfig{Locale: "de-DE"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unsupported locale should fail")
	}
}

func TestCORSConfig_Origins(t *testing.T) {
	for _, origins := range [][]string{nil, {"*"}, {"http://localhost:5173", "https://admin.example.com"}} {
		cfg := CORSConfig{AllowedOrigins: origins}
		if err := cfg.Validate(); err != nil {
			t.Errorf("origins %v should pass: %v", origins, err)
		}
	}
	cfg := CORSConfig{AllowedOrigins: []string{"not a url"}}
	if err := cfg.Validate(); err == nil {
		t.Error("invalid origin should fail")
	}
}
