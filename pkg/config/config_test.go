package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Port != 7860 {
		t.Errorf("default port = %d, want 7860", cfg.Port)
	}
	if cfg.Heavy.Model != "gpt-4-turbo" {
		t.Errorf("default heavy model = %q", cfg.Heavy.Model)
	}
	if cfg.RenderTimeoutSeconds <= 0 {
		t.Error("render timeout must be finite")
	}
}

func TestLoadTOMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scholarshare.toml")
	content := `
output_dir = "artifacts"

[heavy]
model = "file-model"
api_key = "file-key"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// Env beats file.
	t.Setenv("HEAVY_MODEL_API_KEY", "env-key")
	t.Setenv("PORT", "9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.OutputDir != "artifacts" {
		t.Errorf("OutputDir = %q, want artifacts", cfg.OutputDir)
	}
	if cfg.Heavy.Model != "file-model" {
		t.Errorf("Heavy.Model = %q, want file-model", cfg.Heavy.Model)
	}
	if cfg.Heavy.APIKey != "env-key" {
		t.Errorf("Heavy.APIKey = %q, env should win over file", cfg.Heavy.APIKey)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err != nil {
		t.Errorf("Load with missing file should succeed, got %v", err)
	}
}

func TestCodingFallsBackToHeavy(t *testing.T) {
	t.Setenv("HEAVY_MODEL_API_KEY", "hk")
	t.Setenv("HEAVY_MODEL_NAME", "hm")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Coding.APIKey != "hk" || cfg.Coding.Model != "hm" {
		t.Errorf("coding tier should inherit heavy credentials, got %+v", cfg.Coding)
	}
}

func TestForTier(t *testing.T) {
	cfg := Defaults()
	cfg.Light.Model = "l"
	cfg.Heavy.Model = "h"
	cfg.Coding.Model = "c"

	tests := []struct {
		tier string
		want string
	}{
		{TierLight, "l"},
		{TierHeavy, "h"},
		{TierCoding, "c"},
		{"unknown", "l"},
	}
	for _, tt := range tests {
		if got := cfg.ForTier(tt.tier).Model; got != tt.want {
			t.Errorf("ForTier(%q) = %q, want %q", tt.tier, got, tt.want)
		}
	}
}

func TestOverridePrecedence(t *testing.T) {
	base := Defaults()
	base.Heavy.APIKey = "env-key"
	s := NewSettings(base)

	if !s.SetOverride(KeyHeavyAPIKey, "override-key") {
		t.Fatal("SetOverride rejected a known key")
	}
	if got := s.Resolve().Heavy.APIKey; got != "override-key" {
		t.Errorf("Resolve Heavy.APIKey = %q, override should win", got)
	}

	s.ClearOverride(KeyHeavyAPIKey)
	if got := s.Resolve().Heavy.APIKey; got != "env-key" {
		t.Errorf("after ClearOverride Heavy.APIKey = %q, want env-key", got)
	}
}

func TestSetOverrideRejectsUnknownKey(t *testing.T) {
	s := NewSettings(Defaults())
	if s.SetOverride("mystery_key", "v") {
		t.Error("unknown key should be rejected")
	}
}

func TestStatusNeverExposesValues(t *testing.T) {
	base := Defaults()
	s := NewSettings(base)
	s.SetOverride(KeyDevtoAPIKey, "secret")

	var found bool
	for _, st := range s.Status() {
		if st.Key == KeyDevtoAPIKey {
			found = true
			if !st.Configured || !st.Overridden {
				t.Errorf("devto status = %+v, want configured override", st)
			}
		}
	}
	if !found {
		t.Error("Status missing devto_api_key entry")
	}

	s.ClearOverrides()
	for _, st := range s.Status() {
		if st.Key == KeyDevtoAPIKey && (st.Configured || st.Overridden) {
			t.Errorf("after ClearOverrides, devto status = %+v", st)
		}
	}
}
