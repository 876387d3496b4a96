// Package config loads application settings from a TOML file and the
// environment, and layers runtime overrides on top.
//
// Precedence, lowest to highest:
//
//  1. Built-in defaults
//  2. TOML config file (optional)
//  3. Environment variables
//  4. Runtime overrides (set via CLI/dashboard, process lifetime only)
//
// Model credentials are grouped per tier (light, heavy, coding) so the
// completion layer can route calls by capability class without knowing
// provider details.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Model tier names used in override keys and TOML tables.
const (
	TierLight  = "light"
	TierHeavy  = "heavy"
	TierCoding = "coding"
)

// ModelConfig holds credentials and routing for one model tier.
type ModelConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

// Configured reports whether this tier can be used.
func (m ModelConfig) Configured() bool {
	return m.APIKey != "" && m.Model != ""
}

// Config is the full application configuration.
type Config struct {
	Light  ModelConfig `toml:"light"`
	Heavy  ModelConfig `toml:"heavy"`
	Coding ModelConfig `toml:"coding"`

	DevtoAPIKey string `toml:"devto_api_key"`

	MongoURI  string `toml:"mongo_uri"`
	RedisAddr string `toml:"redis_addr"`

	CacheDir  string `toml:"cache_dir"`
	OutputDir string `toml:"output_dir"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// RenderTimeoutSeconds bounds one markup compilation; compilation can
	// hang on malformed markup, so this is always finite.
	RenderTimeoutSeconds int `toml:"render_timeout_seconds"`

	// CompletionTimeoutSeconds bounds one completion call.
	CompletionTimeoutSeconds int `toml:"completion_timeout_seconds"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Light:                    ModelConfig{Provider: "openai", Model: "gpt-3.5-turbo"},
		Heavy:                    ModelConfig{Provider: "openai", Model: "gpt-4-turbo"},
		Coding:                   ModelConfig{Provider: "openai", Model: "gpt-4-turbo"},
		OutputDir:                "outputs",
		Host:                     "0.0.0.0",
		Port:                     7860,
		RenderTimeoutSeconds:     120,
		CompletionTimeoutSeconds: 180,
	}
}

// Load reads configuration from the optional TOML file at path, then applies
// environment variables. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, err
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
// Variable names follow the original deployment convention.
func applyEnv(cfg *Config) {
	applyModelEnv(&cfg.Light, "LIGHT_MODEL")
	applyModelEnv(&cfg.Heavy, "HEAVY_MODEL")
	applyModelEnv(&cfg.Coding, "CODING_MODEL")

	// The coding tier is optional in deployments; fall back to heavy.
	if cfg.Coding.APIKey == "" {
		cfg.Coding = cfg.Heavy
	}

	setString(&cfg.DevtoAPIKey, "DEVTO_API_KEY")
	setString(&cfg.MongoURI, "MONGO_URI")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.OutputDir, "OUTPUT_DIR")
	setString(&cfg.Host, "HOST")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
}

func applyModelEnv(m *ModelConfig, prefix string) {
	setString(&m.Provider, prefix+"_PROVIDER")
	setString(&m.Model, prefix+"_NAME")
	setString(&m.APIKey, prefix+"_API_KEY")
	setString(&m.BaseURL, prefix+"_BASE_URL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ForTier returns the model configuration for a tier name.
// Unknown tiers resolve to the light model.
func (c Config) ForTier(tier string) ModelConfig {
	switch tier {
	case TierHeavy:
		return c.Heavy
	case TierCoding:
		return c.Coding
	default:
		return c.Light
	}
}
