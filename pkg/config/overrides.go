package config

import (
	"sort"
	"sync"
)

// Override keys accepted by the dashboard and CLI. Each maps onto one
// credential field of Config.
const (
	KeyLightAPIKey   = "light_model_api_key"
	KeyLightBaseURL  = "light_model_base_url"
	KeyLightModel    = "light_model_name"
	KeyHeavyAPIKey   = "heavy_model_api_key"
	KeyHeavyBaseURL  = "heavy_model_base_url"
	KeyHeavyModel    = "heavy_model_name"
	KeyCodingAPIKey  = "coding_model_api_key"
	KeyCodingBaseURL = "coding_model_base_url"
	KeyCodingModel   = "coding_model_name"
	KeyDevtoAPIKey   = "devto_api_key"
)

// KnownKeys lists all accepted override keys, sorted.
func KnownKeys() []string {
	keys := []string{
		KeyLightAPIKey, KeyLightBaseURL, KeyLightModel,
		KeyHeavyAPIKey, KeyHeavyBaseURL, KeyHeavyModel,
		KeyCodingAPIKey, KeyCodingBaseURL, KeyCodingModel,
		KeyDevtoAPIKey,
	}
	sort.Strings(keys)
	return keys
}

// KeyStatus reports whether a credential key currently has a value, and
// where it came from.
type KeyStatus struct {
	Key        string `json:"key"`
	Configured bool   `json:"configured"`
	Overridden bool   `json:"overridden"`
}

// Settings combines a loaded base Config with in-memory runtime overrides.
// Overrides take precedence over environment-sourced values for the lifetime
// of the process; they are never persisted.
//
// Settings is safe for concurrent use.
type Settings struct {
	mu        sync.RWMutex
	base      Config
	overrides map[string]string
}

// NewSettings wraps a loaded Config.
func NewSettings(base Config) *Settings {
	return &Settings{base: base, overrides: make(map[string]string)}
}

// SetOverride installs a runtime override for key. Unknown keys are ignored
// and reported via the bool return.
func (s *Settings) SetOverride(key, value string) bool {
	if !isKnownKey(key) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = value
	return true
}

// ClearOverride removes one runtime override.
func (s *Settings) ClearOverride(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, key)
}

// ClearOverrides removes all runtime overrides.
func (s *Settings) ClearOverrides() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = make(map[string]string)
}

// Resolve returns the effective Config with overrides applied.
func (s *Settings) Resolve() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.base
	for key, value := range s.overrides {
		switch key {
		case KeyLightAPIKey:
			cfg.Light.APIKey = value
		case KeyLightBaseURL:
			cfg.Light.BaseURL = value
		case KeyLightModel:
			cfg.Light.Model = value
		case KeyHeavyAPIKey:
			cfg.Heavy.APIKey = value
		case KeyHeavyBaseURL:
			cfg.Heavy.BaseURL = value
		case KeyHeavyModel:
			cfg.Heavy.Model = value
		case KeyCodingAPIKey:
			cfg.Coding.APIKey = value
		case KeyCodingBaseURL:
			cfg.Coding.BaseURL = value
		case KeyCodingModel:
			cfg.Coding.Model = value
		case KeyDevtoAPIKey:
			cfg.DevtoAPIKey = value
		}
	}
	return cfg
}

// Status reports, per known key, whether a value is configured and whether
// it comes from a runtime override. Values themselves are never exposed.
func (s *Settings) Status() []KeyStatus {
	cfg := s.Resolve()

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := map[string]string{
		KeyLightAPIKey:   cfg.Light.APIKey,
		KeyLightBaseURL:  cfg.Light.BaseURL,
		KeyLightModel:    cfg.Light.Model,
		KeyHeavyAPIKey:   cfg.Heavy.APIKey,
		KeyHeavyBaseURL:  cfg.Heavy.BaseURL,
		KeyHeavyModel:    cfg.Heavy.Model,
		KeyCodingAPIKey:  cfg.Coding.APIKey,
		KeyCodingBaseURL: cfg.Coding.BaseURL,
		KeyCodingModel:   cfg.Coding.Model,
		KeyDevtoAPIKey:   cfg.DevtoAPIKey,
	}

	statuses := make([]KeyStatus, 0, len(current))
	for _, key := range KnownKeys() {
		_, overridden := s.overrides[key]
		statuses = append(statuses, KeyStatus{
			Key:        key,
			Configured: current[key] != "",
			Overridden: overridden,
		})
	}
	return statuses
}

func isKnownKey(key string) bool {
	for _, k := range KnownKeys() {
		if k == key {
			return true
		}
	}
	return false
}
