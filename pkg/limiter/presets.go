package limiter

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Presets returns the named policy tiers the platform's endpoint classes
// use. The map is freshly built per call, so callers may mutate it.
func Presets() map[string]Policy {
	return map[string]Policy{
		"auth": {
			MaxRequests: 5,
			Window:      15 * time.Minute,
			KeyPrefix:   "rl:auth",
			Message:     "Too many authentication attempts, please try again later",
		},
		"api": {
			MaxRequests: 100,
			Window:      time.Minute,
			KeyPrefix:   "rl:api",
		},
		"search": {
			MaxRequests: 30,
			Window:      time.Minute,
			KeyPrefix:   "rl:search",
			Message:     "Too many search requests, slow down",
		},
		"upload": {
			MaxRequests: 10,
			Window:      time.Minute,
			KeyPrefix:   "rl:upload",
			Message:     "Too many uploads, please wait before trying again",
		},
		"payment": {
			MaxRequests: 3,
			Window:      time.Minute,
			KeyPrefix:   "rl:payment",
			Message:     "Too many payment attempts, please wait a moment",
		},
		"public": {
			MaxRequests: 200,
			Window:      time.Minute,
			KeyPrefix:   "rl:public",
		},
	}
}

// presetEntry is one tier in a presets file. Window accepts Go duration
// syntax ("15m", "1m30s").
type presetEntry struct {
	MaxRequests int64  `yaml:"max_requests"`
	Window      string `yaml:"window"`
	KeyPrefix   string `yaml:"key_prefix"`
	Message     string `yaml:"message"`
}

type presetFile struct {
	Tiers map[string]presetEntry `yaml:"tiers"`
}

// LoadPresets reads a YAML tiers file and merges it over the built-in
// presets: listed tiers replace or extend the defaults, unlisted ones stay.
// An entry without a key_prefix gets "rl:" + its tier name. Every resulting
// policy is validated, so a bad file fails here instead of at request time.
func LoadPresets(path string) (map[string]Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("limiter: reading presets file: %w", err)
	}

	var file presetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("limiter: parsing presets file: %w", err)
	}

	presets := Presets()
	for name, entry := range file.Tiers {
		window, err := time.ParseDuration(entry.Window)
		if err != nil {
			return nil, fmt.Errorf("limiter: tier %q: bad window %q: %w", name, entry.Window, err)
		}
		prefix := entry.KeyPrefix
		if prefix == "" {
			prefix = "rl:" + name
		}
		pol := Policy{
			MaxRequests: entry.MaxRequests,
			Window:      window,
			KeyPrefix:   prefix,
			Message:     entry.Message,
		}
		if err := pol.Validate(); err != nil {
			return nil, fmt.Errorf("limiter: tier %q: %w", name, err)
		}
		presets[name] = pol
	}
	return presets, nil
}
