package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ResultFromConfig wraps cfg as if it had been loaded from a single file
// with no environment overrides.
func ResultFromConfig(cfg *Config) *LoadResult {
	return &LoadResult{
		Config:  cfg.Clone(),
		Sources: map[string]Source{},
		merged:  rawFromConfig(cfg),
	}
}

// Edit applies mutate to the main file's own settings and returns the
// resulting effective config. Includes and environment overrides still
// apply; nothing is written. mutate must assign fresh values rather than
// write through existing pointers.
func (r *LoadResult) Edit(mutate func(*RawConfig)) (*LoadResult, error) {
	own, merged := r.Own, r.merged
	mutate(&own)
	mutate(&merged)

	cfg := BuildEffectiveConfig(merged.merge(r.env.raw()))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LoadResult{
		Config:  cfg,
		Sources: maps.Clone(r.Sources),
		Files:   r.Files,
		Own:     own,
		merged:  merged,
		env:     r.env,
	}, nil
}

// SaveTo writes only the settings present in c to path.
func (c RawConfig) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func rawFromConfig(c *Config) RawConfig {
	cfg := c.Clone()
	return RawConfig{
		ActivationModifierKey:           &cfg.ActivationModifierKey,
		ActivationSensitivity:           &cfg.ActivationSensitivity,
		HoldDuration:                    &cfg.HoldDuration,
		SwipeDetectionVelocityThreshold: &cfg.SwipeDetectionVelocityThreshold,
		ReverseScroll:                   &cfg.ReverseScroll,
		DisabledApps:                    &cfg.DisabledApps,
		DesktopApps:                     &cfg.DesktopApps,
		LogLevel:                        &cfg.LogLevel,
		MetricsAddr:                     &cfg.MetricsAddr,
		UpdateFeedURL:                   &cfg.UpdateFeedURL,
		PollIntervalMS:                  &cfg.PollIntervalMS,
	}
}
