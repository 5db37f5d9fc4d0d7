package config

import "fmt"

// ValidationError ties a config error to the YAML path and, when known,
// the file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw over the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.ActivationModifierKey != nil {
		cfg.ActivationModifierKey = *raw.ActivationModifierKey
	}
	if raw.ActivationSensitivity != nil {
		cfg.ActivationSensitivity = *raw.ActivationSensitivity
	}
	if raw.HoldDuration != nil {
		cfg.HoldDuration = *raw.HoldDuration
	}
	if raw.SwipeDetectionVelocityThreshold != nil {
		cfg.SwipeDetectionVelocityThreshold = *raw.SwipeDetectionVelocityThreshold
	}
	if raw.ReverseScroll != nil {
		cfg.ReverseScroll = *raw.ReverseScroll
	}
	if raw.DisabledApps != nil {
		cfg.DisabledApps = append([]string{}, (*raw.DisabledApps)...)
	}
	if raw.DesktopApps != nil {
		cfg.DesktopApps = append([]string{}, (*raw.DesktopApps)...)
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.MetricsAddr != nil {
		cfg.MetricsAddr = *raw.MetricsAddr
	}
	if raw.UpdateFeedURL != nil {
		cfg.UpdateFeedURL = *raw.UpdateFeedURL
	}
	if raw.PollIntervalMS != nil {
		cfg.PollIntervalMS = *raw.PollIntervalMS
	}
	return cfg
}
