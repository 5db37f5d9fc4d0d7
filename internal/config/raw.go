package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/config.d"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig mirrors Config with optional fields so merged files only
// override what they set.
type RawConfig struct {
	Include                         IncludeList `yaml:"include,omitempty"`
	ActivationModifierKey           *string     `yaml:"activation_modifier_key,omitempty"`
	ActivationSensitivity           *float64    `yaml:"activation_sensitivity,omitempty"`
	HoldDuration                    *float64    `yaml:"hold_duration,omitempty"`
	SwipeDetectionVelocityThreshold *float64    `yaml:"swipe_detection_velocity_threshold,omitempty"`
	ReverseScroll                   *bool       `yaml:"reverse_scroll,omitempty"`
	DisabledApps                    *[]string   `yaml:"disabled_apps,omitempty"`
	DesktopApps                     *[]string   `yaml:"desktop_apps,omitempty"`
	LogLevel                        *string     `yaml:"log_level,omitempty"`
	MetricsAddr                     *string     `yaml:"metrics_addr,omitempty"`
	UpdateFeedURL                   *string     `yaml:"update_feed_url,omitempty"`
	PollIntervalMS                  *int        `yaml:"poll_interval_ms,omitempty"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.ActivationModifierKey != nil {
		out.ActivationModifierKey = overlay.ActivationModifierKey
	}
	if overlay.ActivationSensitivity != nil {
		out.ActivationSensitivity = overlay.ActivationSensitivity
	}
	if overlay.HoldDuration != nil {
		out.HoldDuration = overlay.HoldDuration
	}
	if overlay.SwipeDetectionVelocityThreshold != nil {
		out.SwipeDetectionVelocityThreshold = overlay.SwipeDetectionVelocityThreshold
	}
	if overlay.ReverseScroll != nil {
		out.ReverseScroll = overlay.ReverseScroll
	}
	// Lists replace rather than append.
	if overlay.DisabledApps != nil {
		out.DisabledApps = overlay.DisabledApps
	}
	if overlay.DesktopApps != nil {
		out.DesktopApps = overlay.DesktopApps
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.MetricsAddr != nil {
		out.MetricsAddr = overlay.MetricsAddr
	}
	if overlay.UpdateFeedURL != nil {
		out.UpdateFeedURL = overlay.UpdateFeedURL
	}
	if overlay.PollIntervalMS != nil {
		out.PollIntervalMS = overlay.PollIntervalMS
	}
	return out
}
