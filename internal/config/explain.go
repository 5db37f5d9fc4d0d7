package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML path and its source.
//
// Supported paths are the top-level keys plus indexed list entries, e.g.
//
//	activation_modifier_key
//	disabled_apps
//	disabled_apps.0
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	// List entries inherit the list's source.
	if head, _, ok := strings.Cut(path, "."); ok {
		if src, ok := res.Sources[head]; ok {
			return value, src, nil
		}
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	scalar := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return v, nil
	}
	switch parts[0] {
	case "activation_modifier_key":
		return scalar(cfg.ActivationModifierKey)
	case "activation_sensitivity":
		return scalar(cfg.ActivationSensitivity)
	case "hold_duration":
		return scalar(cfg.HoldDuration)
	case "swipe_detection_velocity_threshold":
		return scalar(cfg.SwipeDetectionVelocityThreshold)
	case "reverse_scroll":
		return scalar(cfg.ReverseScroll)
	case "log_level":
		return scalar(cfg.LogLevel)
	case "metrics_addr":
		return scalar(cfg.MetricsAddr)
	case "update_feed_url":
		return scalar(cfg.UpdateFeedURL)
	case "poll_interval_ms":
		return scalar(cfg.PollIntervalMS)
	case "disabled_apps":
		return listValue(cfg.DisabledApps, parts, path)
	case "desktop_apps":
		return listValue(cfg.DesktopApps, parts, path)
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}

func listValue(list []string, parts []string, path string) (any, error) {
	if len(parts) == 1 {
		return list, nil
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	if idx < 0 || idx >= len(list) {
		return nil, fmt.Errorf("%s: index %d out of range", parts[0], idx)
	}
	return list[idx], nil
}
