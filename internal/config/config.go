package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/penc/internal/keyboard"
)

// Defaults for the activation gesture.
const (
	DefaultModifierKey       = "super"
	DefaultSensitivity       = 0.3
	DefaultHoldDuration      = 0.0
	DefaultVelocityThreshold = 1500.0
	DefaultPollIntervalMS    = 8
	DefaultUpdateFeedURL     = "https://api.github.com/repos/1broseidon/penc/releases/latest"
)

// Config is the effective penc configuration.
type Config struct {
	// ActivationModifierKey is one of super, alt, control, shift.
	ActivationModifierKey string `yaml:"activation_modifier_key"`
	// ActivationSensitivity is the double-press window in seconds. Zero
	// disables double-press activation.
	ActivationSensitivity float64 `yaml:"activation_sensitivity"`
	// HoldDuration is the press-and-hold time in seconds. Zero disables
	// hold activation.
	HoldDuration                    float64  `yaml:"hold_duration"`
	SwipeDetectionVelocityThreshold float64  `yaml:"swipe_detection_velocity_threshold"`
	ReverseScroll                   bool     `yaml:"reverse_scroll"`
	DisabledApps                    []string `yaml:"disabled_apps"`
	// DesktopApps lists WM_CLASS values whose untitled windows are the
	// file manager's desktop surface.
	DesktopApps    []string `yaml:"desktop_apps"`
	LogLevel       string   `yaml:"log_level"`
	MetricsAddr    string   `yaml:"metrics_addr,omitempty"`
	UpdateFeedURL  string   `yaml:"update_feed_url"`
	PollIntervalMS int      `yaml:"poll_interval_ms"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ActivationModifierKey:           DefaultModifierKey,
		ActivationSensitivity:           DefaultSensitivity,
		HoldDuration:                    DefaultHoldDuration,
		SwipeDetectionVelocityThreshold: DefaultVelocityThreshold,
		ReverseScroll:                   false,
		DisabledApps:                    []string{},
		DesktopApps:                     defaultDesktopApps(),
		LogLevel:                        "info",
		UpdateFeedURL:                   DefaultUpdateFeedURL,
		PollIntervalMS:                  DefaultPollIntervalMS,
	}
}

func defaultDesktopApps() []string {
	return []string{"Finder", "nautilus-desktop", "Pcmanfm", "Caja", "Nemo-desktop", "xfdesktop"}
}

// DefaultConfigPath is ~/.config/penc/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "penc", "config.yaml"), nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.DisabledApps = append([]string(nil), c.DisabledApps...)
	out.DesktopApps = append([]string(nil), c.DesktopApps...)
	return &out
}

// Sensitivity returns ActivationSensitivity as a duration.
func (c *Config) Sensitivity() time.Duration {
	return seconds(c.ActivationSensitivity)
}

// Hold returns HoldDuration as a duration.
func (c *Config) Hold() time.Duration {
	return seconds(c.HoldDuration)
}

// Modifier returns the parsed activation key. Validate guarantees it parses.
func (c *Config) Modifier() keyboard.Modifier {
	m, err := keyboard.ParseModifier(c.ActivationModifierKey)
	if err != nil {
		return keyboard.ModSuper
	}
	return m
}

// PollInterval returns the key tap sampling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// IsDesktopApp reports whether appID names a desktop-surface app. The
// comparison ignores case since WM_CLASS capitalization varies.
func (c *Config) IsDesktopApp(appID string) bool {
	for _, app := range c.DesktopApps {
		if strings.EqualFold(app, appID) {
			return true
		}
	}
	return false
}

// IsAppDisabled reports whether appID is in DisabledApps.
func (c *Config) IsAppDisabled(appID string) bool {
	for _, app := range c.DisabledApps {
		if app == appID {
			return true
		}
	}
	return false
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := keyboard.ParseModifier(c.ActivationModifierKey); err != nil {
		return &ValidationError{Path: "activation_modifier_key", Err: err}
	}
	if c.ActivationSensitivity < 0 || c.ActivationSensitivity > 5 {
		return &ValidationError{Path: "activation_sensitivity", Err: fmt.Errorf("activation_sensitivity must be between 0 and 5 seconds")}
	}
	if c.HoldDuration < 0 || c.HoldDuration > 10 {
		return &ValidationError{Path: "hold_duration", Err: fmt.Errorf("hold_duration must be between 0 and 10 seconds")}
	}
	if c.ActivationSensitivity == 0 && c.HoldDuration == 0 {
		return &ValidationError{Path: "activation_sensitivity", Err: fmt.Errorf("activation_sensitivity and hold_duration cannot both be 0")}
	}
	if c.SwipeDetectionVelocityThreshold <= 0 {
		return &ValidationError{Path: "swipe_detection_velocity_threshold", Err: fmt.Errorf("swipe_detection_velocity_threshold must be > 0")}
	}
	if c.DisabledApps == nil {
		return &ValidationError{Path: "disabled_apps", Err: fmt.Errorf("disabled_apps must not be null")}
	}
	for _, app := range c.DisabledApps {
		if strings.TrimSpace(app) == "" {
			return &ValidationError{Path: "disabled_apps", Err: fmt.Errorf("disabled_apps contains an empty app id")}
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.PollIntervalMS < 1 || c.PollIntervalMS > 100 {
		return &ValidationError{Path: "poll_interval_ms", Err: fmt.Errorf("poll_interval_ms must be between 1 and 100")}
	}
	if c.UpdateFeedURL != "" && !strings.HasPrefix(c.UpdateFeedURL, "http://") && !strings.HasPrefix(c.UpdateFeedURL, "https://") {
		return &ValidationError{Path: "update_feed_url", Err: fmt.Errorf("update_feed_url must be an http(s) URL")}
	}
	return nil
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
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
