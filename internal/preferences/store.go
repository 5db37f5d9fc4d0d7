// Package preferences owns the user-facing settings: the persisted config
// file plus the in-memory global disable switch.
package preferences

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/config"
	"github.com/1broseidon/penc/internal/keyboard"
)

// Delegate is notified after every successful change.
type Delegate interface {
	OnPreferencesChanged()
}

// Snapshot is a consistent copy of the activation settings.
type Snapshot struct {
	ModifierKey       keyboard.Modifier
	Sensitivity       time.Duration
	HoldDuration      time.Duration
	VelocityThreshold float64
	ReverseScroll     bool
	DisabledApps      []string
	DesktopApps       []string
	Disabled          bool
}

// IsAppDisabled reports whether appID is in the disabled set.
func (s Snapshot) IsAppDisabled(appID string) bool {
	return appID != "" && slices.Contains(s.DisabledApps, appID)
}

// IsDesktopApp reports whether appID draws the file manager's desktop.
func (s Snapshot) IsDesktopApp(appID string) bool {
	return appID != "" && slices.ContainsFunc(s.DesktopApps, func(app string) bool {
		return strings.EqualFold(app, appID)
	})
}

// Store holds the current config. Setters persist to the config file before
// notifying the delegate; a failed write leaves the previous value in place.
// Only the main file's own settings are written back, so environment
// overrides and included values stay where they came from.
type Store struct {
	mu       sync.RWMutex
	path     string
	env      config.Env
	res      *config.LoadResult
	disabled bool

	delegate Delegate
	logger   *zap.Logger
}

// Open loads path with env applied on top.
func Open(path string, env config.Env, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res, err := config.LoadFromPathWithEnv(path, env)
	if err != nil {
		return nil, err
	}
	return &Store{
		path:   path,
		env:    env,
		res:    res,
		logger: logger,
	}, nil
}

// NewMemoryStore wraps cfg without a backing file. Setters skip persistence.
func NewMemoryStore(cfg *config.Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		res:    config.ResultFromConfig(cfg),
		logger: logger,
	}
}

// SetDelegate installs the change observer.
func (s *Store) SetDelegate(d Delegate) {
	s.mu.Lock()
	s.delegate = d
	s.mu.Unlock()
}

// Path returns the backing file, or "" for a memory store.
func (s *Store) Path() string {
	return s.path
}

// Config returns a copy of the effective config.
func (s *Store) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res.Config.Clone()
}

// LoadResult returns the sources from the last load, for explain.
func (s *Store) LoadResult() *config.LoadResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res
}

// Snapshot returns the activation settings.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ModifierKey:       s.res.Config.Modifier(),
		Sensitivity:       s.res.Config.Sensitivity(),
		HoldDuration:      s.res.Config.Hold(),
		VelocityThreshold: s.res.Config.SwipeDetectionVelocityThreshold,
		ReverseScroll:     s.res.Config.ReverseScroll,
		DisabledApps:      slices.Clone(s.res.Config.DisabledApps),
		DesktopApps:       slices.Clone(s.res.Config.DesktopApps),
		Disabled:          s.disabled,
	}
}

func (s *Store) ActivationModifierKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res.Config.ActivationModifierKey
}

func (s *Store) ActivationSensitivity() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res.Config.ActivationSensitivity
}

func (s *Store) HoldDuration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res.Config.HoldDuration
}

func (s *Store) SwipeDetectionVelocityThreshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res.Config.SwipeDetectionVelocityThreshold
}

func (s *Store) ReverseScroll() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res.Config.ReverseScroll
}

func (s *Store) DisabledApps() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.res.Config.DisabledApps)
}

// Disabled reports the global disable switch.
func (s *Store) Disabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabled
}

func (s *Store) SetActivationModifierKey(key string) error {
	return s.update(func(r *config.RawConfig) { r.ActivationModifierKey = &key })
}

func (s *Store) SetActivationSensitivity(seconds float64) error {
	return s.update(func(r *config.RawConfig) { r.ActivationSensitivity = &seconds })
}

func (s *Store) SetHoldDuration(seconds float64) error {
	return s.update(func(r *config.RawConfig) { r.HoldDuration = &seconds })
}

func (s *Store) SetSwipeDetectionVelocityThreshold(v float64) error {
	return s.update(func(r *config.RawConfig) { r.SwipeDetectionVelocityThreshold = &v })
}

func (s *Store) SetReverseScroll(v bool) error {
	return s.update(func(r *config.RawConfig) { r.ReverseScroll = &v })
}

// SetDisabledApps replaces the whole list.
func (s *Store) SetDisabledApps(apps []string) error {
	apps = slices.Clone(apps)
	if apps == nil {
		apps = []string{}
	}
	return s.update(func(r *config.RawConfig) { r.DisabledApps = &apps })
}

// ToggleDisabledApp adds appID to the disabled list, or removes it when
// present, and reports whether the app is now disabled.
func (s *Store) ToggleDisabledApp(appID string) (bool, error) {
	if appID == "" {
		return false, fmt.Errorf("app id is empty")
	}
	apps := s.DisabledApps()
	idx := slices.Index(apps, appID)
	disabled := idx < 0
	if disabled {
		apps = append(apps, appID)
	} else {
		apps = slices.Delete(apps, idx, idx+1)
	}
	if err := s.SetDisabledApps(apps); err != nil {
		return !disabled, err
	}
	return disabled, nil
}

// SetDisabled flips the global switch. It is not persisted.
func (s *Store) SetDisabled(disabled bool) {
	s.mu.Lock()
	changed := s.disabled != disabled
	s.disabled = disabled
	d := s.delegate
	s.mu.Unlock()
	if changed {
		s.logger.Info("global disable changed", zap.Bool("disabled", disabled))
		if d != nil {
			d.OnPreferencesChanged()
		}
	}
}

// ToggleDisabled flips the global switch and returns the new value.
func (s *Store) ToggleDisabled() bool {
	next := !s.Disabled()
	s.SetDisabled(next)
	return next
}

// Reload re-reads the backing file. The global switch survives.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	res, err := config.LoadFromPathWithEnv(s.path, s.env)
	if err != nil {
		return fmt.Errorf("reload %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.res = res
	d := s.delegate
	s.mu.Unlock()
	s.logger.Info("preferences reloaded", zap.String("path", s.path), zap.Int("files", len(res.Files)))
	if d != nil {
		d.OnPreferencesChanged()
	}
	return nil
}

func (s *Store) update(mutate func(*config.RawConfig)) error {
	s.mu.Lock()
	next, err := s.res.Edit(mutate)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.path != "" {
		if err := next.Own.SaveTo(s.path); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("persist preferences: %w", err)
		}
	}
	s.res = next
	d := s.delegate
	s.mu.Unlock()
	if d != nil {
		d.OnPreferencesChanged()
	}
	return nil
}
