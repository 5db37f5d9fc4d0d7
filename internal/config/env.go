package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Env holds PENC_* environment overrides. They apply after every file.
type Env struct {
	Config      string `envconfig:"CONFIG"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// ReadEnv loads the PENC_ prefixed environment.
func ReadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("penc", &env); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}

func (e Env) raw() RawConfig {
	var raw RawConfig
	if e.LogLevel != "" {
		level := e.LogLevel
		raw.LogLevel = &level
	}
	if e.MetricsAddr != "" {
		addr := e.MetricsAddr
		raw.MetricsAddr = &addr
	}
	return raw
}

func (e Env) sources() map[string]Source {
	out := map[string]Source{}
	if e.LogLevel != "" {
		out["log_level"] = Source{Kind: SourceEnv, Name: "PENC_LOG_LEVEL"}
	}
	if e.MetricsAddr != "" {
		out["metrics_addr"] = Source{Kind: SourceEnv, Name: "PENC_METRICS_ADDR"}
	}
	return out
}
