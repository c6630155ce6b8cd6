package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "JOBPLAN_"

// LoadOption customises Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	file      string
	overrides map[string]any
	validate  bool
}

// WithFile loads path as YAML, taking precedence over JOBPLAN_CONFIG.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) { o.file = path }
}

// WithOverrides applies values on top of every other source. Keys are the
// koanf tags of Config.
func WithOverrides(values map[string]any) LoadOption {
	return func(o *loadOptions) {
		for k, v := range values {
			o.overrides[k] = v
		}
	}
}

// WithoutValidation skips Validate, for callers that fill in the rest later.
func WithoutValidation() LoadOption {
	return func(o *loadOptions) { o.validate = false }
}

// Load builds a Config by layering sources.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from WithFile or JOBPLAN_CONFIG
//  3. env (prefix JOBPLAN_)
//  4. overrides (command-line flags)
func Load(ctx context.Context, opts ...LoadOption) (*Config, error) {
	o := loadOptions{overrides: map[string]any{}, validate: true}
	for _, opt := range opts {
		opt(&o)
	}

	base := New()
	k := koanf.New(".")

	path := o.file
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Map JOBPLAN_TOTAL_ITERATIONS -> total_iterations (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	for key, v := range o.overrides {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("%w: override %s: %v", ErrLoadConfig, key, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if o.validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
