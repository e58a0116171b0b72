// Package config manages the geowalk contexts file and resolves per-run
// settings from flags, GEOWALK_* environment variables and file defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by geowalk
const EnvPrefix = "GEOWALK"

// Built-in defaults, used when neither flags, env nor the contexts file set a value
const (
	DefaultFormat   = "csv"
	DefaultWorkers  = 4
	DefaultMaxDepth = 64
	DefaultOnError  = "abort"
	DefaultRetries  = 3

	// DefaultHTTPRetries is the transport retry budget for 429 and 5xx responses
	DefaultHTTPRetries = 4
)

// Settings is the resolved configuration for one run.
// Use mapstructure tags for Viper unmarshaling.
type Settings struct {
	Context  string   `mapstructure:"context"`
	Provider string   `mapstructure:"provider"`
	Project  string   `mapstructure:"project"`
	Profile  string   `mapstructure:"profile"`
	Region   string   `mapstructure:"region"`
	Endpoint string   `mapstructure:"endpoint"`
	Verbose  bool     `mapstructure:"verbose"`
	Format   string   `mapstructure:"format"`
	Workers  int      `mapstructure:"workers"`
	MaxDepth int      `mapstructure:"max_depth"`
	OnError  string   `mapstructure:"on_error"`
	Retries  int      `mapstructure:"retries"`
	Columns  []string `mapstructure:"columns"`

	HTTPRetries int `mapstructure:"http_retries"`
}

// NewViper returns a Viper instance that knows every settings key and reads
// GEOWALK_* environment variables. Flag names use dashes, keys use underscores.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only sees keys Viper already knows about.
	for _, key := range []string{"context", "provider", "project", "profile", "region", "endpoint"} {
		v.SetDefault(key, "")
	}
	v.SetDefault("verbose", false)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("max_depth", DefaultMaxDepth)
	v.SetDefault("on_error", DefaultOnError)
	v.SetDefault("retries", DefaultRetries)
	v.SetDefault("columns", []string{})
	v.SetDefault("http_retries", DefaultHTTPRetries)

	return v
}

// applyFileDefaults layers the contexts file defaults over the built-ins
func applyFileDefaults(v *viper.Viper, d *Defaults) {
	if d == nil {
		return
	}
	if d.Format != "" {
		v.SetDefault("format", d.Format)
	}
	if d.Workers > 0 {
		v.SetDefault("workers", d.Workers)
	}
	if d.MaxDepth > 0 {
		v.SetDefault("max_depth", d.MaxDepth)
	}
	if d.OnError != "" {
		v.SetDefault("on_error", d.OnError)
	}
	if d.Retries > 0 {
		v.SetDefault("retries", d.Retries)
	}
	if len(d.Columns) > 0 {
		v.SetDefault("columns", d.Columns)
	}
	if d.HTTPRetries > 0 {
		v.SetDefault("http_retries", d.HTTPRetries)
	}
}

// LoadSettings resolves settings with precedence flag > env > contexts file >
// built-in default. Connection fields left empty by flags and env are filled
// from the selected context. file may be nil.
func LoadSettings(v *viper.Viper, file *File) (*Settings, error) {
	if file != nil {
		applyFileDefaults(v, file.Defaults)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if file != nil {
		ctx, name, err := file.Resolve(s.Context)
		if err != nil {
			return nil, err
		}
		if ctx != nil {
			s.Context = name
			s.applyContext(ctx)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) applyContext(ctx *Context) {
	if s.Provider == "" {
		s.Provider = ctx.Provider
	}
	if s.Project == "" {
		s.Project = ctx.Project
	}
	if s.Profile == "" {
		s.Profile = ctx.Profile
	}
	if s.Region == "" {
		s.Region = ctx.Region
	}
	if s.Endpoint == "" {
		s.Endpoint = ctx.Endpoint
	}
}

// Validate rejects values no component can run with
func (s *Settings) Validate() error {
	switch s.Provider {
	case "", ProviderGCP, ProviderAWS:
	default:
		return fmt.Errorf("unknown provider %q (supported: gcp, aws)", s.Provider)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	if s.MaxDepth < 1 {
		return fmt.Errorf("max depth must be at least 1, got %d", s.MaxDepth)
	}
	if s.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", s.Retries)
	}
	if s.HTTPRetries < 0 {
		return fmt.Errorf("http retries must not be negative, got %d", s.HTTPRetries)
	}
	return nil
}
