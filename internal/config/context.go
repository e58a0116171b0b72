package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported backends for a context
const (
	ProviderGCP = "gcp" // Earth Engine and Cloud Storage
	ProviderAWS = "aws" // S3
)

// ErrContextNotFound is returned when a named context is not configured
var ErrContextNotFound = errors.New("context not found")

// Context represents a cloud context configuration
type Context struct {
	Provider string `yaml:"provider"`           // "gcp" or "aws"
	Profile  string `yaml:"profile,omitempty"`  // AWS profile name
	Project  string `yaml:"project,omitempty"`  // GCP project ID
	Region   string `yaml:"region,omitempty"`   // Region or zone
	Endpoint string `yaml:"endpoint,omitempty"` // S3-compatible endpoint URL
}

// Validate checks the provider-specific fields of a context
func (c *Context) Validate() error {
	switch c.Provider {
	case ProviderGCP, ProviderAWS:
	default:
		return fmt.Errorf("unknown provider %q (supported: gcp, aws)", c.Provider)
	}
	if c.Endpoint != "" && c.Provider != ProviderAWS {
		return fmt.Errorf("endpoint is only supported for aws contexts")
	}
	return nil
}

// Defaults holds per-user run defaults. Zero values fall through to the
// built-in defaults.
type Defaults struct {
	Format   string   `yaml:"format,omitempty"`    // csv, json, yaml
	Workers  int      `yaml:"workers,omitempty"`   // concurrent metadata fetches
	MaxDepth int      `yaml:"max_depth,omitempty"` // walker depth guard
	OnError  string   `yaml:"on_error,omitempty"`  // abort, skip
	Retries  int      `yaml:"retries,omitempty"`   // per-leaf transient retries
	Columns  []string `yaml:"columns,omitempty"`   // CSV header

	HTTPRetries int `yaml:"http_retries,omitempty"` // transport retries for 429 and 5xx
}

// File represents the configuration file (~/.geowalk.yaml)
type File struct {
	CurrentContext string              `yaml:"current_context,omitempty"`
	Contexts       map[string]*Context `yaml:"contexts,omitempty"`
	Defaults       *Defaults           `yaml:"defaults,omitempty"`
}

// GetConfigPath returns the config file path (~/.geowalk.yaml)
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".geowalk.yaml"
	}
	return filepath.Join(home, ".geowalk.yaml")
}

// LoadFile loads the configuration from ~/.geowalk.yaml
func LoadFile() (*File, error) {
	configPath := GetConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return &File{
				Contexts: make(map[string]*Context),
				Defaults: &Defaults{},
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	// Initialize maps if nil
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	if cfg.Defaults == nil {
		cfg.Defaults = &Defaults{}
	}

	return &cfg, nil
}

// SaveFile saves the configuration to ~/.geowalk.yaml
func SaveFile(cfg *File) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := GetConfigPath()
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetCurrentContext returns the current active context
func GetCurrentContext() (*Context, string, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, "", err
	}

	return cfg.Resolve("")
}

// Resolve returns the named context, or the current one when name is empty.
// A nil context with no error means nothing is selected.
func (f *File) Resolve(name string) (*Context, string, error) {
	if name == "" {
		name = f.CurrentContext
	}
	if name == "" {
		return nil, "", nil
	}

	ctx, ok := f.Contexts[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrContextNotFound, name)
	}

	return ctx, name, nil
}

// SetCurrentContext sets the current active context
func SetCurrentContext(name string) error {
	cfg, err := LoadFile()
	if err != nil {
		return err
	}

	// Validate context exists
	if _, ok := cfg.Contexts[name]; !ok {
		return fmt.Errorf("%w: %q", ErrContextNotFound, name)
	}

	cfg.CurrentContext = name
	return SaveFile(cfg)
}

// AddContext adds or updates a context
func AddContext(name string, ctx *Context) error {
	if err := ctx.Validate(); err != nil {
		return err
	}

	cfg, err := LoadFile()
	if err != nil {
		return err
	}

	cfg.Contexts[name] = ctx
	return SaveFile(cfg)
}

// DeleteContext removes a context
func DeleteContext(name string) error {
	cfg, err := LoadFile()
	if err != nil {
		return err
	}

	if _, ok := cfg.Contexts[name]; !ok {
		return fmt.Errorf("%w: %q", ErrContextNotFound, name)
	}
	delete(cfg.Contexts, name)

	// Clear current context if it was the deleted one
	if cfg.CurrentContext == name {
		cfg.CurrentContext = ""
	}

	return SaveFile(cfg)
}

// ListContexts returns all configured contexts
func ListContexts() (map[string]*Context, string, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, "", err
	}

	return cfg.Contexts, cfg.CurrentContext, nil
}

// SortedContextNames returns context names in a stable order
func SortedContextNames(contexts map[string]*Context) []string {
	names := make([]string, 0, len(contexts))
	for name := range contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseContextName parses a context name like "gcp:prod" into provider and name
func ParseContextName(name string) (provider, contextName string) {
	parts := strings.SplitN(name, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", name
}
