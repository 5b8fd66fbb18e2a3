package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".rushdb"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Environment variables that override the selected context.
const (
	EnvAPIKey  = "RUSHDB_API_KEY"
	EnvBaseURL = "RUSHDB_BASE_URL"
	EnvTimeout = "RUSHDB_TIMEOUT"
)

// Config holds the named server contexts of the CLI.
type Config struct {
	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is one RushDB deployment with its credential.
type Context struct {
	Name string `yaml:"name"`

	// APIKey is the bearer token, sent unchanged.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL is the API base URL including the version segment (optional)
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout is the request timeout in seconds (optional)
	Timeout int `yaml:"timeout,omitempty"`

	// StrictFind makes record searches fail loudly instead of printing an
	// empty result.
	StrictFind bool `yaml:"strict_find,omitempty"`

	// Extra stores free-form settings such as default labels.
	Extra map[string]string `yaml:"extra,omitempty"`
}

// DefaultConfigPath returns ~/.rushdb/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// LoadConfig loads or creates the configuration at path. An empty path uses
// DefaultConfigPath.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		Contexts:   make(map[string]*Context),
		configPath: path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		if ctx == nil {
			ctx = &Context{}
			cfg.Contexts[name] = ctx
		}
		ctx.Name = name
	}
	cfg.configPath = path

	return cfg, nil
}

// Save writes the configuration with owner-only permissions.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext adds or replaces a context. The first context added becomes
// the current one.
func (c *Config) AddContext(name string, ctx *Context) error {
	if name == "" {
		return fmt.Errorf("context name is required")
	}
	ctx.Name = name
	c.Contexts[name] = ctx
	if c.CurrentContext == "" {
		c.CurrentContext = name
	}
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ResolveContext returns the named context, or the current context if name
// is empty. Environment overrides are applied to a copy; with no context
// configured at all, a context built only from the environment is returned
// when RUSHDB_API_KEY is set.
func (c *Config) ResolveContext(name string) (*Context, error) {
	return c.resolve(name, os.Getenv)
}

func (c *Config) resolve(name string, getenv func(string) string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}

	var ctx Context
	switch {
	case name != "":
		found, err := c.GetContext(name)
		if err != nil {
			return nil, err
		}
		ctx = *found
	case getenv(EnvAPIKey) == "":
		return nil, fmt.Errorf("no current context set; run 'rushdb config add-context' or set %s", EnvAPIKey)
	default:
		ctx.Name = "env"
	}

	if err := ctx.applyEnv(getenv); err != nil {
		return nil, err
	}
	return &ctx, nil
}

func (ctx *Context) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvAPIKey); v != "" {
		ctx.APIKey = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		ctx.BaseURL = v
	}
	if v := getenv(EnvTimeout); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: invalid timeout %q", EnvTimeout, v)
		}
		ctx.Timeout = n
	}
	return nil
}

// ListContexts returns all context names, sorted.
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TimeoutDuration returns the timeout, or zero for the client default.
func (ctx *Context) TimeoutDuration() time.Duration {
	return time.Duration(ctx.Timeout) * time.Second
}

// GetExtra returns an extra value for the context
func (ctx *Context) GetExtra(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// SetExtra sets an extra value for the context
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// Masked returns a copy of ctx safe to print.
func (ctx *Context) Masked() *Context {
	m := *ctx
	m.APIKey = MaskAPIKey(ctx.APIKey)
	return &m
}

// MaskAPIKey masks the API key for display
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
