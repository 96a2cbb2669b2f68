// Package config loads the tool configuration from an optional YAML file
// with environment variable overrides on top.
//
// Resolution order, later wins:
//  1. built-in defaults (the public identity provider)
//  2. the YAML config file
//  3. AUTHDECK_* environment variables
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"authdeck/internal/oauth"
)

// DefaultConfigPath is the default config file location, relative to the
// user's home directory. A missing file is not an error.
const DefaultConfigPath = ".config/authdeck/config.yaml"

// ProviderConfig describes the identity provider to authenticate against.
type ProviderConfig struct {
	// ClientID is the OAuth client identifier.
	ClientID string `yaml:"clientID" env:"CLIENT_ID"`

	// AuthorizeEndpoint is the browser-facing authorization URL.
	AuthorizeEndpoint string `yaml:"authorizeEndpoint" env:"AUTHORIZE_ENDPOINT"`

	// TokenEndpoint is the code and refresh exchange URL.
	TokenEndpoint string `yaml:"tokenEndpoint" env:"TOKEN_ENDPOINT"`

	// Scopes are the requested OAuth scopes.
	Scopes []string `yaml:"scopes" env:"SCOPES"`

	// CallbackPort is the loopback port for the redirect. The redirect URI
	// registered with the provider must match it.
	CallbackPort int `yaml:"callbackPort" env:"CALLBACK_PORT"`

	// ExtraAuthParams are additional query parameters appended to the
	// authorization URL.
	ExtraAuthParams map[string]string `yaml:"extraAuthParams"`

	// QuotaEndpoint is the usage API queried after login and refresh.
	// Empty disables quota fetching.
	QuotaEndpoint string `yaml:"quotaEndpoint" env:"QUOTA_ENDPOINT"`
}

// Config is the full tool configuration.
type Config struct {
	// Provider selects and parameterizes the identity provider.
	Provider ProviderConfig `yaml:"provider" envPrefix:"PROVIDER_"`

	// StorageDir overrides the account storage directory.
	StorageDir string `yaml:"storageDir" env:"STORAGE_DIR"`

	// SyncDir overrides the external auth.json directory.
	SyncDir string `yaml:"syncDir" env:"SYNC_DIR"`

	// LogLevel sets the log verbosity: debug, info, warn or error.
	LogLevel string `yaml:"logLevel" env:"LOG_LEVEL"`
}

// envPrefix namespaces all environment overrides.
const envPrefix = "AUTHDECK_"

// Default returns the built-in configuration.
func Default() *Config {
	provider := oauth.DefaultProvider()

	extra := make(map[string]string, len(provider.ExtraAuthParams))
	for key, values := range provider.ExtraAuthParams {
		if len(values) > 0 {
			extra[key] = values[0]
		}
	}

	return &Config{
		Provider: ProviderConfig{
			ClientID:          provider.ClientID,
			AuthorizeEndpoint: provider.AuthorizeEndpoint,
			TokenEndpoint:     provider.TokenEndpoint,
			Scopes:            provider.Scopes,
			CallbackPort:      provider.CallbackPort,
			ExtraAuthParams:   extra,
		},
		LogLevel: "info",
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (or DefaultConfigPath when path is empty), then environment
// overrides. A missing file is silently skipped; a malformed one is an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, DefaultConfigPath)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- config path is operator-chosen
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// No config file is fine; defaults apply.
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the rest of the tool cannot work with.
func (c *Config) Validate() error {
	if c.Provider.ClientID == "" {
		return fmt.Errorf("provider clientID must not be empty")
	}
	if c.Provider.AuthorizeEndpoint == "" || c.Provider.TokenEndpoint == "" {
		return fmt.Errorf("provider endpoints must not be empty")
	}
	if c.Provider.CallbackPort < 0 || c.Provider.CallbackPort > 65535 {
		return fmt.Errorf("callback port %d out of range", c.Provider.CallbackPort)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// OAuthProvider converts the configuration into the session manager's
// provider form.
func (c *Config) OAuthProvider() oauth.Provider {
	extra := url.Values{}
	for key, value := range c.Provider.ExtraAuthParams {
		extra.Set(key, value)
	}

	return oauth.Provider{
		ClientID:          c.Provider.ClientID,
		AuthorizeEndpoint: c.Provider.AuthorizeEndpoint,
		TokenEndpoint:     c.Provider.TokenEndpoint,
		Scopes:            c.Provider.Scopes,
		CallbackPort:      c.Provider.CallbackPort,
		ExtraAuthParams:   extra,
	}
}
