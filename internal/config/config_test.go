package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	// A missing default-location file falls back to defaults, but an
	// explicitly named missing file is an error.
	_, err := Load(path)
	require.Error(t, err)

	cfg := Default()
	assert.NotEmpty(t, cfg.Provider.ClientID)
	assert.NotEmpty(t, cfg.Provider.AuthorizeEndpoint)
	assert.NotEmpty(t, cfg.Provider.TokenEndpoint)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
provider:
  clientID: custom-client
  authorizeEndpoint: https://idp.example/authorize
  tokenEndpoint: https://idp.example/token
  scopes: [openid, email]
  callbackPort: 9120
storageDir: /tmp/accounts
logLevel: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom-client", cfg.Provider.ClientID)
	assert.Equal(t, 9120, cfg.Provider.CallbackPort)
	assert.Equal(t, []string{"openid", "email"}, cfg.Provider.Scopes)
	assert.Equal(t, "/tmp/accounts", cfg.StorageDir)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
provider:
  clientID: from-file
  callbackPort: 9120
`)

	t.Setenv("AUTHDECK_PROVIDER_CLIENT_ID", "from-env")
	t.Setenv("AUTHDECK_PROVIDER_CALLBACK_PORT", "9230")
	t.Setenv("AUTHDECK_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Provider.ClientID)
	assert.Equal(t, 9230, cfg.Provider.CallbackPort)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "provider: [not, a, mapping")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty client ID", func(c *Config) { c.Provider.ClientID = "" }},
		{"empty token endpoint", func(c *Config) { c.Provider.TokenEndpoint = "" }},
		{"port out of range", func(c *Config) { c.Provider.CallbackPort = 70000 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOAuthProvider(t *testing.T) {
	cfg := Default()
	cfg.Provider.ClientID = "client-x"
	cfg.Provider.CallbackPort = 9001
	cfg.Provider.ExtraAuthParams = map[string]string{"prompt": "login"}

	provider := cfg.OAuthProvider()
	assert.Equal(t, "client-x", provider.ClientID)
	assert.Equal(t, 9001, provider.Port())
	assert.Equal(t, "login", provider.ExtraAuthParams.Get("prompt"))
}
