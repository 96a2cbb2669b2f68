package oauth

import (
	"fmt"
	"net/url"
)

const (
	// CallbackPath is the local redirect path registered with the provider.
	CallbackPath = "/auth/callback"

	// CancelPath ends a pending listener when requested over loopback.
	CancelPath = "/cancel"

	// DefaultCallbackPort is the well-known port for the loopback redirect.
	// It must stay fixed: the redirect URI embedded in the authorization
	// URL has to match what the provider has registered.
	DefaultCallbackPort = 1455
)

// Provider describes one identity provider's authorization-code dialect:
// the static configuration a session needs besides its own secrets.
type Provider struct {
	// ClientID is the public OAuth client identifier.
	ClientID string

	// AuthorizeEndpoint is the browser-facing authorization URL.
	AuthorizeEndpoint string

	// TokenEndpoint receives the code and refresh_token exchanges.
	TokenEndpoint string

	// Scopes are space-joined into the authorization request.
	Scopes []string

	// CallbackPort is the loopback port for the redirect. Zero means
	// DefaultCallbackPort.
	CallbackPort int

	// ExtraAuthParams carries provider-specific authorization query
	// parameters (simplified-flow flags, originator tags and the like).
	ExtraAuthParams url.Values
}

// Port returns the effective callback port.
func (p Provider) Port() int {
	if p.CallbackPort == 0 {
		return DefaultCallbackPort
	}
	return p.CallbackPort
}

// RedirectURI returns the redirect URI for the given port. The host is
// "localhost" because that is what providers register for loopback flows.
func (p Provider) RedirectURI(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, CallbackPath)
}

// DefaultProvider returns the Codex identity provider configuration,
// matching what the Codex CLI itself sends.
func DefaultProvider() Provider {
	return Provider{
		ClientID:          "app_EMoamEEZ73f0CkXaXp7hrann",
		AuthorizeEndpoint: "https://auth.openai.com/oauth/authorize",
		TokenEndpoint:     "https://auth.openai.com/oauth/token",
		Scopes:            []string{"openid", "profile", "email", "offline_access"},
		CallbackPort:      DefaultCallbackPort,
		ExtraAuthParams: url.Values{
			"id_token_add_organizations": {"true"},
			"codex_cli_simplified_flow":  {"true"},
			"originator":                 {"codex_vscode"},
		},
	}
}
