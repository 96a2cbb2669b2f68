package oauth

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned by Complete when no flow has been prepared.
var ErrNoSession = errors.New("no authorization flow in progress")

// ErrListenerTimeout is returned by Complete when the callback never
// arrived within the listener's lifetime.
var ErrListenerTimeout = errors.New("timed out waiting for the authorization callback")

// ErrMalformedTokenResponse is returned when the token endpoint answered
// 2xx but the body is missing id_token or access_token.
var ErrMalformedTokenResponse = errors.New("token response missing id_token or access_token")

// PortInUseError indicates the well-known callback port could not be bound.
// The port cannot be substituted: the redirect URI embedded in the
// authorization URL must match the one registered with the provider.
type PortInUseError struct {
	Port int
}

// Error implements the error interface with user-actionable guidance.
func (e *PortInUseError) Error() string {
	return fmt.Sprintf(
		"callback port %d is already in use.\n\n"+
			"Another login may be pending, or another application is bound to the port.\n"+
			"Finish or cancel the pending login, or stop the other application, then retry.",
		e.Port,
	)
}

// ExchangeRejectedError indicates the token endpoint answered non-2xx.
// Status and body are surfaced verbatim so callers can show the provider's
// own diagnostics.
type ExchangeRejectedError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *ExchangeRejectedError) Error() string {
	return fmt.Sprintf("token exchange rejected with status %d: %s", e.StatusCode, e.Body)
}

// MissingRefreshTokenError indicates a login completed without a refresh
// token. Providers omit it when consent was already granted, so the fix is
// on the provider side, not ours.
type MissingRefreshTokenError struct{}

// Error implements the error interface with the remediation steps.
func (e *MissingRefreshTokenError) Error() string {
	return "no refresh token was returned.\n\n" +
		"Likely cause: this application was already authorized for your account.\n\n" +
		"To fix:\n" +
		"  1. Open your provider's authorized-applications settings\n" +
		"  2. Revoke access for this application\n" +
		"  3. Sign in again"
}
