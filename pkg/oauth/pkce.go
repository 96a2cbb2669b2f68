package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the number of random bytes behind every generated secret.
// 32 bytes encodes to 43 base64url characters, which satisfies both the
// OAuth 2.1 code_verifier minimum (43) and servers that require state
// parameters of at least 32 characters.
const tokenBytes = 32

// PKCEChallenge represents a PKCE (Proof Key for Code Exchange) challenge.
// PKCE binds the authorization request to a secret known only to this
// client, preventing authorization code interception.
type PKCEChallenge struct {
	// CodeVerifier is the random secret. It is kept local and only sent
	// in the token exchange request, never through the browser.
	CodeVerifier string

	// CodeChallenge is the S256 hash of the verifier, base64url-encoded.
	// This is what the authorization request carries.
	CodeChallenge string

	// CodeChallengeMethod is always "S256"; plain is not allowed in OAuth 2.1.
	CodeChallengeMethod string
}

// GenerateToken generates a cryptographically random, URL-safe token:
// 32 random bytes, base64url-encoded without padding. It is used for both
// the state parameter and the PKCE code verifier.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// DeriveChallenge derives the PKCE S256 code challenge from a verifier:
// SHA-256 of the verifier's bytes, base64url-encoded without padding.
// Deterministic, no failure modes.
func DeriveChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// GeneratePKCE generates a fresh code verifier and its S256 challenge,
// ready for use in an authorization request.
func GeneratePKCE() (*PKCEChallenge, error) {
	verifier, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	return &PKCEChallenge{
		CodeVerifier:        verifier,
		CodeChallenge:       DeriveChallenge(verifier),
		CodeChallengeMethod: "S256",
	}, nil
}

// GenerateState generates a random state parameter. The state is
// round-tripped through the authorization redirect to prevent CSRF attacks
// against the callback endpoint.
func GenerateState() (string, error) {
	return GenerateToken()
}
