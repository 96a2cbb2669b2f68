package oauth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// authClaimKey is the namespaced claim under which the provider tucks its
// account metadata into the access token.
const authClaimKey = "https://api.openai.com/auth"

// DecodeClaims decodes a JWT's payload without verifying the signature.
// Suitable for reading claims out of tokens this client received over TLS
// from the provider itself; never suitable for authenticating anything.
func DecodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Identity is the user identity carried in an ID token.
type Identity struct {
	// Subject is the provider's stable user identifier (the sub claim).
	Subject string

	// Email identifies the account; logins are keyed by it.
	Email string

	// Name is the optional display name.
	Name string
}

// DisplayName returns the name claim, falling back to the email.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// IdentityFromIDToken reads the subject identity out of an ID token.
// An email claim is required; accounts are keyed by it.
func IdentityFromIDToken(idToken string) (Identity, error) {
	claims, err := DecodeClaims(idToken)
	if err != nil {
		return Identity{}, err
	}

	identity := Identity{}
	if sub, ok := claims["sub"].(string); ok {
		identity.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}

	if identity.Email == "" {
		return Identity{}, errors.New("id_token carries no email claim")
	}
	return identity, nil
}

// ProviderAccountID extracts the provider-side account identifier from an
// access token's namespaced auth claim. Returns "" when absent; callers
// treat that as "unknown", not as an error.
func ProviderAccountID(accessToken string) string {
	claims, err := DecodeClaims(accessToken)
	if err != nil {
		return ""
	}

	auth, ok := claims[authClaimKey].(map[string]any)
	if !ok {
		return ""
	}

	if id, ok := auth["chatgpt_account_id"].(string); ok && id != "" {
		return id
	}
	if id, ok := auth["account_id"].(string); ok && id != "" {
		return id
	}
	return ""
}
