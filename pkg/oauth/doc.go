// Package oauth provides the protocol-level OAuth 2.1 primitives shared
// across authdeck: cryptographically random token generation for state and
// code_verifier parameters, and PKCE S256 challenge derivation.
//
// Everything in this package is pure and stateless; the session machinery
// that consumes these primitives lives in internal/oauth.
package oauth
