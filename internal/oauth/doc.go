// Package oauth implements the authorization-code-with-PKCE session manager
// behind authdeck logins.
//
// A login flow runs through a single Manager:
//
//	Prepare  - binds the provider's fixed loopback port, generates the
//	           PKCE verifier and CSRF state, stores the session in the
//	           single-slot SessionStore, starts the callback listener and
//	           returns the authorization URL for the browser.
//	Complete - waits for the authorization code delivered by the listener,
//	           exchanges it at the token endpoint and clears the session.
//	Cancel   - clears the session and wakes a parked listener through its
//	           own /cancel endpoint. Idempotent.
//
// Only one flow can be in progress per process: a second Prepare replaces
// the session slot and the superseded listener exits on its next poll.
//
// RefreshIfNeeded is the entry point for collaborators holding a stored
// credential: it checks the access token's exp claim (unverified, with a
// 60-second margin, fail-closed) and performs a refresh_token grant when
// needed, carrying the previous refresh token forward if the provider does
// not rotate it.
package oauth
