// Package account persists authenticated provider accounts and drives the
// login lifecycle around them.
//
// The package is split into a few cooperating pieces:
//   - Account and TokenData model one stored identity with its credentials
//   - Store persists accounts as JSON files under a private directory
//   - Service orchestrates login, refresh and logout on top of the OAuth
//     session manager
//   - Watcher observes the storage directory for out-of-process changes
//
// Token values are never logged; log lines carry emails and account IDs
// only.
package account
