// Package auth holds the shared authentication status types emitted by the
// status command and consumed by scripting around it.
package auth
