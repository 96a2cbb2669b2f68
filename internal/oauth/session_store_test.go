package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SingleSlot(t *testing.T) {
	store := NewSessionStore()

	_, ok := store.Current()
	assert.False(t, ok, "empty store should have no current session")

	store.Begin("verifier-1", "state-1", 1455)
	store.Begin("verifier-2", "state-2", 1455)

	view, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "verifier-2", view.CodeVerifier, "second Begin must win the slot")
	assert.Equal(t, "state-2", view.State)
	assert.Equal(t, 1455, view.Port)

	assert.False(t, store.Matches("state-1"), "replaced session must no longer match")
	assert.True(t, store.Matches("state-2"))
}

func TestSessionStore_TakeSenderOnce(t *testing.T) {
	store := NewSessionStore()
	recv := store.Begin("verifier", "state", 1455)

	sender, ok := store.TakeSender("state")
	require.True(t, ok, "first take must succeed")

	_, ok = store.TakeSender("state")
	assert.False(t, ok, "second take must fail")

	sender <- "CODE"
	assert.Equal(t, "CODE", <-recv)
}

func TestSessionStore_TakeSenderStateMismatch(t *testing.T) {
	store := NewSessionStore()
	store.Begin("verifier", "state", 1455)

	_, ok := store.TakeSender("other-state")
	assert.False(t, ok, "taking with a stale state must fail")

	// The matching state must still be takeable afterwards.
	_, ok = store.TakeSender("state")
	assert.True(t, ok)
}

func TestSessionStore_Clear(t *testing.T) {
	store := NewSessionStore()
	store.Begin("verifier", "state", 1455)

	store.Clear()

	_, ok := store.Current()
	assert.False(t, ok)
	assert.False(t, store.Matches("state"))

	_, ok = store.TakeSender("state")
	assert.False(t, ok)
}

func TestSessionStore_ClearIf(t *testing.T) {
	store := NewSessionStore()
	store.Begin("verifier-1", "state-1", 1455)

	// A stale listener's timeout must not wipe a newer session.
	store.Begin("verifier-2", "state-2", 1455)
	store.ClearIf("state-1")

	view, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "state-2", view.State)

	store.ClearIf("state-2")
	_, ok = store.Current()
	assert.False(t, ok)
}
