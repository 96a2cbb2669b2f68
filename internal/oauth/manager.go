package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	pkgoauth "authdeck/pkg/oauth"
)

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	// Provider is the identity provider to authenticate against.
	// Zero value means DefaultProvider.
	Provider Provider

	// HTTPClient is an optional custom client for token endpoint calls.
	HTTPClient *http.Client

	// Notifier receives best-effort listener notifications. Nil means none.
	Notifier Notifier

	// ListenTimeout overrides CallbackTimeout. Zero means the default.
	ListenTimeout time.Duration

	// PollInterval overrides the listener poll interval. Zero means the
	// default.
	PollInterval time.Duration
}

// Manager sequences one authorization flow at a time:
// Prepare, then Complete (or Cancel), plus RefreshIfNeeded for stored
// credentials. Safe for concurrent use; concurrent Prepare calls race on
// the single session slot and the later one wins.
type Manager struct {
	mu        sync.Mutex
	provider  Provider
	store     *SessionStore
	exchanger *Exchanger
	notifier  Notifier
	timeout   time.Duration
	poll      time.Duration
	waitCh    <-chan string
}

// NewManager creates a session manager with its own empty session store.
func NewManager(cfg ManagerConfig) *Manager {
	provider := cfg.Provider
	if provider.ClientID == "" {
		provider = DefaultProvider()
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	timeout := cfg.ListenTimeout
	if timeout == 0 {
		timeout = CallbackTimeout
	}

	poll := cfg.PollInterval
	if poll == 0 {
		poll = defaultPollInterval
	}

	return &Manager{
		provider:  provider,
		store:     NewSessionStore(),
		exchanger: NewExchanger(provider, cfg.HTTPClient),
		notifier:  notifier,
		timeout:   timeout,
		poll:      poll,
	}
}

// Store exposes the session store, mainly for tests and status inspection.
func (m *Manager) Store() *SessionStore {
	return m.store
}

// Prepare starts a new authorization flow: it binds the callback port,
// generates the session secrets, stores the session, launches the listener
// and returns the authorization URL to open in a browser.
//
// A still-pending previous flow is implicitly replaced; its listener exits
// on its next poll.
func (m *Manager) Prepare(ctx context.Context) (string, error) {
	port := m.provider.Port()

	ln, err := bindCallbackPort(port)
	if err != nil {
		var inUse *PortInUseError
		if !errors.As(err, &inUse) {
			return "", err
		}
		// The port may be held by our own superseded listener. Clear the
		// slot so it exits on its next poll, then retry within the poll
		// bound. A port held by anything else stays a PortInUseError.
		if _, ok := m.store.Current(); !ok {
			return "", err
		}
		m.store.Clear()
		ln, err = m.rebind(ctx, port)
		if err != nil {
			return "", err
		}
	}

	verifier, err := pkgoauth.GenerateToken()
	if err != nil {
		ln.Close()
		return "", err
	}

	state, err := pkgoauth.GenerateState()
	if err != nil {
		ln.Close()
		return "", err
	}

	challenge := pkgoauth.DeriveChallenge(verifier)

	waitCh := m.store.Begin(verifier, state, port)

	m.mu.Lock()
	m.waitCh = waitCh
	m.mu.Unlock()

	listener := &CallbackListener{
		ln:       ln,
		store:    m.store,
		state:    state,
		notifier: m.notifier,
		timeout:  m.timeout,
		poll:     m.poll,
	}
	go listener.Run()

	authURL := m.buildAuthorizationURL(state, challenge, m.provider.RedirectURI(port))
	slog.Debug("authorization URL prepared", "port", port)
	return authURL, nil
}

// rebind retries binding the callback port while the superseded listener
// releases it. The wait is bounded by a handful of poll intervals; past
// that, whatever holds the port is not ours.
func (m *Manager) rebind(ctx context.Context, port int) (*net.TCPListener, error) {
	deadline := time.Now().Add(10 * m.poll)
	for {
		ln, err := bindCallbackPort(port)
		if err == nil {
			return ln, nil
		}

		var inUse *PortInUseError
		if !errors.As(err, &inUse) || time.Now().After(deadline) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.poll):
		}
	}
}

// Complete waits for the authorization code and exchanges it for tokens.
// On success the session slot is cleared. A rejected exchange leaves the
// session in place so the caller can retry with a fresh Prepare.
func (m *Manager) Complete(ctx context.Context) (*TokenRecord, error) {
	m.mu.Lock()
	waitCh := m.waitCh
	m.mu.Unlock()

	view, ok := m.store.Current()
	if waitCh == nil || !ok {
		return nil, ErrNoSession
	}

	var code string
	select {
	case code = <-waitCh:
	case <-time.After(m.timeout + m.poll):
		return nil, ErrListenerTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	record, err := m.exchanger.ExchangeCode(ctx, code, view.CodeVerifier, m.provider.RedirectURI(view.Port))
	if err != nil {
		return nil, err
	}

	m.store.Clear()
	m.mu.Lock()
	m.waitCh = nil
	m.mu.Unlock()

	slog.Debug("authorization flow completed")
	return record, nil
}

// Cancel aborts any pending flow: it clears the session slot and wakes a
// parked listener through its own cancel endpoint. Cancelling when no flow
// is active is a no-op.
func (m *Manager) Cancel() {
	port := m.provider.Port()
	if view, ok := m.store.Current(); ok {
		port = view.Port
	}

	m.store.Clear()
	m.mu.Lock()
	m.waitCh = nil
	m.mu.Unlock()

	wakeListener(port)
	slog.Debug("authorization flow cancelled", "port", port)
}

// RefreshIfNeeded returns the record unchanged while its access token is
// still valid, and otherwise performs a refresh exchange. When the
// provider omits a new refresh token, the previous one is carried forward:
// some providers never rotate refresh tokens and omission does not mean
// revocation.
func (m *Manager) RefreshIfNeeded(ctx context.Context, record *TokenRecord) (*TokenRecord, error) {
	if !IsExpired(record.AccessToken) {
		return record, nil
	}

	if record.RefreshToken == "" {
		return nil, &MissingRefreshTokenError{}
	}

	fresh, err := m.exchanger.Refresh(ctx, record.RefreshToken)
	if err != nil {
		return nil, err
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = record.RefreshToken
	}
	return fresh, nil
}

// buildAuthorizationURL constructs the browser-facing authorization URL
// from the session secrets and the provider's static configuration.
func (m *Manager) buildAuthorizationURL(state, challenge, redirectURI string) string {
	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {m.provider.ClientID},
		"redirect_uri":          {redirectURI},
		"scope":                 {strings.Join(m.provider.Scopes, " ")},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
		"state":                 {state},
	}
	for key, values := range m.provider.ExtraAuthParams {
		for _, v := range values {
			params.Add(key, v)
		}
	}

	return fmt.Sprintf("%s?%s", m.provider.AuthorizeEndpoint, params.Encode())
}
