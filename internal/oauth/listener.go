package oauth

import (
	"bufio"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// CallbackTimeout is how long a listener waits for the redirect before
// giving up.
const CallbackTimeout = 5 * time.Minute

// defaultPollInterval bounds how quickly a listener notices that its
// session was cancelled or replaced.
const defaultPollInterval = 100 * time.Millisecond

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

// Notifier receives best-effort notifications from the listener, meant for
// an outer UI layer. Implementations must not block.
type Notifier interface {
	// CallbackReceived fires when a valid redirect delivered a code.
	CallbackReceived()
}

type nopNotifier struct{}

func (nopNotifier) CallbackReceived() {}

// bindCallbackPort binds the loopback-only listener for the redirect.
// A port that is already taken is a *PortInUseError; the port cannot be
// substituted because the redirect URI is fixed.
func bindCallbackPort(port int) (*net.TCPListener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, &PortInUseError{Port: port}
		}
		return nil, fmt.Errorf("failed to bind callback port %d: %w", port, err)
	}
	return ln.(*net.TCPListener), nil
}

// CallbackListener waits on an already-bound loopback port for exactly one
// valid redirect, a cancel request, or a timeout. It polls with short
// accept deadlines so it can observe between iterations that its session
// was cancelled or replaced.
type CallbackListener struct {
	ln       *net.TCPListener
	store    *SessionStore
	state    string
	notifier Notifier
	timeout  time.Duration
	poll     time.Duration
}

// Run drives the accept loop until a code is delivered, the flow is
// cancelled, the session is superseded, or the timeout elapses. Transient
// accept and parse failures are logged and absorbed: the listener's job is
// to eventually obtain one valid code or expire, not to surface every
// anomaly.
func (l *CallbackListener) Run() {
	defer l.ln.Close()

	slog.Debug("callback listener started", "port", l.ln.Addr().(*net.TCPAddr).Port)

	deadline := time.Now().Add(l.timeout)
	for {
		if !l.store.Matches(l.state) {
			slog.Debug("callback listener superseded or cancelled, exiting")
			return
		}

		if time.Now().After(deadline) {
			slog.Warn("callback listener timed out waiting for redirect")
			l.store.ClearIf(l.state)
			return
		}

		if err := l.ln.SetDeadline(time.Now().Add(l.poll)); err != nil {
			slog.Debug("callback listener deadline error", "error", err.Error())
			return
		}

		conn, err := l.ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			slog.Debug("callback listener accept error", "error", err.Error())
			continue
		}

		done := l.handleConn(conn)
		_ = conn.Close()
		if done {
			return
		}
	}
}

// handleConn serves a single inbound connection. It returns true when the
// listener should stop (code delivered or flow cancelled).
func (l *CallbackListener) handleConn(conn net.Conn) bool {
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		slog.Debug("callback listener dropped malformed request", "error", err.Error())
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, req.Body)
		_ = req.Body.Close()
	}()

	switch req.URL.Path {
	case CallbackPath:
		return l.handleCallback(conn, req)

	case CancelPath:
		writeResponse(conn, http.StatusOK, "text/plain; charset=utf-8", "Login cancelled")
		l.store.ClearIf(l.state)
		slog.Debug("callback listener stopped by cancel request")
		return true

	default:
		writeResponse(conn, http.StatusNotFound, "text/plain; charset=utf-8", "Not Found")
		return false
	}
}

// handleCallback validates the redirect's state and, on match, delivers the
// authorization code through the session's one-shot completion channel.
// A mismatching state gets a 400 and the listener keeps waiting: an
// attacker probe or stale redirect must not abort a legitimate pending
// flow.
func (l *CallbackListener) handleCallback(conn net.Conn, req *http.Request) bool {
	query := req.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	if state != l.state {
		slog.Warn("state mismatch on authorization callback, ignoring request",
			"expected_state_len", len(l.state),
			"received_state_len", len(state),
		)
		writeResponse(conn, http.StatusBadRequest, "text/html; charset=utf-8", callbackErrorHTML)
		return false
	}

	writeResponse(conn, http.StatusOK, "text/html; charset=utf-8", callbackSuccessHTML)

	if sender, ok := l.store.TakeSender(l.state); ok {
		sender <- code
	}

	l.notifier.CallbackReceived()
	slog.Debug("authorization callback received")
	return true
}

// writeResponse writes a minimal HTTP/1.1 response to a raw connection.
// Write failures only mean the browser went away; they are logged and
// otherwise ignored.
func writeResponse(conn net.Conn, status int, contentType, body string) {
	resp := &http.Response{
		StatusCode:    status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": {contentType}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Close:         true,
	}
	if err := resp.Write(conn); err != nil {
		slog.Debug("callback listener response write failed", "error", err.Error())
	}
}

// wakeListener makes a loopback request to a listener's cancel endpoint so
// that a listener parked in Accept wakes up immediately instead of on its
// next poll. Best-effort: if nothing is listening the connection simply
// fails.
func wakeListener(port int) {
	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://127.0.0.1:%d%s", port, CancelPath), nil)
	if err != nil {
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
