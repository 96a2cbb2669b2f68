package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHTTPTimeout is the default timeout for token endpoint requests.
const DefaultHTTPTimeout = 30 * time.Second

// TokenRecord is the normalized result of a successful code or refresh
// exchange. A refresh produces a fresh record; records are never mutated
// in place.
type TokenRecord struct {
	// IDToken is the OIDC ID token carrying the user's identity claims.
	IDToken string `json:"id_token"`

	// AccessToken is a JWT of three dot-separated base64url segments.
	AccessToken string `json:"access_token"`

	// RefreshToken is empty when the provider omitted one. Refresh never
	// fabricates a value here; the caller carries the previous token
	// forward (see Manager.RefreshIfNeeded).
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Exchanger performs the code-for-token and refresh exchanges against the
// provider's token endpoint.
type Exchanger struct {
	provider   Provider
	httpClient *http.Client
}

// NewExchanger creates an Exchanger for the given provider. A nil client
// gets a default one with DefaultHTTPTimeout.
func NewExchanger(provider Provider, httpClient *http.Client) *Exchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Exchanger{
		provider:   provider,
		httpClient: httpClient,
	}
}

// ExchangeCode redeems an authorization code, proving possession of the
// PKCE verifier that produced the challenge in the authorization request.
func (e *Exchanger) ExchangeCode(ctx context.Context, code, verifier, redirectURI string) (*TokenRecord, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {e.provider.ClientID},
		"code_verifier": {verifier},
	}

	slog.Debug("exchanging authorization code", "redirect_uri", redirectURI)
	return e.post(ctx, form)
}

// Refresh redeems a refresh token for a fresh TokenRecord. If the provider
// omits a new refresh token the returned record's RefreshToken is empty;
// it is the caller's job to reuse the previous one.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken string) (*TokenRecord, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {e.provider.ClientID},
	}

	slog.Debug("refreshing access token")
	return e.post(ctx, form)
}

// post sends one form-encoded request to the token endpoint and parses the
// response. Non-2xx responses surface status and body verbatim through
// ExchangeRejectedError so the caller can show provider diagnostics.
func (e *Exchanger) post(ctx context.Context, form url.Values) (*TokenRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.provider.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExchangeRejectedError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var record TokenRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTokenResponse, err)
	}

	if record.IDToken == "" || record.AccessToken == "" {
		return nil, ErrMalformedTokenResponse
	}

	return &record, nil
}
