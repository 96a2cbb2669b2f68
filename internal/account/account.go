package account

import (
	"time"

	"golang.org/x/oauth2"

	"authdeck/internal/oauth"
)

// TokenData is the stored credential set of one account.
type TokenData struct {
	// IDToken is the OIDC identity token the account was created from.
	IDToken string `json:"id_token"`

	// AccessToken is the bearer token for API calls.
	AccessToken string `json:"access_token"`

	// RefreshToken renews the access token. Always present for stored
	// accounts; login fails rather than storing an unrefreshable account.
	RefreshToken string `json:"refresh_token"`

	// Expiry is the access token expiry, extracted from its exp claim.
	// Zero when the claim could not be read.
	Expiry time.Time `json:"expiry,omitempty"`
}

// TokenDataFromRecord converts an exchange result into storable token data.
func TokenDataFromRecord(record *oauth.TokenRecord) TokenData {
	data := TokenData{
		IDToken:      record.IDToken,
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
	}
	if expiry, ok := oauth.ExpiryTime(record.AccessToken); ok {
		data.Expiry = expiry
	}
	return data
}

// Record converts the stored data back into the exchange representation,
// for feeding into a refresh.
func (t TokenData) Record() *oauth.TokenRecord {
	return &oauth.TokenRecord{
		IDToken:      t.IDToken,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
}

// OAuth2Token converts the stored data into the standard oauth2 form, with
// the ID token attached as extra data.
func (t TokenData) OAuth2Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       t.Expiry,
	}
	if t.IDToken != "" {
		token = token.WithExtra(map[string]interface{}{
			"id_token": t.IDToken,
		})
	}
	return token
}

// Expired reports whether the stored access token needs a refresh.
func (t TokenData) Expired() bool {
	return oauth.IsExpired(t.AccessToken)
}

// Account is one authenticated identity with its credentials and metadata.
type Account struct {
	// ID is a locally generated UUID, stable across token refreshes.
	ID string `json:"id"`

	// Email identifies the account; upserts deduplicate on it.
	Email string `json:"email"`

	// Name is the display name from the ID token, if any.
	Name string `json:"name,omitempty"`

	// ProviderAccountID is the provider-side account identifier extracted
	// from the access token's namespaced auth claim. Empty when the
	// provider omits it.
	ProviderAccountID string `json:"provider_account_id,omitempty"`

	// Tokens holds the account's credentials.
	Tokens TokenData `json:"tokens"`

	// Quota is the last fetched usage snapshot, if any.
	Quota *Quota `json:"quota,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the name when present and the email otherwise.
func (a *Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}
