package account

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authdeck/internal/oauth"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

type stubManager struct {
	prepareURL  string
	prepareErr  error
	record      *oauth.TokenRecord
	completeErr error
	refreshed   *oauth.TokenRecord
	refreshErr  error
	cancels     atomic.Int32
	refreshes   atomic.Int32
}

func (m *stubManager) Prepare(context.Context) (string, error) {
	return m.prepareURL, m.prepareErr
}

func (m *stubManager) Complete(context.Context) (*oauth.TokenRecord, error) {
	return m.record, m.completeErr
}

func (m *stubManager) Cancel() {
	m.cancels.Add(1)
}

func (m *stubManager) RefreshIfNeeded(_ context.Context, record *oauth.TokenRecord) (*oauth.TokenRecord, error) {
	m.refreshes.Add(1)
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	if m.refreshed != nil {
		return m.refreshed, nil
	}
	return record, nil
}

type stubQuotaFetcher struct {
	quota *Quota
	err   error
	calls int
}

func (f *stubQuotaFetcher) FetchQuota(context.Context, string, string) (*Quota, error) {
	f.calls++
	return f.quota, f.err
}

func loginRecord(t *testing.T, email string) *oauth.TokenRecord {
	t.Helper()

	idToken := signedToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": email,
		"name":  "Test User",
	})
	// The provider puts the account metadata on the access token, not the
	// ID token.
	accessToken := signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
		"https://api.openai.com/auth": map[string]any{
			"chatgpt_account_id": "acct-1",
		},
	})
	return &oauth.TokenRecord{
		IDToken:      idToken,
		AccessToken:  accessToken,
		RefreshToken: "rt-1",
	}
}

func TestService_Login(t *testing.T) {
	store := newTestStore(t)
	manager := &stubManager{
		prepareURL: "https://provider.example/authorize?state=s",
		record:     loginRecord(t, "dev@example.com"),
	}
	quota := &stubQuotaFetcher{quota: &Quota{PlanType: "plus", UsedPercent: 12.5}}

	var openedURL string
	var changes int

	svc := NewService(ServiceConfig{
		Manager: manager,
		Store:   store,
		Quota:   quota,
		OpenBrowser: func(url string) error {
			openedURL = url
			return nil
		},
		OnChange: func() { changes++ },
	})

	acct, err := svc.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, manager.prepareURL, openedURL)
	assert.Equal(t, "dev@example.com", acct.Email)
	assert.Equal(t, "Test User", acct.Name)
	assert.Equal(t, "acct-1", acct.ProviderAccountID)
	assert.Equal(t, "rt-1", acct.Tokens.RefreshToken)
	assert.False(t, acct.Tokens.Expiry.IsZero(), "expiry must be extracted from the access token")

	require.NotNil(t, acct.Quota)
	assert.Equal(t, "plus", acct.Quota.PlanType)
	assert.Equal(t, 1, quota.calls)
	assert.Equal(t, 1, changes)

	stored, err := store.FindByEmail("dev@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, acct.ID, stored.ID)
}

func TestService_LoginReadsAccountIDFromAccessToken(t *testing.T) {
	store := newTestStore(t)

	// Only the access token carries the namespaced auth claim; the ID
	// token never does with real token pairs.
	record := &oauth.TokenRecord{
		IDToken: signedToken(t, jwt.MapClaims{"email": "dev@example.com"}),
		AccessToken: signedToken(t, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
			"https://api.openai.com/auth": map[string]any{
				"chatgpt_account_id": "acct-real",
			},
		}),
		RefreshToken: "rt-1",
	}

	svc := NewService(ServiceConfig{
		Manager:     &stubManager{prepareURL: "https://p.example/a", record: record},
		Store:       store,
		OpenBrowser: func(string) error { return nil },
	})

	acct, err := svc.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acct-real", acct.ProviderAccountID)
}

func TestService_LoginBrowserFailureIsNotFatal(t *testing.T) {
	store := newTestStore(t)
	manager := &stubManager{
		prepareURL: "https://provider.example/authorize",
		record:     loginRecord(t, "dev@example.com"),
	}

	svc := NewService(ServiceConfig{
		Manager:     manager,
		Store:       store,
		OpenBrowser: func(string) error { return errors.New("no display") },
	})

	_, err := svc.Login(context.Background())
	assert.NoError(t, err, "login must survive a browser that cannot open")
}

func TestService_LoginRejectsMissingRefreshToken(t *testing.T) {
	store := newTestStore(t)
	record := loginRecord(t, "dev@example.com")
	record.RefreshToken = ""

	svc := NewService(ServiceConfig{
		Manager:     &stubManager{prepareURL: "https://p.example/a", record: record},
		Store:       store,
		OpenBrowser: func(string) error { return nil },
	})

	_, err := svc.Login(context.Background())

	var missing *oauth.MissingRefreshTokenError
	require.ErrorAs(t, err, &missing)

	accounts, listErr := store.List()
	require.NoError(t, listErr)
	assert.Empty(t, accounts, "nothing must be stored when the refresh token is missing")
}

func TestService_LoginQuotaFailureIsNotFatal(t *testing.T) {
	store := newTestStore(t)
	quota := &stubQuotaFetcher{err: errors.New("quota endpoint down")}

	svc := NewService(ServiceConfig{
		Manager:     &stubManager{prepareURL: "https://p.example/a", record: loginRecord(t, "dev@example.com")},
		Store:       store,
		Quota:       quota,
		OpenBrowser: func(string) error { return nil },
	})

	acct, err := svc.Login(context.Background())
	require.NoError(t, err)
	assert.Nil(t, acct.Quota)
	assert.Equal(t, quotaRetryAttempts, quota.calls)
}

func TestService_RefreshSkipsValidTokens(t *testing.T) {
	store := newTestStore(t)
	manager := &stubManager{}

	valid := testAccount("dev@example.com")
	valid.Tokens.AccessToken = signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	stored, err := store.Upsert(valid)
	require.NoError(t, err)

	svc := NewService(ServiceConfig{Manager: manager, Store: store})

	_, err = svc.Refresh(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Zero(t, manager.refreshes.Load(), "a valid token must not trigger a refresh")
}

func TestService_RefreshRenewsExpiredTokens(t *testing.T) {
	store := newTestStore(t)

	newAccess := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	manager := &stubManager{
		refreshed: &oauth.TokenRecord{
			IDToken:      "id-new",
			AccessToken:  newAccess,
			RefreshToken: "rt-new",
		},
	}

	expired := testAccount("dev@example.com")
	expired.Tokens.AccessToken = signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	stored, err := store.Upsert(expired)
	require.NoError(t, err)

	svc := NewService(ServiceConfig{Manager: manager, Store: store})

	acct, err := svc.Refresh(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), manager.refreshes.Load())
	assert.Equal(t, newAccess, acct.Tokens.AccessToken)
	assert.Equal(t, "rt-new", acct.Tokens.RefreshToken)

	reloaded, err := store.Get(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, newAccess, reloaded.Tokens.AccessToken, "refresh result must be persisted")
}

func TestService_RefreshAll(t *testing.T) {
	store := newTestStore(t)
	manager := &stubManager{
		refreshed: &oauth.TokenRecord{
			IDToken:      "id-new",
			AccessToken:  signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
			RefreshToken: "rt-new",
		},
	}

	for _, email := range []string{"a@example.com", "b@example.com"} {
		acct := testAccount(email)
		acct.Tokens.AccessToken = signedToken(t, jwt.MapClaims{
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		_, err := store.Upsert(acct)
		require.NoError(t, err)
	}

	svc := NewService(ServiceConfig{Manager: manager, Store: store})

	require.NoError(t, svc.RefreshAll(context.Background()))
	assert.Equal(t, int32(2), manager.refreshes.Load())
}

func TestService_Logout(t *testing.T) {
	store := newTestStore(t)
	var changes int

	stored, err := store.Upsert(testAccount("dev@example.com"))
	require.NoError(t, err)

	svc := NewService(ServiceConfig{
		Manager:  &stubManager{},
		Store:    store,
		OnChange: func() { changes++ },
	})

	require.NoError(t, svc.Logout(stored.ID))
	assert.Equal(t, 1, changes)

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestService_CancelLogin(t *testing.T) {
	manager := &stubManager{}
	svc := NewService(ServiceConfig{Manager: manager, Store: newTestStore(t)})

	svc.CancelLogin()
	svc.CancelLogin()
	assert.Equal(t, int32(2), manager.cancels.Load())
}
