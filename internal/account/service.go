package account

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"authdeck/internal/oauth"
)

// SessionManager is the slice of the OAuth session manager the service
// needs. *oauth.Manager satisfies it.
type SessionManager interface {
	Prepare(ctx context.Context) (string, error)
	Complete(ctx context.Context) (*oauth.TokenRecord, error)
	Cancel()
	RefreshIfNeeded(ctx context.Context, record *oauth.TokenRecord) (*oauth.TokenRecord, error)
}

// ServiceConfig configures an account service.
type ServiceConfig struct {
	// Manager runs the authorization flows. Required.
	Manager SessionManager

	// Store persists the resulting accounts. Required.
	Store *Store

	// Quota fetches usage snapshots after login and refresh. Optional.
	Quota QuotaFetcher

	// OpenBrowser opens the authorization URL. Nil means the platform
	// default opener.
	OpenBrowser func(url string) error

	// OnChange fires after every mutation of the store. Optional.
	OnChange func()
}

// Service orchestrates the account lifecycle: interactive login, token
// refresh and logout.
type Service struct {
	manager     SessionManager
	store       *Store
	quota       QuotaFetcher
	openBrowser func(url string) error
	onChange    func()
}

// NewService creates an account service.
func NewService(cfg ServiceConfig) *Service {
	openBrowser := cfg.OpenBrowser
	if openBrowser == nil {
		openBrowser = oauth.OpenBrowser
	}

	return &Service{
		manager:     cfg.Manager,
		store:       cfg.Store,
		quota:       cfg.Quota,
		openBrowser: openBrowser,
		onChange:    cfg.OnChange,
	}
}

// Login runs one interactive authorization flow end to end: prepare the
// flow, open the browser, wait for the callback, exchange the code and
// store the resulting account.
//
// A token response without a refresh token is rejected before anything is
// stored: an account that cannot renew itself silently breaks later, which
// is worse than failing the login now.
func (s *Service) Login(ctx context.Context) (*Account, error) {
	authURL, err := s.manager.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.openBrowser(authURL); err != nil {
		// The URL is still printed by the caller; a headless environment
		// can complete the flow manually.
		slog.Warn("failed to open browser, complete the login manually", "error", err.Error())
	}

	record, err := s.manager.Complete(ctx)
	if err != nil {
		return nil, err
	}

	if record.RefreshToken == "" {
		return nil, &oauth.MissingRefreshTokenError{}
	}

	identity, err := oauth.IdentityFromIDToken(record.IDToken)
	if err != nil {
		return nil, fmt.Errorf("token response carried an unusable ID token: %w", err)
	}

	acct := &Account{
		Email:             identity.Email,
		Name:              identity.Name,
		ProviderAccountID: oauth.ProviderAccountID(record.AccessToken),
		Tokens:            TokenDataFromRecord(record),
	}
	acct.Quota = fetchQuotaWithRetry(ctx, s.quota, acct.Tokens.AccessToken, acct.ProviderAccountID)

	stored, err := s.store.Upsert(acct)
	if err != nil {
		return nil, err
	}

	s.notifyChange()
	slog.Info("login completed", "account_id", stored.ID, "email", stored.Email)
	return stored, nil
}

// CancelLogin aborts a pending login flow. Safe to call at any time.
func (s *Service) CancelLogin() {
	s.manager.Cancel()
}

// Refresh renews one account's tokens if they are expired, persisting the
// result. It returns the account, refreshed or not.
func (s *Service) Refresh(ctx context.Context, id string) (*Account, error) {
	acct, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	if !acct.Tokens.Expired() {
		return acct, nil
	}

	record, err := s.manager.RefreshIfNeeded(ctx, acct.Tokens.Record())
	if err != nil {
		return nil, fmt.Errorf("failed to refresh account %s: %w", acct.Email, err)
	}

	acct.Tokens = TokenDataFromRecord(record)
	if quota := fetchQuotaWithRetry(ctx, s.quota, acct.Tokens.AccessToken, acct.ProviderAccountID); quota != nil {
		acct.Quota = quota
	}

	if err := s.store.Save(acct); err != nil {
		return nil, err
	}

	s.notifyChange()
	slog.Info("account refreshed", "account_id", acct.ID, "email", acct.Email)
	return acct, nil
}

// RefreshAll refreshes every stored account with bounded concurrency.
// The first failure cancels the remaining refreshes and is returned.
func (s *Service) RefreshAll(ctx context.Context) error {
	accounts, err := s.store.List()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, acct := range accounts {
		acct := acct
		g.Go(func() error {
			_, err := s.Refresh(ctx, acct.ID)
			return err
		})
	}
	return g.Wait()
}

// Logout deletes one stored account. Logging out an already-absent account
// is a no-op.
func (s *Service) Logout(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func (s *Service) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}
