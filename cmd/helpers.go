package cmd

import (
	"fmt"
	"os"

	"authdeck/internal/account"
	"authdeck/internal/config"
	"authdeck/internal/oauth"
	"authdeck/pkg/logging"
)

// appContext bundles the long-lived objects most commands need.
type appContext struct {
	cfg     *config.Config
	store   *account.Store
	manager *oauth.Manager
	quota   account.QuotaFetcher
	service *account.Service
}

// newAppContext loads configuration, initializes logging and wires the
// store, manager and service together. quiet suppresses log output for
// commands whose stdout is machine-parsed.
func newAppContext(quiet bool) (*appContext, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if quiet {
		logging.SetupQuiet()
	} else {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logging.Setup(level, os.Stderr)
	}

	store, err := account.NewStore(cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	manager := oauth.NewManager(oauth.ManagerConfig{
		Provider: cfg.OAuthProvider(),
	})

	var quota account.QuotaFetcher
	if cfg.Provider.QuotaEndpoint != "" {
		quota = account.NewHTTPQuotaFetcher(cfg.Provider.QuotaEndpoint, nil)
	}

	service := account.NewService(account.ServiceConfig{
		Manager: manager,
		Store:   store,
		Quota:   quota,
	})

	return &appContext{
		cfg:     cfg,
		store:   store,
		manager: manager,
		quota:   quota,
		service: service,
	}, nil
}

// resolveAccount finds one stored account by ID or email.
func (a *appContext) resolveAccount(key string) (*account.Account, error) {
	if acct, err := a.store.FindByEmail(key); err == nil && acct != nil {
		return acct, nil
	}

	acct, err := a.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("no account with ID or email %q", key)
	}
	return acct, nil
}
