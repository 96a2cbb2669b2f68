package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"authdeck/internal/account"
)

// newWatchCmd creates the Cobra command that keeps the external auth.json
// in sync with one account while other authdeck invocations mutate the
// store.
func newWatchCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch <account>",
		Short: "Keep the external auth.json in sync with an account",
		Long: `Watches the account store and re-exports the named account's credentials
into the external auth.json whenever they change, e.g. after a refresh run
from another terminal. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "",
		"target directory (default is the config syncDir or $XDG_DATA_HOME/opencode)")
	return cmd
}

func runWatch(cmd *cobra.Command, key, dir string) error {
	app, err := newAppContext(false)
	if err != nil {
		return err
	}

	acct, err := app.resolveAccount(key)
	if err != nil {
		return err
	}

	if dir == "" {
		dir = app.cfg.SyncDir
	}
	if dir == "" {
		dir, err = account.ExternalSyncDir()
		if err != nil {
			return err
		}
	}

	export := func() {
		fresh, err := app.service.Refresh(cmd.Context(), acct.ID)
		if err != nil {
			slog.Warn("sync skipped, refresh failed", "email", acct.Email, "error", err.Error())
			return
		}
		if err := account.SyncAuthJSON(dir, fresh); err != nil {
			slog.Warn("sync failed", "email", acct.Email, "error", err.Error())
		}
	}

	// Export once up front so the target is current before we start waiting.
	export()

	watcher, err := account.NewWatcher(app.store.Dir(), export)
	if err != nil {
		return err
	}
	defer watcher.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s, syncing %s to %s. Press Ctrl-C to stop.\n",
		app.store.Dir(), acct.Email, dir)

	<-cmd.Context().Done()
	return nil
}
