package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"authdeck/internal/account"
)

// newExportCmd creates the Cobra command exporting credentials into the
// external auth.json consumed by other CLI tooling.
func newExportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export <account>",
		Short: "Export an account's credentials to the external auth.json",
		Long: `Writes one account's tokens into the auth.json file other tools read,
refreshing them first when expired. Expired, unrefreshable credentials are
never exported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "",
		"target directory (default is the config syncDir or $XDG_DATA_HOME/opencode)")
	return cmd
}

func runExport(cmd *cobra.Command, key, dir string) error {
	app, err := newAppContext(false)
	if err != nil {
		return err
	}

	acct, err := app.resolveAccount(key)
	if err != nil {
		return err
	}

	// Refresh first so the exported token has its full lifetime ahead.
	acct, err = app.service.Refresh(cmd.Context(), acct.ID)
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

	if err := account.SyncAuthJSON(dir, acct); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Credentials for %s exported to %s\n", acct.Email, dir)
	return nil
}
