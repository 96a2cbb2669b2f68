package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRefreshCmd creates the Cobra command that renews stored tokens.
func newRefreshCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "refresh [account]",
		Short: "Renew expired access tokens",
		Long: `Renews the access token of one account (by email or ID), or of every
stored account with --all. Accounts whose tokens are still valid are left
untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd, args, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "refresh every stored account")
	return cmd
}

func runRefresh(cmd *cobra.Command, args []string, all bool) error {
	app, err := newAppContext(false)
	if err != nil {
		return err
	}

	if all {
		if len(args) > 0 {
			return fmt.Errorf("--all cannot be combined with an account argument")
		}
		if err := app.service.RefreshAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All accounts refreshed.")
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("name an account by email or ID, or pass --all")
	}

	acct, err := app.resolveAccount(args[0])
	if err != nil {
		return err
	}

	refreshed, err := app.service.Refresh(cmd.Context(), acct.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Tokens for %s are valid until %s\n",
		refreshed.Email, refreshed.Tokens.Expiry.Local().Format("2006-01-02 15:04:05"))
	return nil
}
