package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newLogoutCmd creates the Cobra command that removes a stored account.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <account>",
		Short: "Remove a stored account",
		Long:  `Deletes one stored account, named by email or ID, and its credentials.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(false)
			if err != nil {
				return err
			}

			acct, err := app.resolveAccount(args[0])
			if err != nil {
				return err
			}

			if err := app.service.Logout(acct.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", acct.Email)
			return nil
		},
	}
}
