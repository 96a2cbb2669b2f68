package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCancelCmd creates the Cobra command that aborts a pending login.
// It also reaches a login running in another process: the cancel request
// goes over the loopback listener the flow is parked on.
func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Abort a pending login flow",
		Long: `Aborts a login flow waiting for its browser callback, including one
started by another authdeck process on this machine. Cancelling when no
login is pending does nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(false)
			if err != nil {
				return err
			}

			app.manager.Cancel()
			fmt.Fprintln(cmd.OutOrStdout(), "Pending login cancelled.")
			return nil
		},
	}
}
