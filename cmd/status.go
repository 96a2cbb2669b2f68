package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"authdeck/pkg/auth"
)

// newStatusCmd creates the Cobra command emitting the authentication state
// as JSON. Logging goes to stderr only so stdout stays parseable.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the authentication state as JSON",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(true)
	if err != nil {
		return err
	}

	accounts, err := app.store.List()
	if err != nil {
		return err
	}

	response := auth.StatusResponse{
		Accounts: make([]auth.AccountStatus, 0, len(accounts)),
	}

	for _, acct := range accounts {
		status := auth.StatusValid
		if acct.Tokens.Expired() {
			status = auth.StatusExpired
			if acct.Tokens.RefreshToken == "" {
				status = auth.StatusUnrefreshable
			}
		}

		entry := auth.AccountStatus{
			ID:     acct.ID,
			Email:  acct.Email,
			Name:   acct.Name,
			Status: status,
		}
		if !acct.Tokens.Expiry.IsZero() {
			expiry := acct.Tokens.Expiry
			entry.Expiry = &expiry
		}
		if acct.Quota != nil {
			entry.PlanType = acct.Quota.PlanType
		}
		response.Accounts = append(response.Accounts, entry)
	}

	if view, ok := app.manager.Store().Current(); ok {
		response.PendingFlow = &auth.FlowStatus{Port: view.Port}
	}

	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
