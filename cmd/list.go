package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	pkgstrings "authdeck/pkg/strings"
)

// newListCmd creates the Cobra command that renders the stored accounts as
// a table.
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(false)
	if err != nil {
		return err
	}

	accounts, err := app.store.List()
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No accounts stored. Run 'authdeck login' to add one.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("EMAIL"),
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("PLAN"),
		text.FgHiCyan.Sprint("EXPIRES"),
	})

	for _, acct := range accounts {
		status := text.FgGreen.Sprint("valid")
		if acct.Tokens.Expired() {
			status = text.FgYellow.Sprint("expired")
			if acct.Tokens.RefreshToken == "" {
				status = text.FgRed.Sprint("unrefreshable")
			}
		}

		plan := ""
		if acct.Quota != nil {
			plan = acct.Quota.PlanType
		}

		expires := ""
		if !acct.Tokens.Expiry.IsZero() {
			expires = acct.Tokens.Expiry.Local().Format(time.RFC3339)
		}

		t.AppendRow(table.Row{
			acct.Email,
			pkgstrings.Truncate(acct.Name, pkgstrings.DefaultCellMaxLen),
			status,
			plan,
			expires,
		})
	}

	t.Render()
	return nil
}
