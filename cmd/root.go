package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"authdeck/internal/oauth"
)

// Exit codes for CLI commands. These follow common conventions so scripts
// can distinguish authentication failures from general errors.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates stored credentials cannot be renewed
	// and a new login is needed.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow itself failed.
	ExitCodeAuthFailed = 3
)

// rootCmd represents the base command for the authdeck application.
var rootCmd = &cobra.Command{
	Use:   "authdeck",
	Short: "Manage OAuth accounts for desktop AI tooling",
	Long: `authdeck runs browser-based OAuth logins against the provider,
stores the resulting accounts locally and keeps their tokens fresh,
so other tools on this machine can borrow working credentials.`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors the application already reports itself.
	SilenceUsage: true,
}

// Persistent flag values, wired in init.
var (
	configPath string
	logLevel   string
)

// SetVersion sets the version for the root command. Called from the main
// package to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. Commands run
// under a signal-aware context so Ctrl-C aborts a pending flow cleanly.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "authdeck version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps error types onto semantic exit codes for scripting.
func getExitCode(err error) int {
	var missingRefresh *oauth.MissingRefreshTokenError
	if errors.As(err, &missingRefresh) {
		return ExitCodeAuthRequired
	}

	var rejected *oauth.ExchangeRejectedError
	if errors.As(err, &rejected) {
		return ExitCodeAuthFailed
	}
	if errors.Is(err, oauth.ErrListenerTimeout) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default is $HOME/.config/authdeck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log verbosity: debug, info, warn or error")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newCancelCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
