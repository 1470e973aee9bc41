package cmd

import (
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and discard the stored token",
	Long: `Clear the in-memory session, the transport credential, the query cache,
and the token stored on disk. Safe to run when not signed in.`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	printer := newPrinter()

	if err := eng.Session.Logout(); err != nil {
		return err
	}

	printer.Success("Signed out")
	printer.PrintHints("logout")
	return nil
}
