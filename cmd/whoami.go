package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)

	whoamiCmd.Flags().Bool("json", false, "output as JSON")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}
	user := eng.Session.User()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(user)
	}

	printer.Print("%s %s", printer.StatusBadge(eng.Session.Status().String()), printer.Bold(user.Username))
	printer.Print("  email:  %s", user.Email)
	if user.FullName != "" {
		printer.Print("  name:   %s", user.FullName)
	}
	printer.Print("  joined: %s", user.JoinedAt.Format("2006-01-02"))
	printer.PrintHints("whoami")
	return nil
}
