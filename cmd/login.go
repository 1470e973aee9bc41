package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/guard"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	Long: `Authenticate against the Finch API and store the session token on disk.

The password is read from --password, the FINCH_PASSWORD environment
variable, or the first line of stdin, in that order.

Examples:
  finchctl login -u ada -p secret
  echo "$PASSWORD" | finchctl login -u ada`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringP("username", "u", "", "account username")
	loginCmd.Flags().StringP("password", "p", "", "account password")
	_ = loginCmd.MarkFlagRequired("username")
}

func runLogin(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := eng.Session.Restore(ctx); err != nil {
		log.Debug("session restore before login failed", "error", err)
	}
	d := eng.Guard.Decide(eng.Session.Status(), eng.Guard.LoginPath())
	if d.Action == guard.ActionRedirectToHome {
		printer.Info("Already signed in as %s", eng.Session.User().Username)
		return nil
	}

	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = readSecret(cmd, "FINCH_PASSWORD")
	}
	if password == "" {
		return fmt.Errorf("no password given: use --password, FINCH_PASSWORD, or stdin")
	}

	user, err := eng.Session.Login(ctx, domain.Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		return err
	}

	printer.Success("Signed in as %s (%s)", user.Username, user.Email)
	printer.PrintHints("login")
	return nil
}

// readSecret resolves a secret from the named env variable, falling back to
// the first line of stdin.
func readSecret(cmd *cobra.Command, envKey string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
