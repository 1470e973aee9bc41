package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/guard"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `Register a new Finch user. On success the session starts immediately,
the same way login does.

Examples:
  finchctl register -u ada -e ada@example.com --full-name "Ada Lovelace"`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringP("username", "u", "", "desired username")
	registerCmd.Flags().StringP("email", "e", "", "email address")
	registerCmd.Flags().StringP("password", "p", "", "password")
	registerCmd.Flags().String("full-name", "", "full display name")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("email")
}

func runRegister(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := eng.Session.Restore(ctx); err != nil {
		log.Debug("session restore before register failed", "error", err)
	}
	d := eng.Guard.Decide(eng.Session.Status(), "/register")
	if d.Action == guard.ActionRedirectToHome {
		printer.Info("Already signed in as %s", eng.Session.User().Username)
		return nil
	}

	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	fullName, _ := cmd.Flags().GetString("full-name")
	if password == "" {
		password = readSecret(cmd, "FINCH_PASSWORD")
	}
	if password == "" {
		return fmt.Errorf("no password given: use --password, FINCH_PASSWORD, or stdin")
	}

	user, err := eng.Session.Register(ctx, domain.Registration{
		Username: username,
		Email:    email,
		Password: password,
		FullName: fullName,
	})
	if err != nil {
		return err
	}

	printer.Success("Welcome, %s. You are signed in.", user.Username)
	printer.PrintHints("register")
	return nil
}
