package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/output"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List your accounts",
	Long: `List all accounts with balances, plus the balance roll-up.

Examples:
  finchctl accounts            # Table with summary
  finchctl accounts --json     # Output as JSON`,
	RunE: runAccounts,
}

var accountCmd = &cobra.Command{
	Use:   "account <account-id>",
	Short: "Show one account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountDetail,
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new account",
	Long: `Open a new account of the given type.

Examples:
  finchctl account create --type savings --nickname "Rainy day"`,
	RunE: runAccountCreate,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountCreateCmd)

	accountsCmd.Flags().Bool("json", false, "output as JSON")
	accountCmd.Flags().Bool("json", false, "output as JSON")

	accountCreateCmd.Flags().String("type", "checking", "account type: checking, savings, investment")
	accountCreateCmd.Flags().String("nickname", "", "display name for the account")
	accountCreateCmd.Flags().String("currency", "USD", "account currency")
}

func runAccounts(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	accounts, err := eng.Accounts(ctx)
	if err != nil {
		return err
	}
	summary, err := eng.AccountSummary(ctx)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Accounts []domain.Account       `json:"accounts"`
			Summary  *domain.AccountSummary `json:"summary"`
		}{accounts, summary})
	}

	if len(accounts) == 0 {
		printer.Warning("No accounts yet")
		printer.Info("Open one with 'finchctl account create'")
		return nil
	}

	table := output.NewQuietTable(quiet, "ID", "NUMBER", "TYPE", "NICKNAME", "BALANCE")
	for _, a := range accounts {
		table.AddRow(a.ID, a.AccountNumber, string(a.Type), a.Nickname, printer.Money(a.Balance, a.Currency))
	}
	table.Render()

	printer.Print("")
	printer.Info("Total: %s across %d account(s)", printer.Money(summary.TotalBalance, summary.Currency), summary.AccountCount)
	printer.PrintHints("accounts")
	return nil
}

func runAccountDetail(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	account, err := eng.AccountDetail(ctx, args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(account)
	}

	printAccount(printer, account)
	printer.PrintHints("account")
	return nil
}

func runAccountCreate(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	accountType, _ := cmd.Flags().GetString("type")
	nickname, _ := cmd.Flags().GetString("nickname")
	currency, _ := cmd.Flags().GetString("currency")

	account, err := eng.Mutations.CreateAccount(ctx, domain.AccountType(accountType), nickname, currency)
	if err != nil {
		return err
	}

	printer.Success("Opened %s account %s", account.Type, account.AccountNumber)
	printAccount(printer, account)
	return nil
}

func printAccount(printer *output.Printer, a *domain.Account) {
	title := a.Nickname
	if title == "" {
		title = a.AccountNumber
	}
	printer.Header(title)
	printer.Print("  id:       %s", a.ID)
	printer.Print("  number:   %s", a.AccountNumber)
	printer.Print("  type:     %s", a.Type)
	printer.Print("  balance:  %s", printer.Money(a.Balance, a.Currency))
	printer.Print("  opened:   %s", a.CreatedAt.Format("2006-01-02"))
}
