package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var depositCmd = &cobra.Command{
	Use:   "deposit <account-id> <amount>",
	Short: "Deposit into an account",
	Long: `Deposit an amount into one of your accounts.

Examples:
  finchctl deposit acc-1 100.50
  finchctl deposit acc-1 250 --description "payday"`,
	Args: cobra.ExactArgs(2),
	RunE: runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)

	depositCmd.Flags().StringP("description", "d", "", "transaction description")
}

func runDeposit(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	description, _ := cmd.Flags().GetString("description")

	tx, err := eng.Mutations.Deposit(ctx, args[0], amount, description)
	if err != nil {
		return err
	}

	printer.Success("Deposited %s", amount.StringFixed(2))
	printer.Print("  transaction: %s", tx.ID)
	printer.Print("  new balance: %s", tx.BalanceAfter.StringFixed(2))
	printer.PrintHints("deposit")
	return nil
}

// parseAmount parses a positive decimal amount from a CLI argument.
func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", s)
	}
	return amount, nil
}
