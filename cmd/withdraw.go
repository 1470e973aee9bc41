package cmd

import (
	"github.com/spf13/cobra"
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <account-id> <amount>",
	Short: "Withdraw from an account",
	Long: `Withdraw an amount from one of your accounts.

Examples:
  finchctl withdraw acc-1 40
  finchctl withdraw acc-1 99.99 --description "rent"`,
	Args: cobra.ExactArgs(2),
	RunE: runWithdraw,
}

func init() {
	rootCmd.AddCommand(withdrawCmd)

	withdrawCmd.Flags().StringP("description", "d", "", "transaction description")
}

func runWithdraw(cmd *cobra.Command, args []string) error {
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

	tx, err := eng.Mutations.Withdraw(ctx, args[0], amount, description)
	if err != nil {
		return err
	}

	printer.Success("Withdrew %s", amount.StringFixed(2))
	printer.Print("  transaction: %s", tx.ID)
	printer.Print("  new balance: %s", tx.BalanceAfter.StringFixed(2))
	printer.PrintHints("withdraw")
	return nil
}
