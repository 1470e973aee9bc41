package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/finch-bank/finchctl/internal/output"
)

var transferCmd = &cobra.Command{
	Use:   "transfer <from-account-id> <amount>",
	Short: "Transfer between accounts",
	Long: `Transfer between your own accounts with --to, or to another user's
account with --to-number.

A transfer to another user first resolves the account number to its owner
and asks for confirmation. The transfer is submitted against the resolved
account, never against unverified input.

Examples:
  finchctl transfer acc-1 50 --to acc-2
  finchctl transfer acc-1 25 --to-number 1234567890
  finchctl transfer acc-1 25 --to-number 1234567890 --yes`,
	Args: cobra.ExactArgs(2),
	RunE: runTransfer,
}

func init() {
	rootCmd.AddCommand(transferCmd)

	transferCmd.Flags().String("to", "", "destination account id (your own account)")
	transferCmd.Flags().String("to-number", "", "destination account number (another user)")
	transferCmd.Flags().StringP("description", "d", "", "transaction description")
	transferCmd.Flags().BoolP("yes", "y", false, "skip the recipient confirmation prompt")
	transferCmd.MarkFlagsMutuallyExclusive("to", "to-number")
}

func runTransfer(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	fromID := args[0]
	toID, _ := cmd.Flags().GetString("to")
	toNumber, _ := cmd.Flags().GetString("to-number")
	description, _ := cmd.Flags().GetString("description")

	switch {
	case toID != "":
		tx, err := eng.Mutations.Transfer(ctx, fromID, toID, amount, description)
		if err != nil {
			return err
		}
		printer.Success("Transferred %s to %s", amount.StringFixed(2), toID)
		printer.Print("  transaction: %s", tx.ID)
		printer.Print("  new balance: %s", tx.BalanceAfter.StringFixed(2))

	case toNumber != "":
		if err := runCrossUserTransfer(cmd, printer, fromID, toNumber, amount, description); err != nil {
			return err
		}

	default:
		return fmt.Errorf("destination required: use --to or --to-number")
	}

	printer.PrintHints("transfer")
	return nil
}

func runCrossUserTransfer(cmd *cobra.Command, printer *output.Printer, fromID, toNumber string, amount decimal.Decimal, description string) error {
	ctx := cmd.Context()

	r := eng.NewTransferSession()
	r.SetNumber(toNumber)

	result, err := r.Lookup(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no account found with number %s", toNumber)
	}

	printer.Info("Recipient: %s (%s account %s)", result.OwnerDisplayName, result.AccountType, result.AccountNumber)

	skipConfirm, _ := cmd.Flags().GetBool("yes")
	if !skipConfirm {
		fmt.Fprintf(cmd.OutOrStdout(), "Transfer %s to %s? [y/N]: ", amount.StringFixed(2), result.OwnerDisplayName)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
			printer.Warning("Transfer cancelled")
			return nil
		}
	}

	tx, err := eng.CrossUserTransfer(ctx, r, fromID, amount, description)
	if err != nil {
		return err
	}

	printer.Success("Transferred %s to %s", amount.StringFixed(2), result.OwnerDisplayName)
	printer.Print("  transaction: %s", tx.ID)
	printer.Print("  new balance: %s", tx.BalanceAfter.StringFixed(2))
	return nil
}
