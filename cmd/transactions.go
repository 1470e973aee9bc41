package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/output"
)

var transactionsCmd = &cobra.Command{
	Use:   "transactions [account-id]",
	Short: "List transactions",
	Long: `List transactions for an account, or the most recent activity across
all accounts when no account is given.

Examples:
  finchctl transactions              # Recent activity, all accounts
  finchctl transactions acc-1        # First page for one account
  finchctl transactions acc-1 -p 2   # Later pages`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTransactions,
}

var transactionCmd = &cobra.Command{
	Use:   "transaction <transaction-id>",
	Short: "Show one transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransactionDetail,
}

func init() {
	rootCmd.AddCommand(transactionsCmd)
	rootCmd.AddCommand(transactionCmd)

	transactionsCmd.Flags().IntP("page", "p", 1, "page number")
	transactionsCmd.Flags().Bool("json", false, "output as JSON")
	transactionCmd.Flags().Bool("json", false, "output as JSON")
}

func runTransactions(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")

	if len(args) == 0 {
		recent, err := eng.RecentTransactions(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(recent)
		}
		renderTransactions(printer, recent)
		printer.PrintHints("transactions")
		return nil
	}

	page, _ := cmd.Flags().GetInt("page")
	result, err := eng.Transactions(ctx, args[0], page)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	renderTransactions(printer, result.Items)
	printer.Print("")
	printer.Info("Page %d of %d (%d total)", result.Page, result.TotalPages, result.TotalCount)
	if result.HasNext {
		printer.Info("Next page: finchctl transactions %s -p %d", args[0], result.Page+1)
	}
	return nil
}

func runTransactionDetail(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	tx, err := eng.TransactionDetail(ctx, args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tx)
	}

	printer.Header("Transaction " + tx.ID)
	printer.Print("  account:       %s", tx.AccountID)
	printer.Print("  kind:          %s", tx.Kind)
	printer.Print("  amount:        %s", tx.Amount.StringFixed(2))
	printer.Print("  balance after: %s", tx.BalanceAfter.StringFixed(2))
	if tx.Description != "" {
		printer.Print("  description:   %s", tx.Description)
	}
	if tx.CounterpartyRef != "" {
		printer.Print("  counterparty:  %s", tx.CounterpartyRef)
	}
	printer.Print("  at:            %s", tx.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func renderTransactions(printer *output.Printer, txs []domain.Transaction) {
	if len(txs) == 0 {
		printer.Warning("No transactions")
		return
	}
	table := output.NewQuietTable(quiet, "ID", "DATE", "KIND", "AMOUNT", "DESCRIPTION")
	for _, tx := range txs {
		table.AddRow(tx.ID, tx.CreatedAt.Format("2006-01-02"), string(tx.Kind), tx.Amount.StringFixed(2), tx.Description)
	}
	table.Render()
}
