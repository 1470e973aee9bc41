package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/finch-bank/finchctl/internal/output"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Aggregated balances and recent activity",
	Long: `Show the balance roll-up, account list, recent transactions, and
portfolio summary in one view. The four reads run concurrently.

With --cached, data already held in the cache is shown immediately and
revalidated in the background instead of blocking on the network.

Examples:
  finchctl dashboard
  finchctl dashboard --cached`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().Bool("cached", false, "serve cached data immediately, revalidate in background")
	dashboardCmd.Flags().Bool("json", false, "output as JSON")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	allowStale, _ := cmd.Flags().GetBool("cached")
	dash, err := eng.Dashboard(ctx, allowStale)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dash)
	}

	user := eng.Session.User()
	printer.Header("Welcome back, " + user.Username)

	if dash.Summary != nil {
		printer.Print("Total balance:     %s", printer.Bold(printer.Money(dash.Summary.TotalBalance, dash.Summary.Currency)))
		printer.Print("Available balance: %s", printer.Money(dash.Summary.AvailableBalance, dash.Summary.Currency))
	}
	if dash.Summary != nil && dash.Portfolio != nil && dash.Portfolio.HoldingCount > 0 {
		printer.Print("Portfolio value:   %s (%s)", printer.Money(dash.Portfolio.TotalValue, dash.Summary.Currency), gainLossLabel(dash.Portfolio.TotalGainLoss.StringFixed(2)))
	}

	if len(dash.Accounts) > 0 {
		printer.Header("Accounts")
		table := output.NewQuietTable(quiet, "NICKNAME", "TYPE", "BALANCE")
		for _, a := range dash.Accounts {
			table.AddRow(a.Nickname, string(a.Type), printer.Money(a.Balance, a.Currency))
		}
		table.Render()
	}

	if len(dash.Recent) > 0 {
		printer.Header("Recent activity")
		renderTransactions(printer, dash.Recent)
	}

	printer.PrintHints("dashboard")
	return nil
}

func gainLossLabel(amount string) string {
	if len(amount) > 0 && amount[0] == '-' {
		return amount
	}
	return "+" + amount
}
