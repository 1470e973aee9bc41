package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finch-bank/finchctl/internal/output"
)

var investCmd = &cobra.Command{
	Use:   "invest",
	Short: "Investment products and portfolio",
	Long: `Browse the investment catalog, manage holdings, and review the
portfolio.

Examples:
  finchctl invest products           # Browse the catalog
  finchctl invest buy prod-1 acc-1 500
  finchctl invest holdings
  finchctl invest portfolio`,
}

var investProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse the investment catalog",
	RunE:  runInvestProducts,
}

var investProductCmd = &cobra.Command{
	Use:   "product <product-id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvestProduct,
}

var investHoldingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "List your positions",
	RunE:  runInvestHoldings,
}

var investPortfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Portfolio roll-up across holdings",
	RunE:  runInvestPortfolio,
}

var investHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Purchase and redemption history",
	RunE:  runInvestHistory,
}

func init() {
	rootCmd.AddCommand(investCmd)
	investCmd.AddCommand(investProductsCmd)
	investCmd.AddCommand(investProductCmd)
	investCmd.AddCommand(investHoldingsCmd)
	investCmd.AddCommand(investPortfolioCmd)
	investCmd.AddCommand(investHistoryCmd)

	investProductsCmd.Flags().IntP("page", "p", 1, "page number")
	investProductsCmd.Flags().Bool("json", false, "output as JSON")
	investHistoryCmd.Flags().IntP("page", "p", 1, "page number")
}

func runInvestProducts(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	result, err := eng.InvestmentProducts(ctx, page)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	table := output.NewQuietTable(quiet, "ID", "NAME", "CATEGORY", "RISK", "EXP. RETURN", "UNIT PRICE")
	for _, p := range result.Items {
		table.AddRow(p.ID, p.Name, p.Category,
			fmt.Sprintf("%d/5", p.RiskLevel),
			p.ExpectedReturn.StringFixed(2)+"%",
			p.UnitPrice.StringFixed(2))
	}
	table.Render()

	printer.Print("")
	printer.Info("Page %d of %d (%d products)", result.Page, result.TotalPages, result.TotalCount)
	return nil
}

func runInvestProduct(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	p, err := eng.InvestmentProductDetail(ctx, args[0])
	if err != nil {
		return err
	}

	printer.Header(p.Name)
	printer.Print("  id:               %s", p.ID)
	printer.Print("  category:         %s", p.Category)
	printer.Print("  risk level:       %d/5", p.RiskLevel)
	printer.Print("  expected return:  %s%%", p.ExpectedReturn.StringFixed(2))
	printer.Print("  minimum purchase: %s", p.MinimumPurchase.StringFixed(2))
	printer.Print("  unit price:       %s", p.UnitPrice.StringFixed(2))
	return nil
}

func runInvestHoldings(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	holdings, err := eng.Holdings(ctx)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		printer.Warning("No holdings")
		printer.Info("Browse products with 'finchctl invest products'")
		return nil
	}

	table := output.NewQuietTable(quiet, "PRODUCT", "UNITS", "COST", "VALUE", "GAIN/LOSS")
	for _, h := range holdings {
		table.AddRow(h.ProductName, h.Units.String(), h.CostBasis.StringFixed(2), h.MarketValue.StringFixed(2), gainLossLabel(h.GainLoss.StringFixed(2)))
	}
	table.Render()
	return nil
}

func runInvestPortfolio(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	summary, err := eng.PortfolioSummary(ctx)
	if err != nil {
		return err
	}

	printer.Header("Portfolio")
	printer.Print("  total value: %s", printer.Bold(summary.TotalValue.StringFixed(2)))
	printer.Print("  total cost:  %s", summary.TotalCost.StringFixed(2))
	printer.Print("  gain/loss:   %s", gainLossLabel(summary.TotalGainLoss.StringFixed(2)))
	printer.Print("  holdings:    %d", summary.HoldingCount)
	printer.Print("  as of:       %s", summary.AsOf.Format("2006-01-02 15:04:05"))
	return nil
}

func runInvestHistory(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	result, err := eng.InvestmentTransactions(ctx, page)
	if err != nil {
		return err
	}
	if len(result.Items) == 0 {
		printer.Warning("No investment transactions")
		return nil
	}

	table := output.NewQuietTable(quiet, "ID", "DATE", "PRODUCT", "KIND", "UNITS", "AMOUNT")
	for _, tx := range result.Items {
		table.AddRow(tx.ID, tx.CreatedAt.Format("2006-01-02"), tx.ProductName, tx.Kind, tx.Units.String(), tx.Amount.StringFixed(2))
	}
	table.Render()

	printer.Print("")
	printer.Info("Page %d of %d (%d total)", result.Page, result.TotalPages, result.TotalCount)
	return nil
}
