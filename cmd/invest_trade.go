package cmd

import (
	"github.com/spf13/cobra"
)

var investBuyCmd = &cobra.Command{
	Use:   "buy <product-id> <account-id> <amount>",
	Short: "Purchase an investment product",
	Long: `Purchase units of a product, funded from the given account.

Examples:
  finchctl invest buy prod-1 acc-1 500`,
	Args: cobra.ExactArgs(3),
	RunE: runInvestBuy,
}

var investSellCmd = &cobra.Command{
	Use:   "sell <product-id> <account-id> <units>",
	Short: "Redeem units of a holding",
	Long: `Redeem units of a holding, crediting the proceeds to the given account.

Examples:
  finchctl invest sell prod-1 acc-1 10`,
	Args: cobra.ExactArgs(3),
	RunE: runInvestSell,
}

func init() {
	investCmd.AddCommand(investBuyCmd)
	investCmd.AddCommand(investSellCmd)
}

func runInvestBuy(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	amount, err := parseAmount(args[2])
	if err != nil {
		return err
	}

	tx, err := eng.Mutations.PurchaseInvestment(ctx, args[0], args[1], amount)
	if err != nil {
		return err
	}

	printer.Success("Purchased %s units of %s for %s", tx.Units.String(), tx.ProductName, tx.Amount.StringFixed(2))
	printer.Print("  transaction: %s", tx.ID)
	printer.PrintHints("invest buy")
	return nil
}

func runInvestSell(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	units, err := parseAmount(args[2])
	if err != nil {
		return err
	}

	tx, err := eng.Mutations.RedeemInvestment(ctx, args[0], args[1], units)
	if err != nil {
		return err
	}

	printer.Success("Redeemed %s units of %s for %s", tx.Units.String(), tx.ProductName, tx.Amount.StringFixed(2))
	printer.Print("  transaction: %s", tx.ID)
	printer.PrintHints("invest sell")
	return nil
}
