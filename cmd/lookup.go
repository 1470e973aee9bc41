package cmd

import (
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <account-number>",
	Short: "Resolve an account number to its owner",
	Long: `Resolve another user's account number to the owner's display name
before sending a transfer.

Examples:
  finchctl lookup 1234567890`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	r := eng.NewTransferSession()
	r.SetNumber(args[0])

	result, err := r.Lookup(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		printer.Warning("No account found with number %s", args[0])
		return nil
	}

	printer.Success("Found %s", result.OwnerDisplayName)
	printer.Print("  number: %s", result.AccountNumber)
	printer.Print("  type:   %s", result.AccountType)
	printer.PrintHints("lookup")
	return nil
}
