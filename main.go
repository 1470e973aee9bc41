// Package main is the entry point for the finchctl CLI
package main

import (
	"os"

	"github.com/finch-bank/finchctl/cmd"
	"github.com/finch-bank/finchctl/internal/output"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		cliErr := output.WrapError(err)
		printer := output.NewPrinterWithOptions(output.PrinterOptions{
			ColorMode:    output.ColorAuto,
			ConfigColors: true,
		})
		printer.FormatError(cliErr)
		os.Exit(cliErr.ExitCode)
	}
}
