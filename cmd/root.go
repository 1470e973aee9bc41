// Package cmd contains all CLI commands for finchctl
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/finch-bank/finchctl/config"
	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/engine"
	"github.com/finch-bank/finchctl/internal/guard"
	"github.com/finch-bank/finchctl/internal/logger"
	"github.com/finch-bank/finchctl/internal/output"
)

var (
	cfgFile   string
	verbose   bool
	quiet     bool
	colorFlag string
	cfg       *config.Config
	log       *slog.Logger
	eng       *engine.Engine
	version   = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finchctl",
	Short: "Finch digital banking CLI",
	Long: `finchctl is a command line client for the Finch digital banking API.

It keeps a durable session on disk, caches reads with a freshness window,
and invalidates exactly the cached data each mutation affects.

Example usage:
  finchctl login -u ada            # Sign in and persist the session
  finchctl dashboard               # Aggregated balances and recent activity
  finchctl accounts                # List your accounts
  finchctl deposit <account> 100   # Deposit into an account
  finchctl invest products         # Browse the investment catalog`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.finchctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output: auto, always, never")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("output.color", rootCmd.PersistentFlags().Lookup("color"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	var err error

	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, herr := os.UserHomeDir()
		if herr == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".finchctl")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("FINCH")
	viper.AutomaticEnv()

	// Config file values override the env defaults; flags override both.
	if rerr := viper.ReadInConfig(); rerr == nil {
		if v := viper.GetString("api_url"); v != "" {
			cfg.APIBaseURL = v
		}
		if v := viper.GetDuration("request_timeout"); v > 0 {
			cfg.RequestTimeout = v
		}
		if v := viper.GetDuration("freshness_window"); v > 0 {
			cfg.FreshnessWindow = v
		}
		if v := viper.GetFloat64("outbound_rate"); v > 0 {
			cfg.OutboundRate = v
		}
		if v := viper.GetString("log.level"); v != "" {
			cfg.LogLevel = v
		}
		if v := viper.GetString("token_path"); v != "" {
			cfg.TokenStoragePath = v
		}
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log = logger.Init(level, viper.GetString("log.format"))

	eng, err = engine.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}

	log.Debug("configuration loaded",
		"api_url", cfg.APIBaseURL,
		"freshness_window", cfg.FreshnessWindow,
		"request_timeout", cfg.RequestTimeout,
	)

	return nil
}

// newPrinter builds a printer honoring the --color and --quiet flags.
func newPrinter() *output.Printer {
	mode, err := output.ParseColorMode(colorFlag)
	if err != nil {
		mode = output.ColorAuto
	}
	return output.NewPrinterWithOptions(output.PrinterOptions{
		ColorMode:    mode,
		ConfigColors: true,
		Quiet:        quiet,
	})
}

// ensureSession restores the persisted session and rejects the command when
// the route guard would bounce a protected page to the entry route.
func ensureSession(ctx context.Context) error {
	if err := eng.Session.Restore(ctx); err != nil {
		return err
	}
	d := eng.Guard.Decide(eng.Session.Status(), eng.Guard.HomePath())
	if d.Action == guard.ActionRedirectToEntry {
		return domain.ErrNotAuthenticated
	}
	return nil
}
