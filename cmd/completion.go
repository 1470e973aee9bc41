package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for finchctl.

To load completions:

Bash:
  $ source <(finchctl completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ finchctl completion bash > /etc/bash_completion.d/finchctl
  # macOS:
  $ finchctl completion bash > $(brew --prefix)/etc/bash_completion.d/finchctl

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ finchctl completion zsh > "${fpath[1]}/_finchctl"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ finchctl completion fish | source
  # To load completions for each session, execute once:
  $ finchctl completion fish > ~/.config/fish/completions/finchctl.fish

PowerShell:
  PS> finchctl completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> finchctl completion powershell > finchctl.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	// Completion needs no configuration or session.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
