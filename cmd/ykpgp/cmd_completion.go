package main

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for ykpgp.

To load completions:

Bash:
  $ source <(ykpgp completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ ykpgp completion bash > /etc/bash_completion.d/ykpgp
  # macOS:
  $ ykpgp completion bash > $(brew --prefix)/etc/bash_completion.d/ykpgp

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ ykpgp completion zsh > "${fpath[1]}/_ykpgp"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ ykpgp completion fish | source

  # To load completions for each session, execute once:
  $ ykpgp completion fish > ~/.config/fish/completions/ykpgp.fish

PowerShell:
  PS> ykpgp completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			return
		}
		switch args[0] {
		case "bash":
			_ = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			_ = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			_ = cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			_ = cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			_ = cmd.Help()
		}
	},
}
