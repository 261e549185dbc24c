package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "memochat",
		Short:         "memochat: conversational agent backend with per-session memory",
		Long:          "memochat serves a chat API backed by a two-stage pipeline (respond, then extract memory) with in-process session state. It talks to a local Ollama server by default.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newCheckCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
