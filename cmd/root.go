package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photocatalog",
		Short: "Photo-to-catalog pipeline with LLM-powered product analysis",
		Long: `Photocatalog turns product photos into structured catalog entries.

Each photo is validated, published to a public URL, analyzed by a
vision-capable LLM (OpenAI, Ollama or Gemini), checked against closed
product vocabularies, and appended to a tabular catalog store
(Google Sheets or a local Parquet file).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStoreCmd())
	cmd.AddCommand(newCleanupCmd())

	return cmd
}
