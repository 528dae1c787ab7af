package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/publish"
)

func newCleanupCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove published photos older than a cutoff",
		Long: `Removes files from the upload directory that are older than the
given age. Catalog rows keep their image URLs; only the local copies
are removed.`,
		Example: `  # Remove photos older than a week
  photocatalog cleanup --older-than 168h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			publisher := publish.New(cfg.UploadDir, cfg.DomainURL)
			removed, err := publisher.CleanupOlderThan(olderThan)
			if err != nil {
				return err
			}

			fmt.Printf("Removed %d file(s) from %s\n", removed, cfg.UploadDir)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Remove files older than this age")

	return cmd
}
