package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajuraforce/photo-product-analyzer/internal/catalog"
	"github.com/ajuraforce/photo-product-analyzer/internal/config"
)

// catalogStore is what both backends provide: the append path used by the
// pipeline plus the maintenance operations used here.
type catalogStore interface {
	catalog.Writer
	catalog.Maintainer
}

// openStore builds the catalog store the configuration names.
func openStore(ctx context.Context, cfg *config.Config) (catalogStore, error) {
	if cfg.StoreBackend == "sheets" {
		return catalog.NewSheetsWriter(ctx, cfg.CredentialsFile, cfg.SheetID, cfg.SheetName)
	}
	return catalog.NewParquetWriter(cfg.ParquetPath), nil
}

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect and initialize the catalog store",
	}

	cmd.AddCommand(newStoreInitCmd())
	cmd.AddCommand(newStoreCountCmd())

	return cmd
}

func newStoreInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the catalog header row if the store is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := store.EnsureHeaders(cmd.Context()); err != nil {
				return err
			}

			fmt.Printf("Catalog store ready (%s)\n", cfg.StoreBackend)
			return nil
		},
	}
}

func newStoreCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of rows in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			n, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(n)
			return nil
		},
	}
}
