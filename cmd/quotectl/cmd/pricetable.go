package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/hagaki/internal/db"
	"github.com/Simplici0/hagaki/internal/format"
	"github.com/Simplici0/hagaki/internal/migrations"
	"github.com/Simplici0/hagaki/internal/pricetables"
	"github.com/Simplici0/hagaki/internal/pricing"
)

func newPriceTableCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "pricetable",
		Short: "Price table revision management",
		Long: `Commands for validating, importing and listing price table revisions.

Imported revisions are stored in DB_PATH and take effect the next
time the server starts.`,
	}

	c.AddCommand(newPriceTableValidateCmd(a))
	c.AddCommand(newPriceTableImportCmd(a))
	c.AddCommand(newPriceTableListCmd(a))
	return c
}

func newPriceTableValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a price table document without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := pricing.LoadTableFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ %s is valid\n", args[0])
			fmt.Fprintf(out, "  postcard unit price: %s\n", format.Yen(table.PostcardUnitPrice))
			fmt.Fprintf(out, "  finishes:            %d\n", len(table.Finishes))
			return nil
		},
	}
}

func newPriceTableImportCmd(a *app) *cobra.Command {
	var note string

	c := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a price table document as the newest revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read price table %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			return a.withStore(ctx, func(store *pricetables.Store) error {
				id, err := store.Import(ctx, document, note)
				if err != nil {
					return err
				}
				a.logger.Info("price table revision stored", zap.Int64("id", id), zap.String("db", a.cfg.DBPath))
				fmt.Fprintf(cmd.OutOrStdout(), "stored revision %d\n", id)
				return nil
			})
		},
	}

	c.Flags().StringVar(&note, "note", "", "free-form note stored with the revision")
	return c
}

func newPriceTableListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored revisions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store *pricetables.Store) error {
				revisions, err := store.List(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCREATED\tNOTE")
				for _, rev := range revisions {
					fmt.Fprintf(w, "%d\t%s\t%s\n", rev.ID, rev.CreatedAt, rev.Note)
				}
				return w.Flush()
			})
		},
	}
}

// withStore opens DB_PATH, applies pending migrations and hands fn a store.
func (a *app) withStore(ctx context.Context, fn func(*pricetables.Store) error) error {
	database, err := db.Open(ctx, a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := migrations.Up(ctx, database)
	if err != nil {
		return err
	}
	if applied > 0 {
		a.logger.Debug("migrations applied", zap.Int("count", applied))
	}
	return fn(pricetables.NewStore(database))
}
