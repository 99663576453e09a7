// Package cmd provides the quotectl commands.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/hagaki/internal/config"
	"github.com/Simplici0/hagaki/internal/logging"
	"github.com/Simplici0/hagaki/internal/pricing"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	tablePath string
	verbose   bool
	now       func() time.Time
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd(&app{}).Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "quotectl",
		Short: "Price postcard print orders and manage price tables",
		Long: `quotectl prices postcard print orders offline and manages the
price table revisions the server loads at startup.

Examples:
  quotectl quote --quantity 60 --grade スタンダード --dm
  quotectl completion まるなげプラン
  quotectl pricetable validate ./prices.yaml
  quotectl pricetable import ./prices.yaml --note "2027 postage"`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.tablePath, "table", "", "price table YAML file (default: PRICE_TABLE_PATH, then the built-in table)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newQuoteCmd(a))
	root.AddCommand(newCompletionCmd(a))
	root.AddCommand(newPriceTableCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	if a.logger == nil {
		a.logger = logging.New(logging.Config{Level: level, Format: "console"})
	}
	if a.now == nil {
		loc := cfg.Location()
		a.now = func() time.Time { return time.Now().In(loc) }
	}
	return nil
}

// engine builds a pricing engine from --table, PRICE_TABLE_PATH or the built-in table.
func (a *app) engine() (*pricing.Engine, error) {
	path := a.tablePath
	if path == "" {
		path = a.cfg.PriceTablePath
	}
	if path == "" {
		a.logger.Debug("using built-in price table")
		return pricing.NewEngine(pricing.DefaultTable()), nil
	}

	table, err := pricing.LoadTableFile(path)
	if err != nil {
		return nil, fmt.Errorf("price table: %w", err)
	}
	a.logger.Debug("price table loaded", zap.String("path", path))
	return pricing.NewEngine(table), nil
}
