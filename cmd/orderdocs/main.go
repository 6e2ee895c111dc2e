package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"orderdocs/internal/config"
	"orderdocs/internal/pdfmerge"
	"orderdocs/internal/render"
	"orderdocs/internal/report"
	"orderdocs/internal/resolver"
	"orderdocs/internal/store"
	"orderdocs/internal/types"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "orderdocs",
	Short: "orderdocs - sales-order report rendering with product attachment merge",
	Long: `orderdocs renders sales-order PDF reports and appends the PDF
attachments linked to the order's products, producing one merged document.

Enrichment is best-effort: a missing, corrupt or unreadable attachment is
skipped and logged, and the original report is always returned intact.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		if cfg.Logging.Format == "text" {
			zcfg = zap.NewDevelopmentConfig()
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		switch level {
		case "debug":
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		case "warn":
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		case "error":
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		default:
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// openStore opens the configured SQLite database.
func openStore() (*store.Store, error) {
	return store.New(cfg.Storage.DatabasePath, logger.Named("store"))
}

// newService assembles the full render pipeline over an open store.
func newService(st *store.Store) *report.Service {
	base := render.NewOrderRenderer(st, logger.Named("render"))
	res := resolver.New(st, logger.Named("resolver"))
	merger := pdfmerge.New(logger.Named("merge"))
	target := types.ReportRef{
		Name:  cfg.Report.SaleOrderReportName,
		Model: cfg.Report.SaleOrderModel,
	}
	return report.NewService(base, res, merger, target, logger.Named("report"))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "orderdocs.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(attachmentsCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
