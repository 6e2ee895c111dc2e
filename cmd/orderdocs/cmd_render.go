package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderdocs/internal/store"
	"orderdocs/internal/types"
)

var (
	renderOut   string
	renderWatch bool
)

// renderCmd renders the sales-order report for one order, with
// attachment enrichment, and writes the PDF to disk.
var renderCmd = &cobra.Command{
	Use:   "render [order-id]",
	Short: "Render the sales-order report PDF with product attachments appended",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := renderOrder(cmd.Context(), st, orderID); err != nil {
			return err
		}

		if renderWatch {
			return watchAndRender(st, orderID)
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default <output_dir>/order-<id>.pdf)")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "re-render whenever the database changes")
}

func renderOrder(ctx context.Context, st *store.Store, orderID int64) error {
	svc := newService(st)
	ref := types.ReportRef{
		Name:  cfg.Report.SaleOrderReportName,
		Model: cfg.Report.SaleOrderModel,
	}

	pdf, format, err := svc.RenderPDF(ctx, ref, []int64{orderID}, nil)
	if err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = filepath.Join(cfg.Report.OutputDir, fmt.Sprintf("order-%d.pdf", orderID))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Info("report written",
		zap.String("file", out),
		zap.String("format", format),
		zap.Int("bytes", len(pdf)))
	return nil
}

// watchAndRender re-renders the order whenever the database file is
// written. Events are debounced because SQLite touches the file several
// times per transaction.
func watchAndRender(st *store.Store, orderID int64) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory; SQLite rotates -wal/-shm files next to the db.
	dbDir := filepath.Dir(cfg.Storage.DatabasePath)
	if err := watcher.Add(dbDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dbDir, err)
	}
	logger.Info("watching for changes", zap.String("dir", dbDir))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	renders := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case renders <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-renders:
			if err := renderOrder(ctx, st, orderID); err != nil {
				logger.Error("re-render failed", zap.Error(err))
			}
		}
	}
}
