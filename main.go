package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"dispatch-ledger/api"
	"dispatch-ledger/config"
	"dispatch-ledger/export"
	"dispatch-ledger/models"
	"dispatch-ledger/services"
	"dispatch-ledger/storage"
	"dispatch-ledger/utils"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	var drivers, dispatchers string

	root := &cobra.Command{
		Use:           "dispatch-ledger",
		Short:         "Weekly earnings, billing and idle-time reporting for a dispatch load history",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cfg, drivers, dispatchers)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.LoadsFile, "loads", cfg.LoadsFile, "Load-history table (.csv, .xlsx)")
	flags.StringVar(&cfg.MarketRatesFile, "market-rates", cfg.MarketRatesFile, "Market rates by state (optional)")
	flags.StringVar(&cfg.DeadZonesFile, "dead-zones", cfg.DeadZonesFile, "Dead-zone states (optional)")
	flags.StringVar(&cfg.DriverFCFile, "driver-fc", cfg.DriverFCFile, "Driver to dispatcher mapping (optional)")
	flags.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for CSV output")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.StringVar(&drivers, "drivers", "", "Comma-separated drivers to include (default all)")
	flags.StringVar(&dispatchers, "dispatchers", "", "Comma-separated dispatchers to include (default all)")

	report := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard report and write CSV output (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cfg, drivers, dispatchers)
		},
	}
	report.Flags().BoolVar(&cfg.PersistDB, "persist", cfg.PersistDB, "Also store loads and summaries in PostgreSQL")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the aggregates as JSON over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	serve.Flags().IntVar(&cfg.HTTPPort, "port", cfg.HTTPPort, "HTTP port")

	var htmlPath string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Render the dashboard to PDF (and optionally HTML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cfg, drivers, dispatchers, htmlPath)
		},
	}
	exportCmd.Flags().StringVar(&cfg.PDFPath, "pdf", cfg.PDFPath, "PDF output path")
	exportCmd.Flags().StringVar(&htmlPath, "html", "", "Also write the HTML page to this path")

	root.AddCommand(report, serve, exportCmd)
	return root
}

func runReport(ctx context.Context, cfg *config.Config, drivers, dispatchers string) error {
	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))
	start := time.Now()

	l, err := loadLedger(cfg, logger)
	if err != nil {
		logger.Error("%v", err)
		return err
	}

	// ================== CSV output ====================
	filter := selection(drivers, dispatchers)
	summaries := services.AggregateWeekly(l.set.Records, filter)
	gaps := services.IdleGaps(filter.Apply(l.set.Records))

	csvWriter := storage.NewCSVWriter(cfg.OutputDir, logger)
	sinks := []storage.LedgerSink{csvWriter}
	var firstErr error
	if err := csvWriter.WriteIdleGaps(gaps); err != nil {
		logger.Error("Failed to write idle gaps: %v", err)
		firstErr = err
	}
	if err := csvWriter.WriteDiagnostics(l.set.Diagnostics.Sorted()); err != nil {
		logger.Error("Failed to write diagnostics: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	// ================== PostgreSQL ====================
	if cfg.PersistDB {
		pgWriter, err := storage.NewPostgresWriter(ctx, cfg.DatabaseURL, cfg.MaxRetries, logger)
		if err != nil {
			logger.Error("Cannot connect to PostgreSQL: %v", err)
			return err
		}
		if err := pgWriter.CreateTables(ctx); err != nil {
			_ = pgWriter.Close()
			logger.Error("Failed to create DB tables: %v", err)
			return err
		}
		sinks = append(sinks, pgWriter)
	}

	if err := saveAll(ctx, sinks, l.set.AllRecords, summaries, logger); err != nil && firstErr == nil {
		firstErr = err
	}

	// ================== Report ====================
	report := l.insights.Generate(l.set, filter, l.refs)
	observeReport(start)
	services.PrintDashboardReport(os.Stdout, report)

	if firstErr != nil {
		return firstErr
	}
	fmt.Println(" Done! CSV output →", cfg.OutputDir)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))

	l, err := loadLedger(cfg, logger)
	if err != nil {
		logger.Error("%v", err)
		return err
	}

	var printer *export.PDFPrinter
	if cfg.PDFEnabled {
		printer = export.NewPDFPrinter(time.Duration(cfg.PDFTimeoutSec)*time.Second, cfg.MaxRetries, cfg.PDFMinIntervalMs, logger)
	} else {
		logger.Info("PDF export disabled")
	}
	server := api.NewServer(l.set, l.refs, l.insights, printer, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(fmt.Sprintf(":%d", cfg.HTTPPort))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func runExport(ctx context.Context, cfg *config.Config, drivers, dispatchers, htmlPath string) error {
	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))
	start := time.Now()

	l, err := loadLedger(cfg, logger)
	if err != nil {
		logger.Error("%v", err)
		return err
	}
	report := l.insights.Generate(l.set, selection(drivers, dispatchers), l.refs)
	observeReport(start)

	if htmlPath != "" {
		if err := writeHTML(htmlPath, report); err != nil {
			logger.Error("%v", err)
			return err
		}
		logger.Info("Dashboard HTML written to: %s", htmlPath)
	}

	printer := export.NewPDFPrinter(time.Duration(cfg.PDFTimeoutSec)*time.Second, cfg.MaxRetries, 0, logger)
	if err := printer.WriteFile(ctx, report, cfg.PDFPath); err != nil {
		logger.Error("PDF export failed: %v", err)
		return err
	}
	return nil
}

func selection(drivers, dispatchers string) models.FilterSelection {
	split := func(s string) []string {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return strings.Split(s, ",")
	}
	return models.NewFilterSelection(split(drivers), split(dispatchers))
}

func writeHTML(path string, report *models.DashboardReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create HTML file: %w", err)
	}
	if err := export.RenderHTML(file, report); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
