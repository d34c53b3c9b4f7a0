package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch-ledger/config"
	"dispatch-ledger/metrics"
	"dispatch-ledger/models"
	"dispatch-ledger/services"
	"dispatch-ledger/storage"
	"dispatch-ledger/utils"
)

var errNoLoads = errors.New("no loads left after normalization")

// ledger is the frozen result of one read-normalize pass
type ledger struct {
	set      *models.LoadSet
	refs     *models.ReferenceData
	insights *services.InsightService
}

// loadLedger reads the reference tables and the load history, then normalizes it
func loadLedger(cfg *config.Config, logger *utils.Logger) (*ledger, error) {
	logger.Info("Dispatch Load Ledger")
	logger.Info("Loads: %s | Excluded broker: %q | Cancel token: %q",
		cfg.LoadsFile, cfg.ExcludedBroker, cfg.CancelToken)

	// ================== Reference tables ====================
	paths := storage.ReferencePaths{
		MarketRates: cfg.MarketRatesFile,
		DeadZones:   cfg.DeadZonesFile,
		DriverFC:    cfg.DriverFCFile,
	}
	logger.Debug("Reference tables: %s", paths)
	refs := storage.NewReferenceReader(logger).Read(paths)

	// ================== Load history ====================
	raw, err := storage.NewTableReader(logger).ReadLoads(cfg.LoadsFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read load history: %w", err)
	}

	// ================== Normalization ====================
	policy := services.CleanerPolicy{ExcludedBroker: cfg.ExcludedBroker, CancelToken: cfg.CancelToken}
	set := services.NewDataCleaner(logger, policy, refs).Clean(raw)
	metrics.ObserveLoadSet(len(raw), set)

	if len(set.AllRecords) == 0 {
		logger.Warn("%v: check the excluded broker and the input file", errNoLoads)
	}

	return &ledger{
		set:      set,
		refs:     refs,
		insights: services.NewInsightService(logger),
	}, nil
}

func observeReport(start time.Time) {
	metrics.ObserveReport()
	metrics.ObservePipeline(start)
}

// saveAll writes loads and summaries to every sink and closes each one.
// A failing sink does not stop the others; the first error is returned.
func saveAll(ctx context.Context, sinks []storage.LedgerSink, loads []*models.LoadRecord,
	summaries []models.DriverWeekSummary, logger *utils.Logger) error {
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, sink := range sinks {
		if err := sink.SaveLoads(ctx, loads); err != nil {
			logger.Error("Failed to store loads: %v", err)
			keep(err)
		}
		if err := sink.SaveSummaries(ctx, summaries); err != nil {
			logger.Error("Failed to store weekly summaries: %v", err)
			keep(err)
		}
		if err := sink.Close(); err != nil {
			logger.Error("Failed to close sink: %v", err)
			keep(err)
		}
	}
	return firstErr
}
