package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/heapsnap-analysis/internal/repository"
	"github.com/heapsnap-analysis/internal/service"
	"github.com/heapsnap-analysis/internal/storage"
	"github.com/heapsnap-analysis/pkg/config"
	"github.com/heapsnap-analysis/pkg/pprof"
	"github.com/heapsnap-analysis/pkg/telemetry"
)

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer shutdown(ctx)

	if pprofEnable {
		pcfg := pprof.DefaultConfig()
		pcfg.Enabled = true
		pcfg.Mode = pprof.ModeType(pprofMode)
		pcfg.OutputDir = pprofDir
		pcfg.HTTPConfig.Addr = pprofAddr
		if err := pprof.StartGlobal(pcfg); err != nil {
			return fmt.Errorf("starting self-profiling: %w", err)
		}
		defer pprof.StopGlobal()
	}

	var store storage.Storage
	if strings.HasPrefix(heapSource, "cos://") {
		store, err = storage.NewStorage(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("constructing storage backend: %w", err)
		}
	}

	dbPath := service.DerivedDBPath(heapSource)

	summary, err := service.Ingest(ctx, service.IngestOptions{
		HeapSource:   heapSource,
		DatabasePath: dbPath,
		TopN:         topN,
		Storage:      store,
	})
	if err != nil {
		return err
	}

	printSummary(cmd, summary)

	if cfg.Catalog.Enabled {
		recordCatalog(cmd, &cfg.Catalog, summary)
	}

	if len(queries) > 0 {
		results, err := service.RunQueries(ctx, dbPath, queries)
		if err != nil {
			return err
		}
		for i, rows := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "\n-- query %d: %s\n", i+1, queries[i])
			for _, row := range rows {
				fmt.Fprintln(cmd.OutOrStdout(), service.FormatRow(row))
			}
		}
	}

	if reportPath != "" {
		if err := service.WriteReport(summary, reportPath); err != nil {
			return err
		}
	}

	return nil
}

// recordCatalog writes one bookkeeping row to the optional shared catalog
// database. A catalog failure is reported but never fails the run: the
// catalog only records that an ingestion happened, it is not the output
// store itself.
func recordCatalog(cmd *cobra.Command, cc *config.CatalogConfig, summary *service.IngestSummary) {
	db, err := repository.NewCatalogDB(&repository.CatalogDBConfig{
		Type:     cc.Type,
		Host:     cc.Host,
		Port:     cc.Port,
		Database: cc.Database,
		User:     cc.User,
		Password: cc.Password,
		MaxConns: cc.MaxConns,
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "catalog: failed to connect, skipping record: %v\n", err)
		return
	}
	catalog := repository.NewCatalog(db)
	defer catalog.Close()

	status := "ingested"
	if summary.Skipped {
		status = "skipped"
	}

	now := time.Now()
	rec := &repository.IngestionRecord{
		SnapshotURI: summary.SnapshotSource,
		StoreDSN:    summary.DatabasePath,
		NodeCount:   summary.NodeCount,
		EdgeCount:   summary.EdgeCount,
		DurationMS:  summary.Duration.Milliseconds(),
		Status:      status,
		StartedAt:   now.Add(-summary.Duration),
		FinishedAt:  now,
	}
	if err := catalog.Record(cmd.Context(), rec); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "catalog: failed to record ingestion: %v\n", err)
	}
}

func printSummary(cmd *cobra.Command, summary *service.IngestSummary) {
	out := cmd.OutOrStdout()

	if summary.Skipped {
		fmt.Fprintf(out, "%s already exists, skipping ingestion\n", summary.DatabasePath)
		return
	}

	fmt.Fprintf(out, "ingested %s -> %s\n", summary.SnapshotSource, summary.DatabasePath)
	fmt.Fprintf(out, "nodes=%d edges=%d locations=%d duration=%s\n",
		summary.NodeCount, summary.EdgeCount, summary.LocationCount, summary.Duration)

	fmt.Fprintln(out, "\ntop retainers (retain_size is an additive BFS approximation, not dominator-tree retained size):")
	for _, r := range summary.TopRetainers {
		fmt.Fprintf(out, "  id=%d name=%q type=%s retain_size=%d self_size=%d distance=%d\n",
			r.ID, r.Name, r.Type, r.RetainSize, r.SelfSize, r.Distance)
	}

	if len(summary.Suggestions) > 0 {
		fmt.Fprintln(out, "\nadvisor suggestions:")
		for _, s := range summary.Suggestions {
			fmt.Fprintf(out, "  [%s] %s: %s\n", s.Severity, s.Name, s.Description)
		}
	}
}
