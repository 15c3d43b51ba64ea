// Command njforeclose runs the foreclosure-listing ingestion pipeline,
// either as a one-shot ingestion pass (-ingest) or as a long-running
// daemon driving the scheduler and background workers, mirroring the
// teacher's main.go wiring.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"njforeclose/adapter"
	"njforeclose/alert"
	"njforeclose/config"
	"njforeclose/enrichment"
	"njforeclose/errs"
	"njforeclose/httputil"
	"njforeclose/logging"
	"njforeclose/models"
	"njforeclose/orchestrator"
	"njforeclose/reconciliation"
	"njforeclose/scheduler"
	"njforeclose/services"
	"njforeclose/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	ingestOnce := flag.Bool("ingest", false, "run one ingestion pass and exit instead of starting the daemon")
	state := flag.String("state", "NJ", "two-letter state code to ingest")
	flag.Parse()

	rw, err := logging.Setup("daemon.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup: %v\n", err)
		return 2
	}
	defer rw.Close()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("config load: %v", err)
		return 2
	}
	log.Printf("main: config loaded (db=%s, sqlite=%s)", config.MaskDSN(cfg.DatabaseURL), cfg.SQLitePath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Printf("postgres connect: %v", err)
		return 2
	}
	defer pg.Close()

	sqlite, err := storage.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		log.Printf("sqlite open: %v", err)
		return 2
	}
	defer sqlite.Close()

	clients := httputil.NewClients()

	registry, err := adapter.NewRegistry(cfg, clients)
	if err != nil {
		log.Printf("adapter registry: %v", err)
		return 2
	}

	propertySvc := services.NewPropertyService(pg)
	_ = services.NewMatchService(pg) // exposed for future UI-driven match review, not wired into ingestion

	orch := orchestrator.New(cfg, registry, pg, sqlite, propertySvc)

	if *ingestOnce {
		result := orch.Run(ctx, *state)
		logSummaries(result)
		return exitCodeForResult(result)
	}

	enrichClient := enrichment.NewClient(pg, clients.RiskService, cfg.RiskService, cfg.RateLimitPerMinute)
	go enrichClient.Run(ctx, 25, 2*time.Minute)

	reconJob := reconciliation.NewJob(pg)
	alertEngine := alert.NewEngine(pg)

	sched := scheduler.New(cfg, orch, reconJob, alertEngine, *state)
	if err := sched.Start(ctx); err != nil {
		log.Printf("scheduler start: %v", err)
		return 2
	}
	log.Printf("main: daemon started, listening for shutdown signal")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("main: shutdown signal received, stopping")
	sched.Stop()
	cancel()
	return 0
}

func logSummaries(result *models.IngestionResult) {
	for _, s := range result.Summaries {
		if s.Error != "" {
			log.Printf("main: adapter %s failed: %s", s.AdapterID, s.Error)
			continue
		}
		log.Printf("main: adapter %s: %d raw, %d created, %d updated", s.AdapterID, s.RawCount, s.CreatedCount, s.UpdatedCount)
	}
}

// exitCodeForResult implements the CLI exit-code taxonomy from spec 6:
// 0 success, 3 when every adapter tripped its circuit breaker, 4 when
// every adapter rejected its batch on a volume anomaly, 1 otherwise.
func exitCodeForResult(result *models.IngestionResult) int {
	if len(result.Summaries) == 0 {
		return 0
	}

	allSchemaDrift := true
	allVolumeAnomaly := true
	anyFailure := false

	for _, s := range result.Summaries {
		if s.Error == "" {
			allSchemaDrift = false
			allVolumeAnomaly = false
			continue
		}
		anyFailure = true
		if s.Error != string(errs.KindSchemaDrift) {
			allSchemaDrift = false
		}
		if s.Error != string(errs.KindVolumeAnomaly) {
			allVolumeAnomaly = false
		}
	}

	switch {
	case !anyFailure:
		return 0
	case allSchemaDrift:
		return 3
	case allVolumeAnomaly:
		return 4
	default:
		return 1
	}
}
