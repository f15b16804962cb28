// Command backfill drives the generation backfill to completion from the
// shell: it invokes the orchestrator in batches until the store reports no
// remaining records, then exits. Interrupts stop cleanly between batches.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridpulse-api/internal/cli"
	"gridpulse-api/internal/config"
	"gridpulse-api/internal/svc"
	"gridpulse-api/pkg/backfill"
)

var (
	configFile = flag.String("f", "etc/gridpulse.yaml", "the config file")
	year       = flag.Int("year", 0, "restrict to one calendar year (0 = all)")
	month      = flag.Int("month", 0, "restrict to one month 1-12 (0 = all)")
	batchSize  = flag.Int("batch", 0, "records per batch (0 = configured default)")
	maxBatches = flag.Int("max-batches", 0, "stop after N batches (0 = run to completion)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime)
	log.Println("[backfill] starting")

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[backfill] load config: %v", err)
	}
	for _, line := range cli.ConfigSummaryLines(cfg) {
		log.Printf("  - %s", line)
	}

	if *month < 0 || *month > 12 {
		log.Fatalf("[backfill] invalid month %d", *month)
	}

	svcCtx := svc.NewServiceContext(*cfg)
	if svcCtx.Orchestrator == nil {
		log.Fatal("[backfill] postgres, weather and estimator config are required")
	}

	size := *batchSize
	if size <= 0 {
		size = cfg.Backfill.DefaultBatchSize
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	var totalUpdated, batches int
	for {
		result, err := svcCtx.Orchestrator.Run(ctx, backfill.Request{
			Filter:    backfill.Filter{Year: *year, Month: *month},
			BatchSize: size,
		})
		if err != nil {
			log.Fatalf("[backfill] batch %d failed: %v", batches+1, err)
		}
		batches++
		totalUpdated += result.RecordsUpdated

		log.Printf("[backfill] batch %d: updated=%d dates=%d remaining=%d errors=%d",
			batches, result.RecordsUpdated, result.DatesProcessed,
			result.RemainingRecords, len(result.Errors))
		for _, msg := range result.Errors {
			log.Printf("[backfill]   error: %s", msg)
		}

		if result.IsComplete {
			log.Printf("[backfill] complete: %d records in %d batches (%s)",
				totalUpdated, batches, time.Since(start).Round(time.Second))
			return
		}
		if *maxBatches > 0 && batches >= *maxBatches {
			log.Printf("[backfill] stopping after %d batches; %d records remain",
				batches, result.RemainingRecords)
			return
		}
		if ctx.Err() != nil {
			log.Printf("[backfill] interrupted; %d records remain", result.RemainingRecords)
			return
		}
		// A batch that fetched nothing but still reports remaining records
		// means every window failed; bail instead of spinning.
		if result.RecordsUpdated == 0 {
			log.Printf("[backfill] no progress this batch; %d records remain, exiting", result.RemainingRecords)
			os.Exit(1)
		}
	}
}
