// Command indexer performs a one-shot (or periodic) rebuild of the Typesense
// POI collection from the configured data source.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nakanaka07/kueccha/internal/adapters/search"
	"github.com/nakanaka07/kueccha/internal/adapters/sources/csvfile"
	sheetsource "github.com/nakanaka07/kueccha/internal/adapters/sources/sheets"
	"github.com/nakanaka07/kueccha/internal/application/services"
	"github.com/nakanaka07/kueccha/internal/domain/mapping"
	"github.com/nakanaka07/kueccha/internal/domain/repositories"
	"github.com/nakanaka07/kueccha/internal/infrastructure/clients/sheets"
	"github.com/nakanaka07/kueccha/internal/infrastructure/clients/typesense"
	"github.com/nakanaka07/kueccha/internal/infrastructure/observability"
	"github.com/nakanaka07/kueccha/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Printf("Reindex complete. Next run in %s.", interval)

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Deleting pois collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.POICollection).Delete(ctx); err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	source, err := newPOISource(cfg)
	if err != nil {
		return err
	}

	poiService := services.NewPOIService(source, nil, nil, adapter, cfg.Cache.TTL)

	count, err := poiService.Refresh(ctx)
	if err != nil {
		return err
	}

	log.Printf("Indexed %d pois", count)
	return nil
}

func newPOISource(cfg *config.Config) (repositories.POISource, error) {
	flags := services.NewFeatureFlags()

	policy := mapping.PolicyLenient
	if flags.StrictValidation() {
		policy = mapping.PolicyStrict
	}

	if flags.UseGoogleSheets() && cfg.Sheets.SpreadsheetID != "" {
		client, err := sheets.NewClient(&cfg.Sheets)
		if err != nil {
			return nil, err
		}
		return sheetsource.NewSource(client, nil, nil, nil, cfg.Cache.TTL, policy), nil
	}

	return csvfile.NewSource(&cfg.CSV, nil, nil, cfg.Cache.TTL)
}
