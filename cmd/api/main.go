package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nakanaka07/kueccha/internal/adapters/cache"
	"github.com/nakanaka07/kueccha/internal/adapters/events"
	"github.com/nakanaka07/kueccha/internal/adapters/search"
	"github.com/nakanaka07/kueccha/internal/adapters/sources/csvfile"
	sheetsource "github.com/nakanaka07/kueccha/internal/adapters/sources/sheets"
	"github.com/nakanaka07/kueccha/internal/api/handlers"
	"github.com/nakanaka07/kueccha/internal/api/middleware"
	"github.com/nakanaka07/kueccha/internal/api/routes"
	"github.com/nakanaka07/kueccha/internal/application/services"
	"github.com/nakanaka07/kueccha/internal/domain/mapping"
	"github.com/nakanaka07/kueccha/internal/domain/providers"
	"github.com/nakanaka07/kueccha/internal/domain/repositories"
	"github.com/nakanaka07/kueccha/internal/infrastructure/clients/redis"
	"github.com/nakanaka07/kueccha/internal/infrastructure/clients/sheets"
	"github.com/nakanaka07/kueccha/internal/infrastructure/clients/typesense"
	"github.com/nakanaka07/kueccha/internal/infrastructure/observability"
	"github.com/nakanaka07/kueccha/pkg/config"
)

// newPOISource selects the data source per feature flags: the Sheets API by
// default, the static CSV exports when sheets are disabled or unconfigured.
func newPOISource(cfg *config.Config, flags *services.FeatureFlags, cacheProvider providers.CacheProvider, eventBus providers.EventBus, metrics *observability.Metrics) (repositories.POISource, error) {
	policy := mapping.PolicyLenient
	if flags.StrictValidation() {
		policy = mapping.PolicyStrict
	}

	if flags.UseGoogleSheets() && cfg.Sheets.SpreadsheetID != "" {
		client, err := sheets.NewClient(&cfg.Sheets)
		if err != nil {
			return nil, err
		}
		log.Println("POI source: Google Sheets")
		return sheetsource.NewSource(client, cacheProvider, eventBus, metrics, cfg.Cache.TTL, policy), nil
	}

	log.Println("POI source: static CSV fallback")
	return csvfile.NewSource(&cfg.CSV, cacheProvider, metrics, cfg.Cache.TTL)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize Redis client when configured
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis client: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("Redis client initialized successfully")
		}
	}

	// Cache: Redis when available, in-process LRU otherwise
	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	} else {
		memCache, err := cache.NewMemoryAdapter(cfg.Cache.MaxEntries)
		if err != nil {
			log.Fatalf("Failed to initialize memory cache: %v", err)
		}
		cacheProvider = memCache
		log.Println("Using in-process memory cache (Redis not configured)")
	}

	// Initialize Typesense client when configured
	var searchRepo repositories.POISearchRepository
	if cfg.Typesense.URL != "" {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := adapter.InitSchema(context.Background()); err != nil {
				log.Printf("Warning: Failed to init Typesense schema: %v", err)
			}
			searchRepo = adapter
			log.Println("Typesense search initialized successfully")
		}
	}

	// Initialize event bus for cross-instance cache invalidation
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Pick the data source per feature flags
	flags := services.NewFeatureFlags()
	source, err := newPOISource(cfg, flags, cacheProvider, eventBus, metrics)
	if err != nil {
		log.Fatalf("Failed to initialize POI source: %v", err)
	}

	// Initialize services
	poiService := services.NewPOIService(source, cacheProvider, eventBus, searchRepo, cfg.Cache.TTL)

	var cacheInvalidationService *services.CacheInvalidationService
	if eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Printf("Warning: Failed to start cache invalidation service: %v", err)
		} else {
			log.Println("Cache invalidation service started successfully")
		}
	}

	if cfg.Cache.WarmingInterval > 0 {
		warmingService := services.NewCacheWarmingService(poiService)
		warmingService.StartPeriodicWarming(ctx, cfg.Cache.WarmingInterval)
	}

	// Initialize handlers and router
	poiHandler := handlers.NewPOIHandler(poiService)
	cacheMiddleware := middleware.NewCacheMiddleware(cacheProvider)

	router := routes.NewRouter(poiHandler, cacheMiddleware, metrics)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	log.Println("Server stopped")
}
