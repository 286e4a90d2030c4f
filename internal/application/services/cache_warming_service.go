package services

import (
	"context"
	"log"
	"time"
)

// CacheWarmingService keeps the POI caches populated so user requests rarely
// wait on the upstream source.
type CacheWarmingService struct {
	poiService *POIService
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(poiService *POIService) *CacheWarmingService {
	return &CacheWarmingService{poiService: poiService}
}

// WarmCache rebuilds the per-area entries and the merged aggregate by
// running a full fetch with caching enabled. Entries still inside their TTL
// are reused, so a warm run on a warm cache is cheap.
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	log.Println("Starting cache warming...")

	pois, err := s.poiService.FetchAllAreas(ctx, true)
	if err != nil {
		return err
	}

	log.Printf("Cache warming completed (%d pois)", len(pois))
	return nil
}

// StartPeriodicWarming starts a background goroutine that periodically warms the cache
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Printf("Initial cache warming failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("Stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(context.Background()); err != nil {
					log.Printf("Periodic cache warming failed: %v", err)
				}
			}
		}
	}()
	log.Printf("Started periodic cache warming every %v", interval)
}
