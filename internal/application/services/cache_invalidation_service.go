package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
	"github.com/nakanaka07/kueccha/internal/domain/providers"
)

// CacheInvalidationService handles cache invalidation based on events
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelPOIUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to poi updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Println("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Println("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.POIEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent drops the cache entries an event makes stale. A refresh on
// another instance purges everything here too; an area update only drops
// that area plus the merged aggregate built from it.
func (s *CacheInvalidationService) handleEvent(event *entities.POIEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Printf("Processing cache invalidation for event: %s (area: %s, type: %s)",
		event.ID, event.Area, event.EventType)

	switch event.EventType {
	case entities.POIEventTypeRefresh:
		if err := s.cache.DeletePattern(ctx, "poi:*"); err != nil {
			log.Printf("Warning: Failed to purge poi cache: %v", err)
		}
	case entities.POIEventTypeAreaUpdated:
		if err := s.InvalidateAreaCache(ctx, event.Area); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
}

// InvalidateAreaCache invalidates the cache entries for a specific area.
// The aggregate is dropped as well since it embeds the area's POIs.
func (s *CacheInvalidationService) InvalidateAreaCache(ctx context.Context, area entities.Area) error {
	pattern := fmt.Sprintf("poi:area:%s*", area)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate area cache for %s: %w", area, err)
	}
	if err := s.cache.Delete(ctx, "poi:all"); err != nil {
		return fmt.Errorf("failed to invalidate aggregate cache: %w", err)
	}
	log.Printf("Invalidated cache for area %s", area)
	return nil
}

// InvalidateAll drops every POI cache entry. This should only be called
// during maintenance or major data updates.
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, "poi:*"); err != nil {
		return fmt.Errorf("failed to invalidate poi cache: %w", err)
	}
	log.Println("Invalidated all poi cache entries")
	return nil
}
