package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"golang.org/x/sync/singleflight"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
	"github.com/nakanaka07/kueccha/internal/domain/providers"
	"github.com/nakanaka07/kueccha/internal/domain/repositories"
	apperrors "github.com/nakanaka07/kueccha/pkg/errors"
)

// allCacheKey holds the merged cross-area POI list.
const allCacheKey = "poi:all"

// POIService aggregates POIs across areas and is the single entry point the
// API layer talks to.
type POIService struct {
	source     repositories.POISource
	cache      providers.CacheProvider
	eventBus   providers.EventBus
	searchRepo repositories.POISearchRepository
	ttl        time.Duration
	group      singleflight.Group
}

// NewPOIService creates a new POI service. cache, eventBus, and searchRepo
// may each be nil; the service degrades to direct fetches without them.
func NewPOIService(
	source repositories.POISource,
	cache providers.CacheProvider,
	eventBus providers.EventBus,
	searchRepo repositories.POISearchRepository,
	ttl time.Duration,
) *POIService {
	return &POIService{
		source:     source,
		cache:      cache,
		eventBus:   eventBus,
		searchRepo: searchRepo,
		ttl:        ttl,
	}
}

// FetchArea returns one area's POIs. Concurrent requests for the same area
// share a single upstream fetch.
func (s *POIService) FetchArea(ctx context.Context, area entities.Area, useCache bool) ([]entities.POI, error) {
	if !area.Valid() || area.Virtual() {
		return nil, apperrors.NewValidationError("unknown area", string(area))
	}

	result, err, _ := s.group.Do("area:"+string(area), func() (interface{}, error) {
		return s.source.FetchArea(ctx, area, useCache)
	})
	if err != nil {
		return nil, err
	}
	return result.([]entities.POI), nil
}

// FetchAllAreas fans out over every normal area, merges the results, and
// applies the recommended overlay on top. One failing area degrades to an
// empty contribution instead of failing the whole aggregate.
func (s *POIService) FetchAllAreas(ctx context.Context, useCache bool) ([]entities.POI, error) {
	if useCache {
		if pois, ok := s.readAggregate(ctx); ok {
			return pois, nil
		}
	}

	result, err, _ := s.group.Do(allCacheKey, func() (interface{}, error) {
		return s.aggregate(ctx, useCache)
	})
	if err != nil {
		return nil, err
	}
	return result.([]entities.POI), nil
}

func (s *POIService) aggregate(ctx context.Context, useCache bool) ([]entities.POI, error) {
	areas := entities.NormalAreas()
	perArea := make([][]entities.POI, len(areas))

	var wg sync.WaitGroup
	for i, area := range areas {
		wg.Add(1)
		go func(i int, area entities.Area) {
			defer wg.Done()
			pois, err := s.source.FetchArea(ctx, area, useCache)
			if err != nil {
				// allSettled semantics: a broken area contributes nothing.
				log.Printf("Warning: Failed to fetch area %s: %v", area, err)
				return
			}
			perArea[i] = pois
		}(i, area)
	}
	wg.Wait()

	merged := make([]entities.POI, 0, 256)
	indexByKey := make(map[string]int)
	for _, pois := range perArea {
		for _, poi := range pois {
			if at, ok := indexByKey[poi.Key]; ok {
				merged[at] = poi
				continue
			}
			indexByKey[poi.Key] = len(merged)
			merged = append(merged, poi)
		}
	}

	// The recommended sheet carries curated copies of existing POIs; its
	// version wins over the area version under the same key.
	recommended, err := s.source.FetchArea(ctx, entities.AreaRecommend, useCache)
	if err != nil {
		log.Printf("Warning: Failed to fetch recommended overlay: %v", err)
	}
	for _, poi := range recommended {
		if at, ok := indexByKey[poi.Key]; ok {
			merged[at] = poi
			continue
		}
		indexByKey[poi.Key] = len(merged)
		merged = append(merged, poi)
	}

	s.writeAggregate(ctx, merged)
	return merged, nil
}

// Nearby returns the POIs within radiusKm of a point, closest first.
func (s *POIService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]entities.POI, error) {
	center := entities.Location{Lat: lat, Lng: lng}
	if !center.InRange() {
		return nil, apperrors.NewValidationError("coordinates out of range", "")
	}
	if radiusKm <= 0 {
		return nil, apperrors.NewValidationError("radius must be positive", "")
	}

	all, err := s.FetchAllAreas(ctx, true)
	if err != nil {
		return nil, err
	}

	origin := orb.Point{lng, lat}
	type candidate struct {
		poi      entities.POI
		distance float64
	}

	candidates := make([]candidate, 0, len(all))
	for _, poi := range all {
		if poi.Location.Lat == 0 && poi.Location.Lng == 0 {
			continue
		}
		d := geo.Distance(origin, orb.Point{poi.Location.Lng, poi.Location.Lat})
		if d <= radiusKm*1000 {
			candidates = append(candidates, candidate{poi: poi, distance: d})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	pois := make([]entities.POI, len(candidates))
	for i, c := range candidates {
		pois[i] = c.poi
	}
	return pois, nil
}

// Search looks POIs up by free text, using the search index when one is
// wired and falling back to an in-memory scan of the aggregate otherwise.
func (s *POIService) Search(ctx context.Context, params repositories.POISearchParams) ([]entities.POI, error) {
	if params.Area != "" && !params.Area.Valid() {
		return nil, apperrors.NewValidationError("unknown area", string(params.Area))
	}

	if s.searchRepo != nil {
		return s.searchRepo.Search(ctx, params)
	}

	all, err := s.FetchAllAreas(ctx, true)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(params.Query))
	matches := make([]entities.POI, 0)
	for _, poi := range all {
		if params.Area != "" && poi.Area != params.Area {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(poi.Name), query) &&
			!strings.Contains(strings.ToLower(poi.Genre), query) {
			continue
		}
		matches = append(matches, poi)
		if params.Limit > 0 && len(matches) >= params.Limit {
			break
		}
	}
	return matches, nil
}

// Refresh drops every POI cache entry, refetches all areas from the source,
// reindexes the search collection, and announces the refresh on the event
// bus. It returns the number of POIs in the fresh aggregate.
func (s *POIService) Refresh(ctx context.Context) (int, error) {
	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, "poi:*"); err != nil {
			log.Printf("Warning: Failed to purge poi cache: %v", err)
		}
	}

	pois, err := s.FetchAllAreas(ctx, false)
	if err != nil {
		return 0, err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.IndexBatch(ctx, pois); err != nil {
			// Eventual consistency: serving fresh data beats a stale index.
			log.Printf("Warning: Failed to reindex pois: %v", err)
		}
	}

	if s.eventBus != nil {
		event := entities.NewPOIEvent("", entities.POIEventTypeRefresh, len(pois))
		if err := s.eventBus.Publish(ctx, providers.EventChannelPOIUpdates, event); err != nil {
			log.Printf("Warning: Failed to publish refresh event: %v", err)
		}
	}

	return len(pois), nil
}

func (s *POIService) readAggregate(ctx context.Context) ([]entities.POI, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, allCacheKey)
	if err != nil {
		return nil, false
	}
	var pois []entities.POI
	if err := json.Unmarshal(data, &pois); err != nil {
		_ = s.cache.Delete(ctx, allCacheKey)
		return nil, false
	}
	return pois, true
}

func (s *POIService) writeAggregate(ctx context.Context, pois []entities.POI) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(pois)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, allCacheKey, data, s.ttl); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Warning: Failed to cache aggregate: %v", err)
	}
}
