// Package sheets adapts the Google Sheets values API into a POI source with
// cache-aside reads and classified retry.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
	"github.com/nakanaka07/kueccha/internal/domain/mapping"
	"github.com/nakanaka07/kueccha/internal/domain/providers"
	sheetsapi "github.com/nakanaka07/kueccha/internal/infrastructure/clients/sheets"
	"github.com/nakanaka07/kueccha/internal/infrastructure/observability"
	apperrors "github.com/nakanaka07/kueccha/pkg/errors"
	"github.com/nakanaka07/kueccha/pkg/retry"
)

// defaultMaxRows bounds the requested range. Sheets larger than this are
// truncated rather than paged; no area sheet comes close in practice.
const defaultMaxRows = 1000

// headerRows is the number of leading bookkeeping rows each sheet carries.
const headerRows = 1

// RangeFetcher is the slice of the sheets client the source depends on.
type RangeFetcher interface {
	FetchRange(ctx context.Context, sheetName, a1Range string) ([][]string, error)
}

// CacheKey returns the cache key holding one area's POI list.
func CacheKey(area entities.Area) string {
	return "poi:area:" + string(area)
}

// Source fetches, transforms, and caches POIs area by area.
type Source struct {
	client   RangeFetcher
	cache    providers.CacheProvider
	eventBus providers.EventBus
	metrics  *observability.Metrics
	schema   []mapping.Column
	policy   mapping.Policy
	ttl      time.Duration
	retryCfg retry.Config
	maxRows  int
}

// NewSource creates a sheets-backed POI source. cache may be nil, in which
// case every read goes to the API; eventBus may be nil, in which case fresh
// fetches are not announced.
func NewSource(client RangeFetcher, cache providers.CacheProvider, eventBus providers.EventBus, metrics *observability.Metrics, ttl time.Duration, policy mapping.Policy) *Source {
	return &Source{
		client:   client,
		cache:    cache,
		eventBus: eventBus,
		metrics:  metrics,
		schema:   mapping.SheetSchema,
		policy:   policy,
		ttl:      ttl,
		retryCfg: retry.DefaultConfig(),
		maxRows:  defaultMaxRows,
	}
}

// Areas returns every area this source can fetch, the recommended overlay
// included.
func (s *Source) Areas() []entities.Area {
	return append(entities.NormalAreas(), entities.AreaRecommend)
}

// FetchArea returns the POIs of one area. With useCache it serves a fresh
// cache entry when present; fetched results are written back with the
// configured TTL.
func (s *Source) FetchArea(ctx context.Context, area entities.Area, useCache bool) ([]entities.POI, error) {
	ctx, span := observability.StartSpan(ctx, "sheets.FetchArea")
	defer span.End()

	sheetName := area.SheetName()
	if sheetName == "" {
		return nil, apperrors.NewValidationError("area has no data source", string(area))
	}

	key := CacheKey(area)
	if useCache && s.cache != nil {
		if pois, ok := s.readCache(ctx, key); ok {
			observability.RecordCacheHit(ctx, s.metrics, key)
			return pois, nil
		}
		observability.RecordCacheMiss(ctx, s.metrics, key)
	}

	start := time.Now()
	rows, err := s.fetchRows(ctx, area, sheetName)
	observability.RecordFetchMetric(ctx, s.metrics, string(area), "sheets", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	if len(rows) <= headerRows {
		return []entities.POI{}, nil
	}

	pois, err := mapping.TransformRows(rows[headerRows:], area, s.schema, s.policy)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, key, pois)
	s.publishUpdate(ctx, area, len(pois))
	return pois, nil
}

// publishUpdate announces a fresh fetch so other holders of the area's cache
// entries drop them. Best-effort: a bus failure never fails the fetch.
func (s *Source) publishUpdate(ctx context.Context, area entities.Area, count int) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewPOIEvent(area, entities.POIEventTypeAreaUpdated, count)
	if err := s.eventBus.Publish(ctx, providers.EventChannelPOIUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("area", string(area)).Msg("area update publish failed")
	}
}

// fetchRows pulls the sheet's raw rows with exponential backoff. Errors that
// cannot heal on retry abort the loop immediately.
func (s *Source) fetchRows(ctx context.Context, area entities.Area, sheetName string) ([][]string, error) {
	rangeRef := fmt.Sprintf("A1:%s%d", sheetsapi.ColumnLetter(mapping.MaxColumn(s.schema)), s.maxRows)
	logger := observability.LoggerFromContext(ctx)

	var rows [][]string
	attempt := 0
	maxRetries := s.retryCfg.MaxAttempts - 1

	err := retry.DoWithLog(ctx, s.retryCfg, "sheets", func() error {
		fetched, fetchErr := s.client.FetchRange(ctx, sheetName, rangeRef)
		if fetchErr != nil {
			classified := apperrors.Classify(fetchErr, attempt, maxRetries)
			attempt++
			if !classified.Retryable() {
				return retry.Permanent(classified)
			}
			return classified
		}
		rows = fetched
		return nil
	}, func(n int, err error, nextDelay time.Duration) {
		logger.Warn().
			Err(err).
			Str("area", string(area)).
			Int("attempt", n).
			Dur("next_delay", nextDelay).
			Msg("sheet fetch failed, retrying")
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Classify(err, maxRetries, maxRetries)
	}

	return rows, nil
}

func (s *Source) readCache(ctx context.Context, key string) ([]entities.POI, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}

	var pois []entities.POI
	if err := json.Unmarshal(data, &pois); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return pois, true
}

// writeCache stores the fetched POIs best-effort; a failed write never fails
// the fetch.
func (s *Source) writeCache(ctx context.Context, key string, pois []entities.POI) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(pois)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
