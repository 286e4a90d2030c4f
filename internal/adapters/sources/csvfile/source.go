// Package csvfile serves POIs from static CSV exports. It is the fallback
// data path used when the Sheets API is disabled or unconfigured.
package csvfile

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
	"github.com/nakanaka07/kueccha/internal/domain/providers"
	"github.com/nakanaka07/kueccha/internal/infrastructure/observability"
	"github.com/nakanaka07/kueccha/pkg/config"
	apperrors "github.com/nakanaka07/kueccha/pkg/errors"
)

const defaultHTTPTimeout = 10 * time.Second

// cacheKey holds the concatenated rows of every configured file.
const cacheKey = "poi:csv:all"

// fileCategories assigns a default POI category per export file, applied when
// a row carries no category of its own.
var fileCategories = map[string]string{
	"restaurants.csv": "restaurant",
	"parkings.csv":    "parking",
	"toilets.csv":     "toilet",
}

// fileAreas assigns a default area per export file for rows without an area
// column value.
var fileAreas = map[string]entities.Area{
	"parkings.csv": entities.AreaParking,
	"toilets.csv":  entities.AreaPublicToilet,
}

// Source reads POIs out of CSV files served over HTTP.
type Source struct {
	baseURL    string
	files      []string
	httpClient *http.Client
	cache      providers.CacheProvider
	metrics    *observability.Metrics
	ttl        time.Duration
}

// NewSource creates a CSV-backed POI source. cache may be nil.
func NewSource(cfg *config.CSVConfig, cache providers.CacheProvider, metrics *observability.Metrics, ttl time.Duration) (*Source, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("csv base url is required")
	}
	return &Source{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		files:      cfg.Files,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		cache:      cache,
		metrics:    metrics,
		ttl:        ttl,
	}, nil
}

// Areas returns every area this source can populate.
func (s *Source) Areas() []entities.Area {
	return append(entities.NormalAreas(), entities.AreaRecommend)
}

// FetchArea returns the POIs of one area, loading and concatenating all
// configured files on the first call and filtering the merged set.
func (s *Source) FetchArea(ctx context.Context, area entities.Area, useCache bool) ([]entities.POI, error) {
	if area.SheetName() == "" {
		return nil, apperrors.NewValidationError("area has no data source", string(area))
	}

	all, err := s.fetchAll(ctx, useCache)
	if err != nil {
		return nil, err
	}

	pois := make([]entities.POI, 0, len(all))
	for _, poi := range all {
		if poi.Area == area {
			pois = append(pois, poi)
		}
	}
	return pois, nil
}

// fetchAll loads every configured file. A file that fails to download or
// parse is logged and skipped; only a fully empty result is an error.
func (s *Source) fetchAll(ctx context.Context, useCache bool) ([]entities.POI, error) {
	logger := observability.LoggerFromContext(ctx)

	if useCache && s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var pois []entities.POI
			if err := json.Unmarshal(data, &pois); err == nil {
				observability.RecordCacheHit(ctx, s.metrics, cacheKey)
				return pois, nil
			}
			_ = s.cache.Delete(ctx, cacheKey)
		}
		observability.RecordCacheMiss(ctx, s.metrics, cacheKey)
	}

	var all []entities.POI
	failures := 0
	for _, file := range s.files {
		start := time.Now()
		pois, err := s.fetchFile(ctx, file)
		observability.RecordFetchMetric(ctx, s.metrics, file, "csv", err == nil, time.Since(start))
		if err != nil {
			failures++
			logger.Warn().Err(err).Str("file", file).Msg("skipping csv file")
			continue
		}
		all = append(all, pois...)
	}

	if failures == len(s.files) {
		return nil, apperrors.NewNetworkError("all csv files failed to load", nil)
	}

	if s.cache != nil {
		if data, err := json.Marshal(all); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.ttl); err != nil {
				logger.Warn().Err(err).Str("key", cacheKey).Msg("cache write failed")
			}
		}
	}

	return all, nil
}

func (s *Source) fetchFile(ctx context.Context, file string) ([]entities.POI, error) {
	endpoint := s.baseURL + "/" + file

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build csv request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("csv request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("csv endpoint returned status %d", resp.StatusCode)
	}

	return ParseFile(path.Base(file), resp.Body)
}

// ParseFile decodes one CSV export. The first record is the header; columns
// are matched by name so exports can reorder or extend them.
func ParseFile(filename string, r io.Reader) ([]entities.POI, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []entities.POI{}, nil
		}
		return nil, apperrors.NewDataFormatError("csv header is unreadable", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := idx["name"]; !ok {
		return nil, apperrors.NewDataFormatError("csv header has no name column", nil)
	}

	defaultCategory := fileCategories[filename]
	defaultArea := fileAreas[filename]

	var pois []entities.POI
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewDataFormatError("csv record is malformed", err)
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		name := field("name")
		if name == "" {
			continue
		}

		area := defaultArea
		if parsed, ok := entities.ParseArea(field("area")); ok && !parsed.Virtual() {
			area = parsed
		}
		if area == "" {
			continue
		}

		category := field("category")
		if category == "" {
			category = defaultCategory
		}

		key := field("key")
		if key == "" {
			key = uuid.NewString()
		}

		pois = append(pois, entities.POI{
			Key:      key,
			Name:     name,
			Area:     area,
			Category: category,
			Genre:    field("genre"),
			Location: entities.Location{
				Lat: parseFloat(field("lat")),
				Lng: parseFloat(field("lng")),
			},
			Address:     field("address"),
			Phone:       field("phone"),
			Description: field("description"),
			Information: field("information"),
		})
	}

	return pois, nil
}

// parseFloat coerces blanks and garbage to 0, matching the lenient sheet
// transform.
func parseFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}
