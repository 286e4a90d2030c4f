package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakanaka07/kueccha/internal/adapters/cache"
	"github.com/nakanaka07/kueccha/internal/api/handlers"
	"github.com/nakanaka07/kueccha/internal/api/middleware"
	"github.com/nakanaka07/kueccha/internal/api/routes"
	"github.com/nakanaka07/kueccha/internal/application/services"
	"github.com/nakanaka07/kueccha/internal/domain/entities"
)

// mutableSource lets a test change the upstream data set between requests.
type mutableSource struct {
	mu   sync.Mutex
	data map[entities.Area][]entities.POI
}

func (s *mutableSource) FetchArea(_ context.Context, area entities.Area, _ bool) ([]entities.POI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[area], nil
}

func (s *mutableSource) Areas() []entities.Area {
	return append(entities.NormalAreas(), entities.AreaRecommend)
}

func (s *mutableSource) add(area entities.Area, poi entities.POI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[area] = append(s.data[area], poi)
}

func newTestRouter(t *testing.T, source *mutableSource) http.Handler {
	t.Helper()
	mem, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)

	poiService := services.NewPOIService(source, nil, nil, nil, time.Minute)
	poiHandler := handlers.NewPOIHandler(poiService)
	cacheMiddleware := middleware.NewCacheMiddleware(mem)

	return routes.NewRouter(poiHandler, cacheMiddleware, nil).SetupRoutes()
}

func doRequest(t *testing.T, handler http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(method, target, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRouter_RefreshPurgesHTTPResponseCache(t *testing.T) {
	source := &mutableSource{data: map[entities.Area][]entities.POI{
		entities.AreaSnack: {{Key: "poi-001", Name: "スナック 潮風", Area: entities.AreaSnack}},
	}}
	handler := newTestRouter(t, source)

	first, body := doRequest(t, handler, "GET", "/api/pois")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, body["count"])

	source.add(entities.AreaParking, entities.POI{Key: "poi-002", Name: "両津港駐車場", Area: entities.AreaParking})

	// Still within the response TTL: the stale payload is served.
	cached, body := doRequest(t, handler, "GET", "/api/pois")
	assert.Equal(t, "HIT", cached.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, body["count"])

	refresh, body := doRequest(t, handler, "POST", "/api/pois/refresh")
	require.Equal(t, http.StatusOK, refresh.Code)
	assert.EqualValues(t, 2, body["count"])

	after, body := doRequest(t, handler, "GET", "/api/pois")
	assert.Equal(t, "MISS", after.Header().Get("X-Cache"))
	assert.EqualValues(t, 2, body["count"])
}

func TestRouter_RefreshQueryBypassesResponseCache(t *testing.T) {
	source := &mutableSource{data: map[entities.Area][]entities.POI{
		entities.AreaSnack: {{Key: "poi-001", Name: "スナック 潮風", Area: entities.AreaSnack}},
	}}
	handler := newTestRouter(t, source)

	_, body := doRequest(t, handler, "GET", "/api/pois")
	assert.EqualValues(t, 1, body["count"])

	source.add(entities.AreaSnack, entities.POI{Key: "poi-002", Name: "スナック 夜光虫", Area: entities.AreaSnack})

	// refresh=true must reach the aggregator both times, never the cache.
	fresh, body := doRequest(t, handler, "GET", "/api/pois?refresh=true")
	assert.Empty(t, fresh.Header().Get("X-Cache"))
	assert.EqualValues(t, 2, body["count"])

	source.add(entities.AreaSnack, entities.POI{Key: "poi-003", Name: "スナック 波", Area: entities.AreaSnack})

	again, body := doRequest(t, handler, "GET", "/api/pois?refresh=true")
	assert.Empty(t, again.Header().Get("X-Cache"))
	assert.EqualValues(t, 3, body["count"])
}
