package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakanaka07/kueccha/internal/api/handlers"
	"github.com/nakanaka07/kueccha/internal/application/services"
	"github.com/nakanaka07/kueccha/internal/domain/entities"
	apperrors "github.com/nakanaka07/kueccha/pkg/errors"
)

type stubPOISource struct {
	data map[entities.Area][]entities.POI
	err  error
}

func (s *stubPOISource) FetchArea(ctx context.Context, area entities.Area, useCache bool) ([]entities.POI, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data[area], nil
}

func (s *stubPOISource) Areas() []entities.Area {
	return append(entities.NormalAreas(), entities.AreaRecommend)
}

func newHandler(source *stubPOISource) *handlers.POIHandler {
	service := services.NewPOIService(source, nil, nil, nil, time.Minute)
	return handlers.NewPOIHandler(service)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestPOIHandler_ListPOIs(t *testing.T) {
	source := &stubPOISource{data: map[entities.Area][]entities.POI{
		entities.AreaRyotsuAikawa: {
			{Key: "poi-001", Name: "Joe's Diner", Area: entities.AreaRyotsuAikawa},
		},
		entities.AreaParking: {
			{Key: "pk-001", Name: "Ferry Terminal Lot", Area: entities.AreaParking},
		},
	}}
	handler := newHandler(source)

	req := httptest.NewRequest("GET", "/api/pois", nil)
	w := httptest.NewRecorder()
	handler.ListPOIs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["count"])
}

func TestPOIHandler_GetAreaPOIs(t *testing.T) {
	source := &stubPOISource{data: map[entities.Area][]entities.POI{
		entities.AreaSnack: {
			{Key: "poi-010", Name: "Bar Hontenmachi", Area: entities.AreaSnack},
		},
	}}
	handler := newHandler(source)

	req := httptest.NewRequest("GET", "/api/pois/SNACK", nil)
	req.SetPathValue("area", "SNACK")
	w := httptest.NewRecorder()
	handler.GetAreaPOIs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "SNACK", body["area"])
	assert.Equal(t, float64(1), body["count"])
}

func TestPOIHandler_GetAreaPOIs_UnknownArea(t *testing.T) {
	handler := newHandler(&stubPOISource{})

	req := httptest.NewRequest("GET", "/api/pois/ATLANTIS", nil)
	req.SetPathValue("area", "ATLANTIS")
	w := httptest.NewRecorder()
	handler.GetAreaPOIs(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPOIHandler_GetAreaPOIs_VirtualAreaRejected(t *testing.T) {
	handler := newHandler(&stubPOISource{})

	req := httptest.NewRequest("GET", "/api/pois/CURRENT_LOCATION", nil)
	req.SetPathValue("area", "CURRENT_LOCATION")
	w := httptest.NewRecorder()
	handler.GetAreaPOIs(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPOIHandler_GetAreaPOIs_TimeoutMapsToGatewayTimeout(t *testing.T) {
	source := &stubPOISource{err: apperrors.NewTimeoutError("request timed out", nil)}
	handler := newHandler(source)

	req := httptest.NewRequest("GET", "/api/pois/SNACK", nil)
	req.SetPathValue("area", "SNACK")
	w := httptest.NewRecorder()
	handler.GetAreaPOIs(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, apperrors.CodeRequestTimeout, body["code"])
}

func TestPOIHandler_GetNearbyPOIs(t *testing.T) {
	source := &stubPOISource{data: map[entities.Area][]entities.POI{
		entities.AreaRyotsuAikawa: {
			{Key: "near", Name: "Joe's Diner", Area: entities.AreaRyotsuAikawa,
				Location: entities.Location{Lat: 38.06, Lng: 138.40}},
			{Key: "far", Name: "Aikawa Museum", Area: entities.AreaRyotsuAikawa,
				Location: entities.Location{Lat: 38.50, Lng: 138.40}},
		},
	}}
	handler := newHandler(source)

	req := httptest.NewRequest("GET", "/api/pois/nearby?lat=38.05&lng=138.40&radius_km=5", nil)
	w := httptest.NewRecorder()
	handler.GetNearbyPOIs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])
}

func TestPOIHandler_GetNearbyPOIs_MissingCoordinates(t *testing.T) {
	handler := newHandler(&stubPOISource{})

	req := httptest.NewRequest("GET", "/api/pois/nearby?lng=138.40", nil)
	w := httptest.NewRecorder()
	handler.GetNearbyPOIs(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPOIHandler_SearchPOIs(t *testing.T) {
	source := &stubPOISource{data: map[entities.Area][]entities.POI{
		entities.AreaRyotsuAikawa: {
			{Key: "poi-001", Name: "Joe's Diner", Area: entities.AreaRyotsuAikawa, Genre: "western"},
			{Key: "poi-002", Name: "Sado Ramen", Area: entities.AreaRyotsuAikawa, Genre: "ramen"},
		},
	}}
	handler := newHandler(source)

	req := httptest.NewRequest("GET", "/api/pois/search?q=ramen", nil)
	w := httptest.NewRecorder()
	handler.SearchPOIs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])
}

func TestPOIHandler_SearchPOIs_BadLimit(t *testing.T) {
	handler := newHandler(&stubPOISource{})

	req := httptest.NewRequest("GET", "/api/pois/search?q=ramen&limit=lots", nil)
	w := httptest.NewRecorder()
	handler.SearchPOIs(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPOIHandler_RefreshPOIs(t *testing.T) {
	source := &stubPOISource{data: map[entities.Area][]entities.POI{
		entities.AreaParking: {
			{Key: "pk-001", Name: "Ferry Terminal Lot", Area: entities.AreaParking},
		},
	}}
	handler := newHandler(source)

	req := httptest.NewRequest("POST", "/api/pois/refresh", nil)
	w := httptest.NewRecorder()
	handler.RefreshPOIs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "refreshed", body["status"])
	assert.Equal(t, float64(1), body["count"])
}
