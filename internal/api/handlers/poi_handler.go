package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nakanaka07/kueccha/internal/application/services"
	"github.com/nakanaka07/kueccha/internal/domain/entities"
	"github.com/nakanaka07/kueccha/internal/domain/repositories"
	apperrors "github.com/nakanaka07/kueccha/pkg/errors"
)

const defaultNearbyRadiusKm = 10.0

// POIHandler handles POI-related HTTP requests
type POIHandler struct {
	poiService *services.POIService
}

// NewPOIHandler creates a new POI handler
func NewPOIHandler(poiService *services.POIService) *POIHandler {
	return &POIHandler{poiService: poiService}
}

// ListPOIs handles GET /api/pois
func (h *POIHandler) ListPOIs(w http.ResponseWriter, r *http.Request) {
	useCache := r.URL.Query().Get("refresh") != "true"

	pois, err := h.poiService.FetchAllAreas(r.Context(), useCache)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"pois":  pois,
		"count": len(pois),
	})
}

// GetAreaPOIs handles GET /api/pois/{area}
func (h *POIHandler) GetAreaPOIs(w http.ResponseWriter, r *http.Request) {
	area, ok := entities.ParseArea(r.PathValue("area"))
	if !ok || area.Virtual() {
		respondWithError(w, http.StatusBadRequest, "unknown area")
		return
	}

	pois, err := h.poiService.FetchArea(r.Context(), area, true)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"area":  area,
		"pois":  pois,
		"count": len(pois),
	})
}

// GetNearbyPOIs handles GET /api/pois/nearby
func (h *POIHandler) GetNearbyPOIs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lat is required")
		return
	}
	lng, err := strconv.ParseFloat(query.Get("lng"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lng is required")
		return
	}

	radiusKm := defaultNearbyRadiusKm
	if raw := query.Get("radius_km"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "radius_km must be a number")
			return
		}
	}

	pois, err := h.poiService.Nearby(r.Context(), lat, lng, radiusKm)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"pois":  pois,
		"count": len(pois),
	})
}

// SearchPOIs handles GET /api/pois/search
func (h *POIHandler) SearchPOIs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := repositories.POISearchParams{
		Query: query.Get("q"),
		Area:  entities.Area(query.Get("area")),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		params.Limit = limit
	}

	pois, err := h.poiService.Search(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"pois":  pois,
		"count": len(pois),
	})
}

// RefreshPOIs handles POST /api/pois/refresh
func (h *POIHandler) RefreshPOIs(w http.ResponseWriter, r *http.Request) {
	count, err := h.poiService.Refresh(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "refreshed",
		"count":  count,
	})
}

// respondWithServiceError maps the fetch error taxonomy onto HTTP statuses.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusBadGateway
	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	}

	respondWithJSON(w, status, map[string]string{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
