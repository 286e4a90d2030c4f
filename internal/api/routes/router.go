package routes

import (
	"log"
	"net/http"

	"github.com/nakanaka07/kueccha/internal/api/handlers"
	"github.com/nakanaka07/kueccha/internal/api/middleware"
	"github.com/nakanaka07/kueccha/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	poiHandler *handlers.POIHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	poiHandler *handlers.POIHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		poiHandler:      poiHandler,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// refreshPOIs runs the manual refresh and then drops every cached HTTP
// response, so clients never read payloads older than the purged data caches.
func (r *Router) refreshPOIs(w http.ResponseWriter, req *http.Request) {
	r.poiHandler.RefreshPOIs(w, req)

	if r.cacheMiddleware != nil {
		if err := r.cacheMiddleware.InvalidateAll(req); err != nil {
			log.Printf("Failed to invalidate HTTP response cache: %v", err)
		}
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// POI endpoints. The literal segments win over {area}, so nearby and
	// search are never swallowed by the area route.
	r.mux.HandleFunc("GET /api/pois", r.poiHandler.ListPOIs)
	r.mux.HandleFunc("GET /api/pois/nearby", r.poiHandler.GetNearbyPOIs)
	r.mux.HandleFunc("GET /api/pois/search", r.poiHandler.SearchPOIs)
	r.mux.HandleFunc("GET /api/pois/{area}", r.poiHandler.GetAreaPOIs)
	r.mux.HandleFunc("POST /api/pois/refresh", r.refreshPOIs)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
