package repositories

import (
	"context"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
)

// POISearchParams holds the parameters of a POI search query.
type POISearchParams struct {
	Query string
	Area  entities.Area
	Limit int
}

// POISearchRepository indexes and searches POIs.
type POISearchRepository interface {
	// InitSchema ensures the search collection exists.
	InitSchema(ctx context.Context) error

	// IndexBatch upserts a batch of POIs into the index.
	IndexBatch(ctx context.Context, pois []entities.POI) error

	// Search performs a full-text search over POI names and genres.
	Search(ctx context.Context, params POISearchParams) ([]entities.POI, error)

	// Delete removes a POI from the index.
	Delete(ctx context.Context, key string) error
}
