package repositories

import (
	"context"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
)

// POISource fetches the POI set of a single area from a data source
// (Google Sheets or static CSV files).
type POISource interface {
	// FetchArea returns the POIs of one area. When useCache is true a fresh
	// cached result short-circuits the fetch.
	FetchArea(ctx context.Context, area entities.Area, useCache bool) ([]entities.POI, error)

	// Areas lists the areas this source can fetch.
	Areas() []entities.Area
}
