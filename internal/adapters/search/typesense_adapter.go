package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
	"github.com/nakanaka07/kueccha/internal/domain/repositories"
	tsclient "github.com/nakanaka07/kueccha/internal/infrastructure/clients/typesense"
)

const defaultSearchLimit = 50

// TypesenseAdapter implements POI search using Typesense.
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements POISearchRepository
var _ repositories.POISearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(tsclient.POICollection).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: tsclient.POICollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "area", Type: "string", Facet: pointer.True()},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "genre", Type: "string"},
			{Name: "address", Type: "string", Optional: pointer.True()},
			{Name: "location", Type: "geopoint"},
		},
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// IndexBatch upserts a batch of POIs.
func (a *TypesenseAdapter) IndexBatch(ctx context.Context, pois []entities.POI) error {
	for _, poi := range pois {
		if _, err := a.client.Client().Collection(tsclient.POICollection).Documents().Upsert(ctx, toDocument(poi)); err != nil {
			return fmt.Errorf("failed to index poi %s: %w", poi.Key, err)
		}
	}
	return nil
}

// Delete removes a POI from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, key string) error {
	_, err := a.client.Client().Collection(tsclient.POICollection).Document(key).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete poi from index: %w", err)
	}
	return nil
}

// Search performs a full-text search over POI names and genres, optionally
// restricted to one area.
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.POISearchParams) ([]entities.POI, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" {
		query = "*"
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("name,genre"),
		PerPage: pointer.Int(limit),
	}
	if params.Area != "" {
		searchParams.FilterBy = pointer.String(fmt.Sprintf("area:=%s", params.Area))
	}

	result, err := a.client.Client().Collection(tsclient.POICollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search pois: %w", err)
	}

	pois := []entities.POI{}
	if result.Hits == nil {
		return pois, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		pois = append(pois, fromDocument(*hit.Document))
	}

	return pois, nil
}

func toDocument(poi entities.POI) map[string]interface{} {
	return map[string]interface{}{
		"id":       poi.Key,
		"name":     poi.Name,
		"area":     string(poi.Area),
		"category": poi.Category,
		"genre":    poi.Genre,
		"address":  poi.Address,
		"location": []float64{poi.Location.Lat, poi.Location.Lng},
	}
}

// fromDocument rebuilds the searchable subset of a POI. Typesense returns
// untyped maps, so missing or mistyped fields are left at their zero value.
func fromDocument(doc map[string]interface{}) entities.POI {
	poi := entities.POI{}

	if val, ok := doc["id"].(string); ok {
		poi.Key = val
	}
	if val, ok := doc["name"].(string); ok {
		poi.Name = val
	}
	if val, ok := doc["area"].(string); ok {
		poi.Area = entities.Area(val)
	}
	if val, ok := doc["category"].(string); ok {
		poi.Category = val
	}
	if val, ok := doc["genre"].(string); ok {
		poi.Genre = val
	}
	if val, ok := doc["address"].(string); ok {
		poi.Address = val
	}
	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		if lat, ok := loc[0].(float64); ok {
			poi.Location.Lat = lat
		}
		if lng, ok := loc[1].(float64); ok {
			poi.Location.Lng = lng
		}
	}

	return poi
}
