package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
)

func TestDocumentRoundTrip(t *testing.T) {
	poi := entities.POI{
		Key:      "poi-001",
		Name:     "Joe's Diner",
		Area:     entities.AreaRyotsuAikawa,
		Category: "restaurant",
		Genre:    "western",
		Address:  "1 Main St",
		Location: entities.Location{Lat: 38.05, Lng: 138.40},
	}

	doc := toDocument(poi)
	assert.Equal(t, "poi-001", doc["id"])
	assert.Equal(t, []float64{38.05, 138.40}, doc["location"])

	// Typesense hands documents back as untyped maps with numbers decoded
	// as float64 inside []interface{}.
	doc["location"] = []interface{}{38.05, 138.40}

	got := fromDocument(doc)
	assert.Equal(t, poi.Key, got.Key)
	assert.Equal(t, poi.Name, got.Name)
	assert.Equal(t, poi.Area, got.Area)
	assert.Equal(t, poi.Category, got.Category)
	assert.Equal(t, poi.Genre, got.Genre)
	assert.Equal(t, poi.Address, got.Address)
	assert.InDelta(t, poi.Location.Lat, got.Location.Lat, 1e-9)
	assert.InDelta(t, poi.Location.Lng, got.Location.Lng, 1e-9)
}

func TestFromDocument_MissingFields(t *testing.T) {
	got := fromDocument(map[string]interface{}{"id": "poi-002"})
	assert.Equal(t, "poi-002", got.Key)
	assert.Empty(t, got.Name)
	assert.Zero(t, got.Location.Lat)
}
