package mapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
	apperrors "github.com/nakanaka07/kueccha/pkg/errors"
)

// Policy selects how strictly rows are validated during transformation.
type Policy int

const (
	// PolicyLenient skips rows without a name and coerces unparseable
	// coordinates to 0.
	PolicyLenient Policy = iota

	// PolicyStrict returns a validation error for rows without a name or
	// with missing/out-of-range coordinates, aborting the whole area fetch.
	PolicyStrict
)

// ErrSkipRow signals that a row should be silently omitted from the result.
var ErrSkipRow = errors.New("skip row")

// setters applies one cell value to the POI under construction, keyed by
// schema field name.
var setters = map[string]func(*entities.POI, string){
	FieldCategory:    func(p *entities.POI, v string) { p.Category = v },
	FieldGenre:       func(p *entities.POI, v string) { p.Genre = v },
	FieldMonday:      func(p *entities.POI, v string) { p.Hours.Monday = v },
	FieldTuesday:     func(p *entities.POI, v string) { p.Hours.Tuesday = v },
	FieldWednesday:   func(p *entities.POI, v string) { p.Hours.Wednesday = v },
	FieldThursday:    func(p *entities.POI, v string) { p.Hours.Thursday = v },
	FieldFriday:      func(p *entities.POI, v string) { p.Hours.Friday = v },
	FieldSaturday:    func(p *entities.POI, v string) { p.Hours.Saturday = v },
	FieldSunday:      func(p *entities.POI, v string) { p.Hours.Sunday = v },
	FieldHoliday:     func(p *entities.POI, v string) { p.Hours.Holiday = v },
	FieldDescription: func(p *entities.POI, v string) { p.Description = v },
	FieldReservation: func(p *entities.POI, v string) { p.Reservation = v },
	FieldPayment:     func(p *entities.POI, v string) { p.Payment = v },
	FieldPhone:       func(p *entities.POI, v string) { p.Phone = v },
	FieldAddress:     func(p *entities.POI, v string) { p.Address = v },
	FieldInformation: func(p *entities.POI, v string) { p.Information = v },
	FieldView:        func(p *entities.POI, v string) { p.View = v },
	FieldName:        func(p *entities.POI, v string) { p.Name = v },
}

// Transform converts a raw sheet row into a POI using the schema's column
// offsets. It is a pure function over its inputs.
func Transform(row []string, area entities.Area, schema []Column, policy Policy) (entities.POI, error) {
	poi := entities.POI{Area: area}

	var latCell, lngCell, keyCell string
	for _, col := range schema {
		value := cell(row, col.Index)
		switch col.Field {
		case FieldLatitude:
			latCell = value
		case FieldLongitude:
			lngCell = value
		case FieldKey:
			keyCell = value
		default:
			if set, ok := setters[col.Field]; ok {
				set(&poi, value)
			}
		}
	}

	poi.Key = strings.TrimSpace(keyCell)
	if poi.Key == "" {
		// Rows without an explicit id still need a stable-enough identity
		// for the lifetime of this fetch cycle.
		poi.Key = uuid.NewString()
	}

	if strings.TrimSpace(poi.Name) == "" {
		if policy == PolicyStrict {
			return entities.POI{}, apperrors.NewValidationError(
				"name is required",
				fmt.Sprintf("sheet=%s row=%s", area, poi.Key),
			)
		}
		return entities.POI{}, ErrSkipRow
	}

	lat, latErr := parseCoordinate(latCell)
	lng, lngErr := parseCoordinate(lngCell)
	poi.Location = entities.Location{Lat: lat, Lng: lng}

	if policy == PolicyStrict {
		if latErr != nil || lngErr != nil || !poi.Location.InRange() {
			return entities.POI{}, apperrors.NewValidationError(
				"invalid coordinates",
				fmt.Sprintf("sheet=%s row=%s lat=%q lng=%q", area, poi.Key, latCell, lngCell),
			)
		}
	}

	return poi, nil
}

// TransformRows maps a block of data rows (header already removed) through
// Transform. Under the lenient policy skipped rows are dropped; under the
// strict policy the first validation error aborts the batch.
func TransformRows(rows [][]string, area entities.Area, schema []Column, policy Policy) ([]entities.POI, error) {
	pois := make([]entities.POI, 0, len(rows))
	for _, row := range rows {
		poi, err := Transform(row, area, schema, policy)
		if err != nil {
			if errors.Is(err, ErrSkipRow) {
				continue
			}
			return nil, err
		}
		pois = append(pois, poi)
	}
	return pois, nil
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// parseCoordinate parses a coordinate cell, treating blanks and garbage as 0.
func parseCoordinate(value string) (float64, error) {
	if value == "" {
		return 0, errors.New("empty coordinate")
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
