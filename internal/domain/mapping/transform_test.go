package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
	"github.com/nakanaka07/kueccha/internal/domain/mapping"
	apperrors "github.com/nakanaka07/kueccha/pkg/errors"
)

// sampleRow builds a sheet row with the POI block populated at the schema's
// column offsets.
func sampleRow() []string {
	row := make([]string, 50)
	row[26] = "Cafe"
	row[27] = "Coffee"
	row[28] = "9:00-17:00" // monday
	row[35] = "closed"     // holiday
	row[36] = "quiet place"
	row[37] = "not required"
	row[38] = "cash only"
	row[39] = "0259-00-0000"
	row[40] = "1 Main St"
	row[41] = "info"
	row[42] = "view"
	row[43] = "Joe's Diner"
	row[46] = "138.40"
	row[47] = "38.05"
	row[49] = "poi-001"
	return row
}

func TestTransform_ValidRow(t *testing.T) {
	poi, err := mapping.Transform(sampleRow(), entities.AreaRyotsuAikawa, mapping.SheetSchema, mapping.PolicyLenient)
	require.NoError(t, err)

	assert.Equal(t, "poi-001", poi.Key)
	assert.Equal(t, "Joe's Diner", poi.Name)
	assert.Equal(t, entities.AreaRyotsuAikawa, poi.Area)
	assert.Equal(t, entities.Location{Lat: 38.05, Lng: 138.40}, poi.Location)
	assert.Equal(t, "1 Main St", poi.Address)
	assert.Equal(t, "Cafe", poi.Category)
	assert.Equal(t, "Coffee", poi.Genre)
	assert.Equal(t, "info", poi.Information)
	assert.Equal(t, "view", poi.View)
	assert.Equal(t, "9:00-17:00", poi.Hours.Monday)
	assert.Equal(t, "closed", poi.Hours.Holiday)
	assert.Empty(t, poi.Hours.Tuesday, "absent cells default to empty strings")
}

func TestTransform_MissingNameLenient(t *testing.T) {
	row := sampleRow()
	row[43] = ""

	_, err := mapping.Transform(row, entities.AreaRyotsuAikawa, mapping.SheetSchema, mapping.PolicyLenient)
	assert.ErrorIs(t, err, mapping.ErrSkipRow)
}

func TestTransform_MissingNameStrict(t *testing.T) {
	row := sampleRow()
	row[43] = " "

	_, err := mapping.Transform(row, entities.AreaRyotsuAikawa, mapping.SheetSchema, mapping.PolicyStrict)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Contains(t, appErr.Details, "RYOTSU_AIKAWA")
	assert.Contains(t, appErr.Details, "poi-001")
}

func TestTransform_BadCoordinatesLenient(t *testing.T) {
	row := sampleRow()
	row[46] = "east-ish"
	row[47] = ""

	poi, err := mapping.Transform(row, entities.AreaRyotsuAikawa, mapping.SheetSchema, mapping.PolicyLenient)
	require.NoError(t, err)
	assert.Equal(t, entities.Location{}, poi.Location, "unparseable coordinates coerce to 0")
}

func TestTransform_BadCoordinatesStrict(t *testing.T) {
	for name, mutate := range map[string]func([]string){
		"unparseable": func(r []string) { r[47] = "north" },
		"missing":     func(r []string) { r[46] = "" },
		"lat range":   func(r []string) { r[47] = "91" },
		"lng range":   func(r []string) { r[46] = "-180.5" },
	} {
		t.Run(name, func(t *testing.T) {
			row := sampleRow()
			mutate(row)

			_, err := mapping.Transform(row, entities.AreaRyotsuAikawa, mapping.SheetSchema, mapping.PolicyStrict)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
		})
	}
}

func TestTransform_GeneratesKeyWhenAbsent(t *testing.T) {
	row := sampleRow()
	row[49] = ""

	first, err := mapping.Transform(row, entities.AreaParking, mapping.SheetSchema, mapping.PolicyLenient)
	require.NoError(t, err)
	second, err := mapping.Transform(row, entities.AreaParking, mapping.SheetSchema, mapping.PolicyLenient)
	require.NoError(t, err)

	assert.NotEmpty(t, first.Key)
	assert.NotEqual(t, first.Key, second.Key)
}

func TestTransform_ShortRow(t *testing.T) {
	// Rows shorter than the schema read as all-blank cells.
	_, err := mapping.Transform([]string{"a", "b"}, entities.AreaSnack, mapping.SheetSchema, mapping.PolicyLenient)
	assert.ErrorIs(t, err, mapping.ErrSkipRow)
}

func TestTransformRows_LenientSkipsInvalid(t *testing.T) {
	valid := sampleRow()
	noName := sampleRow()
	noName[43] = ""

	pois, err := mapping.TransformRows([][]string{valid, noName, valid}, entities.AreaRyotsuAikawa, mapping.SheetSchema, mapping.PolicyLenient)
	require.NoError(t, err)
	assert.Len(t, pois, 2)
}

func TestTransformRows_StrictAbortsBatch(t *testing.T) {
	valid := sampleRow()
	broken := sampleRow()
	broken[47] = "not-a-lat"

	_, err := mapping.TransformRows([][]string{valid, broken}, entities.AreaRyotsuAikawa, mapping.SheetSchema, mapping.PolicyStrict)
	require.Error(t, err)
}

func TestMaxColumn(t *testing.T) {
	assert.Equal(t, 49, mapping.MaxColumn(mapping.SheetSchema))
}
