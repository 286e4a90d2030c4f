package mapping

// Field names understood by the row mapper.
const (
	FieldCategory    = "category"
	FieldGenre       = "genre"
	FieldMonday      = "monday"
	FieldTuesday     = "tuesday"
	FieldWednesday   = "wednesday"
	FieldThursday    = "thursday"
	FieldFriday      = "friday"
	FieldSaturday    = "saturday"
	FieldSunday      = "sunday"
	FieldHoliday     = "holiday"
	FieldDescription = "description"
	FieldReservation = "reservation"
	FieldPayment     = "payment"
	FieldPhone       = "phone"
	FieldAddress     = "address"
	FieldInformation = "information"
	FieldView        = "view"
	FieldName        = "name"
	FieldLongitude   = "longitude"
	FieldLatitude    = "latitude"
	FieldKey         = "key"
)

// Column binds a POI field to a spreadsheet column index.
type Column struct {
	Field string
	Index int
}

// SheetSchema is the column layout shared by all area sheets. The POI block
// occupies columns 26-49; earlier columns hold editorial bookkeeping the
// importer ignores.
var SheetSchema = []Column{
	{FieldCategory, 26},
	{FieldGenre, 27},
	{FieldMonday, 28},
	{FieldTuesday, 29},
	{FieldWednesday, 30},
	{FieldThursday, 31},
	{FieldFriday, 32},
	{FieldSaturday, 33},
	{FieldSunday, 34},
	{FieldHoliday, 35},
	{FieldDescription, 36},
	{FieldReservation, 37},
	{FieldPayment, 38},
	{FieldPhone, 39},
	{FieldAddress, 40},
	{FieldInformation, 41},
	{FieldView, 42},
	{FieldName, 43},
	{FieldLongitude, 46},
	{FieldLatitude, 47},
	{FieldKey, 49},
}

// MaxColumn returns the highest column index a schema reads, used to build
// the sheet range request.
func MaxColumn(schema []Column) int {
	max := 0
	for _, col := range schema {
		if col.Index > max {
			max = col.Index
		}
	}
	return max
}
