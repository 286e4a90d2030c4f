package entities

// Area identifies the logical grouping a POI belongs to: a geographic
// district of Sado island or a category group such as parking lots.
type Area string

const (
	AreaRyotsuAikawa        Area = "RYOTSU_AIKAWA"
	AreaKanaiSawadaNiigawa  Area = "KANAI_SAWADA_NIIGAWA"
	AreaAkadomariHamochiOgi Area = "AKADOMARI_HAMOCHI_OGI"
	AreaSnack               Area = "SNACK"
	AreaPublicToilet        Area = "PUBLIC_TOILET"
	AreaParking             Area = "PARKING"

	// AreaRecommend is an overlay: its POIs override same-key POIs from
	// the normal areas when results are merged.
	AreaRecommend Area = "RECOMMEND"

	// AreaCurrentLocation is virtual. It is synthesized from the client's
	// geolocation and never fetched from a data source.
	AreaCurrentLocation Area = "CURRENT_LOCATION"
)

// sheetNames maps each fetchable area to its spreadsheet sheet name.
var sheetNames = map[Area]string{
	AreaRyotsuAikawa:        "両津・相川",
	AreaKanaiSawadaNiigawa:  "金井・佐和田・新穂・畑野・真野",
	AreaAkadomariHamochiOgi: "赤泊・羽茂・小木",
	AreaSnack:               "スナック",
	AreaPublicToilet:        "公共トイレ",
	AreaParking:             "駐車場",
	AreaRecommend:           "おすすめ",
}

// NormalAreas returns the areas the aggregator fans out over. The
// recommended overlay and virtual areas are excluded.
func NormalAreas() []Area {
	return []Area{
		AreaRyotsuAikawa,
		AreaKanaiSawadaNiigawa,
		AreaAkadomariHamochiOgi,
		AreaSnack,
		AreaPublicToilet,
		AreaParking,
	}
}

// SheetName returns the spreadsheet sheet name for the area, or "" for
// virtual areas.
func (a Area) SheetName() string {
	return sheetNames[a]
}

// Virtual reports whether the area is synthesized client-side rather than
// fetched from a data source.
func (a Area) Virtual() bool {
	return a == AreaCurrentLocation
}

// Valid reports whether the area is one of the known tags.
func (a Area) Valid() bool {
	if a.Virtual() {
		return true
	}
	_, ok := sheetNames[a]
	return ok
}

// ParseArea converts a string into an Area, reporting whether it is known.
func ParseArea(s string) (Area, bool) {
	a := Area(s)
	return a, a.Valid()
}

// Location represents geographical coordinates
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// InRange reports whether the coordinates are inside the valid
// latitude/longitude bounds.
func (l Location) InRange() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// BusinessHours holds the opening hours text per weekday plus holidays.
// Values are free-form strings taken from the sheet.
type BusinessHours struct {
	Monday    string `json:"monday,omitempty"`
	Tuesday   string `json:"tuesday,omitempty"`
	Wednesday string `json:"wednesday,omitempty"`
	Thursday  string `json:"thursday,omitempty"`
	Friday    string `json:"friday,omitempty"`
	Saturday  string `json:"saturday,omitempty"`
	Sunday    string `json:"sunday,omitempty"`
	Holiday   string `json:"holiday,omitempty"`
}

// POI represents a single mappable point of interest: a restaurant, a
// parking lot, a public toilet. POIs are rebuilt on every fetch cycle and
// never mutated in place.
type POI struct {
	Key         string        `json:"key"`
	Name        string        `json:"name"`
	Area        Area          `json:"area"`
	Location    Location      `json:"location"`
	Category    string        `json:"category,omitempty"`
	Genre       string        `json:"genre,omitempty"`
	Information string        `json:"information,omitempty"`
	Hours       BusinessHours `json:"hours"`
	Description string        `json:"description,omitempty"`
	Reservation string        `json:"reservation,omitempty"`
	Payment     string        `json:"payment,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Address     string        `json:"address,omitempty"`
	View        string        `json:"view,omitempty"`
}
