package services

import (
	"os"
)

type FeatureFlags struct {
	useGoogleSheets  bool
	strictValidation bool
}

func NewFeatureFlags() *FeatureFlags {
	sheets := os.Getenv("FEATURE_USE_GOOGLE_SHEETS") != "false"
	strict := os.Getenv("FEATURE_STRICT_VALIDATION") == "true"

	return &FeatureFlags{
		useGoogleSheets:  sheets,
		strictValidation: strict,
	}
}

// UseGoogleSheets reports whether POIs come from the Sheets API. When false
// the static CSV fallback serves instead.
func (f *FeatureFlags) UseGoogleSheets() bool {
	return f.useGoogleSheets
}

// StrictValidation reports whether malformed rows abort an area fetch
// instead of being skipped or coerced.
func (f *FeatureFlags) StrictValidation() bool {
	return f.strictValidation
}
