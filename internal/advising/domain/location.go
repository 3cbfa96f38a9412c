package domain

import "strings"

// Known meeting locations. Any other non-blank text is accepted as is.
const (
	LocationCareerCenter  = "Career Center"
	LocationVirtual       = "Virtual"
	LocationAdvisorOffice = "Advisor Office"
)

// DefaultLocation is used when a booking names no location.
const DefaultLocation = LocationCareerCenter

// maxLocationLength bounds free-text locations.
const maxLocationLength = 200

// KnownLocations lists the locations offered by the booking form.
func KnownLocations() []string {
	return []string{LocationCareerCenter, LocationVirtual, LocationAdvisorOffice}
}

// NormalizeLocation trims input, defaults blank input and folds a known
// location to its canonical spelling.
func NormalizeLocation(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLocation, nil
	}
	for _, known := range KnownLocations() {
		if strings.EqualFold(s, known) {
			return known, nil
		}
	}
	if len(s) > maxLocationLength {
		return "", InvalidRequest("location")
	}
	return s, nil
}
