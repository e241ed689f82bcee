package eligibility

import (
	"strings"

	"superteam-earn/internal/models"
)

// regions maps a listing region to the countries whose talent may apply.
var regions = map[string][]string{
	"India":          {"India"},
	"Vietnam":        {"Vietnam"},
	"Germany":        {"Germany"},
	"Turkey":         {"Turkey"},
	"Mexico":         {"Mexico"},
	"UK":             {"United Kingdom"},
	"UAE":            {"United Arab Emirates"},
	"Nigeria":        {"Nigeria"},
	"Israel":         {"Israel"},
	"Brazil":         {"Brazil"},
	"Malaysia":       {"Malaysia"},
	"Singapore":      {"Singapore"},
	"Japan":          {"Japan"},
	"Canada":         {"Canada"},
	"Balkan":         {"Albania", "Bosnia and Herzegovina", "Bulgaria", "Croatia", "Kosovo", "Montenegro", "North Macedonia", "Romania", "Serbia", "Slovenia"},
	"Baltic":         {"Estonia", "Latvia", "Lithuania"},
	"Southeast Asia": {"Brunei", "Cambodia", "Indonesia", "Laos", "Malaysia", "Myanmar", "Philippines", "Singapore", "Thailand", "Vietnam"},
	"Africa":         {"Ghana", "Kenya", "Nigeria", "Rwanda", "South Africa", "Uganda", "Tanzania", "Egypt", "Morocco"},
}

// IsRegionEligible reports whether a talent located in userLocation may take
// part in a listing restricted to listingRegion.
func IsRegionEligible(listingRegion, userLocation string) bool {
	if listingRegion == "" || strings.EqualFold(listingRegion, models.RegionGlobal) {
		return true
	}
	if userLocation == "" {
		return false
	}
	if strings.EqualFold(listingRegion, userLocation) {
		return true
	}
	for region, countries := range regions {
		if !strings.EqualFold(region, listingRegion) {
			continue
		}
		for _, country := range countries {
			if strings.EqualFold(country, userLocation) {
				return true
			}
		}
	}
	return false
}

// IsKnownRegion reports whether region is Global or in the region table.
func IsKnownRegion(region string) bool {
	_, ok := CanonicalRegion(region)
	return ok
}

// CanonicalRegion returns the stored spelling of a region name matched
// without regard to case.
func CanonicalRegion(region string) (string, bool) {
	region = strings.TrimSpace(region)
	if strings.EqualFold(region, models.RegionGlobal) {
		return models.RegionGlobal, true
	}
	for name := range regions {
		if strings.EqualFold(name, region) {
			return name, true
		}
	}
	return "", false
}
