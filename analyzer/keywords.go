package analyzer

import "strings"

// dentalKeywords are the tracked search phrases. {city} is substituted with
// the practice's city so every analysis compares the same local terms.
var dentalKeywords = []string{
	"dentist near me",
	"dentist {city}",
	"emergency dentist {city}",
	"dental implants {city}",
	"teeth whitening {city}",
	"family dentist {city}",
	"cosmetic dentist {city}",
	"pediatric dentist {city}",
	"dental cleaning {city}",
	"root canal {city}",
	"dental crowns {city}",
	"invisalign {city}",
	"dentures {city}",
	"dental veneers {city}",
	"tooth extraction {city}",
	"best dentist {city}",
	"affordable dentist {city}",
	"dental office {city}",
}

// TrackedKeywords returns the city-substituted keyword list.
func TrackedKeywords(city string) []string {
	out := make([]string, len(dentalKeywords))
	for i, k := range dentalKeywords {
		out[i] = strings.ReplaceAll(k, "{city}", city)
	}
	return out
}

// ExtractCity pulls a city name out of a street address: the second-to-last
// comma-separated segment ("123 Main St, Austin, TX 78701" -> "Austin"), or
// the whole string when there is no comma.
func ExtractCity(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[len(parts)-2])
	}
	return strings.TrimSpace(parts[0])
}
