package carriers

import (
	"sort"
	"strings"

	"github.com/dharmasatrya/skysearch/internal/models"
)

var carrierNames = map[string]string{
	"AA": "American Airlines",
	"AC": "Air Canada",
	"AF": "Air France",
	"AZ": "ITA Airways",
	"BA": "British Airways",
	"CX": "Cathay Pacific",
	"DL": "Delta Air Lines",
	"EK": "Emirates",
	"EY": "Etihad Airways",
	"GA": "Garuda Indonesia",
	"IB": "Iberia",
	"JL": "Japan Airlines",
	"JT": "Lion Air",
	"KL": "KLM",
	"LH": "Lufthansa",
	"NH": "All Nippon Airways",
	"QF": "Qantas",
	"QR": "Qatar Airways",
	"QZ": "Indonesia AirAsia",
	"SQ": "Singapore Airlines",
	"TK": "Turkish Airlines",
	"UA": "United Airlines",
	"VS": "Virgin Atlantic",
}

// Name returns the display name of a carrier code. Unknown codes are
// returned unchanged.
func Name(code string) string {
	if name, ok := carrierNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

func Lookup(code string) models.Carrier {
	return models.Carrier{Code: code, Name: Name(code)}
}

// InOffers lists the primary carrier of every offer once, sorted by code.
// These are the codes a carrier filter can match.
func InOffers(offers []models.Offer) []models.Carrier {
	seen := make(map[string]bool)
	for _, o := range offers {
		if code := o.PrimaryCarrier(); code != "" {
			seen[code] = true
		}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	result := make([]models.Carrier, len(codes))
	for i, code := range codes {
		result[i] = Lookup(code)
	}
	return result
}
