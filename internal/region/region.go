// Package region maps US postal codes to two-letter region codes and region
// codes to the full jurisdiction names the policy administration system
// requires. Derivation and naming are deliberately separate lookups so the
// field path resolver and the quote orchestrator can use them independently.
package region

import "strconv"

type zipRange struct {
	min, max int
	code     string
}

// Ranges cover the first three digits of a five-digit zip code.
var zipRanges = []zipRange{
	{350, 369, "AL"},
	{995, 999, "AK"},
	{850, 865, "AZ"},
	{716, 729, "AR"},
	{900, 961, "CA"},
	{800, 816, "CO"},
	{60, 69, "CT"},
	{197, 199, "DE"},
	{320, 349, "FL"},
	{300, 319, "GA"},
	{967, 968, "HI"},
	{832, 838, "ID"},
	{600, 629, "IL"},
	{460, 479, "IN"},
	{500, 528, "IA"},
	{660, 679, "KS"},
	{400, 427, "KY"},
	{700, 714, "LA"},
	{39, 49, "ME"},
	{206, 219, "MD"},
	{10, 27, "MA"},
	{480, 499, "MI"},
	{550, 567, "MN"},
	{386, 397, "MS"},
	{630, 658, "MO"},
	{590, 599, "MT"},
	{680, 693, "NE"},
	{889, 898, "NV"},
	{30, 38, "NH"},
	{70, 89, "NJ"},
	{870, 884, "NM"},
	{100, 149, "NY"},
	{270, 289, "NC"},
	{580, 588, "ND"},
	{430, 458, "OH"},
	{730, 749, "OK"},
	{970, 979, "OR"},
	{150, 196, "PA"},
	{28, 29, "RI"},
	{290, 299, "SC"},
	{570, 577, "SD"},
	{370, 385, "TN"},
	{750, 799, "TX"},
	{840, 847, "UT"},
	{50, 59, "VT"},
	{220, 246, "VA"},
	{980, 994, "WA"},
	{247, 268, "WV"},
	{530, 549, "WI"},
	{820, 831, "WY"},
}

var fullNames = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"FL": "Florida",
	"GA": "Georgia",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
}

// FromZip derives the two-letter region code from a zip code's numeric
// prefix. Returns the empty string when no range matches; a miss is not an
// error, the caller simply leaves the region unset.
func FromZip(zip string) string {
	if len(zip) < 3 {
		return ""
	}
	prefix, err := strconv.Atoi(zip[:3])
	if err != nil {
		return ""
	}
	for _, r := range zipRanges {
		if prefix >= r.min && prefix <= r.max {
			return r.code
		}
	}
	return ""
}

// FullName converts a two-letter region code to the full jurisdiction name.
// Returns the empty string for unknown codes.
func FullName(code string) string {
	return fullNames[upper(code)]
}

// IsAbbreviation reports whether s is a known two-letter region code. The
// issue-repair pass uses this to detect an abbreviation stored where the
// remote system expects the long form.
func IsAbbreviation(s string) bool {
	if len(s) != 2 {
		return false
	}
	_, ok := fullNames[upper(s)]
	return ok
}

func upper(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}
