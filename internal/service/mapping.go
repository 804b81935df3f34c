package service

import (
	"strings"
	"time"
)

// stateNames maps USPS abbreviations to the full names used for location
// terms. Part of the feed contract, not configuration.
var stateNames = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"DC": "Washington DC",
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
	"PR": "Puerto Rico",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VI": "Virgin Islands",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
}

// HomeStateNames maps feed state abbreviations to the full names used for
// location terms. Unknown abbreviations still produce an entry named
// "<ABBR> Unknown" so the record keeps its state reference.
func HomeStateNames(states []string) map[string]string {
	names := make(map[string]string)
	for _, abbr := range states {
		abbr = strings.ToUpper(strings.TrimSpace(abbr))
		if abbr == "" {
			continue
		}
		if name, ok := stateNames[abbr]; ok {
			names[abbr] = name
		} else {
			names[abbr] = abbr + " Unknown"
		}
	}
	return names
}

// classLevelExpansion maps feed level codes to class-level tags. "GR" maps
// to nothing on purpose: graduate-only scholarships carry no class level.
var classLevelExpansion = map[string][]string{
	"UG":                                  {"first_current", "second", "third", "fourth"},
	"UGGR":                                {"first_current", "second", "third", "fourth"},
	"GR":                                  {},
	"High School/Incoming Freshman":       {"first_incoming"},
	"Incoming First-Year Students":        {"first_incoming"},
	"1":                                   {"first_current"},
	"2":                                   {"second"},
	"3":                                   {"third"},
	"4":                                   {"fourth"},
}

// classLevelTags expands feed level codes into a deduplicated tag list.
// Unrecognized codes are ignored.
func classLevelTags(levels []string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, level := range levels {
		for _, tag := range classLevelExpansion[level] {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// normalizeCollegeCode folds legacy banner codes into their current form:
// the Arts & Humanities and Social Sciences colleges merged into AHSS, and
// TX is the retired code for the law school.
func normalizeCollegeCode(code string) string {
	switch code {
	case "AH", "SS":
		return "AHSS"
	case "TX":
		return "LW"
	default:
		return code
	}
}

// feedTimeLayouts are the timestamp shapes observed in the lastUpdated field.
var feedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC1123,
}

// parseFeedTime parses a feed timestamp into epoch seconds, returning 0 when
// the value is empty or unparseable.
func parseFeedTime(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Unix()
		}
	}
	return 0
}
