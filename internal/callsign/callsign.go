package callsign

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Austrian callsign structure constants.
const (
	// Prefix is the fixed two-letter country prefix.
	Prefix = "OE"
	// ClubLetter is the reserved first suffix letter for club stations.
	ClubLetter = 'X'
	// HiddenMarker is the literal used by the registry export for
	// privacy-redacted entries.
	HiddenMarker = "***"

	// MinDistrict and MaxDistrict bound the district digit. District 0 is
	// reserved for special/out-of-territory stations.
	MinDistrict = 0
	MaxDistrict = 9

	MinLicenseClass = 1
	MaxLicenseClass = 4
)

// AvailabilityDistricts lists the nine regular districts checked for suffix
// availability. District 0 is excluded (special assignments only).
var AvailabilityDistricts = []int{1, 2, 3, 4, 5, 6, 7, 8, 9}

// structureRe matches the canonical OE callsign layout: prefix, one district
// digit, one to four suffix letters.
var structureRe = regexp.MustCompile(`^OE([0-9])([A-Z]{1,4})$`)

// Record is a single canonical registry entry. Records are created by the
// rebuild pipeline and never mutated afterwards; a new database document
// replaces the old one wholesale.
type Record struct {
	Callsign     string `json:"callsign"`
	Prefix       string `json:"prefix"`
	District     int    `json:"district"`
	Suffix       string `json:"suffix"`
	Name         string `json:"name"`
	QTH          string `json:"qth"`
	PLZ          string `json:"plz"`
	Address      string `json:"address"`
	LicenseClass int    `json:"license_class"`
	IsClub       bool   `json:"is_club"`
	IsHidden     bool   `json:"is_hidden"`
}

// Database is the versioned, sorted record collection persisted as a single
// JSON document. It is the sole durable state of the serving path.
type Database struct {
	Version string    `json:"version"`
	Source  string    `json:"source"`
	BuiltAt time.Time `json:"built_at"`
	Count   int       `json:"count"`
	Notice  string    `json:"notice"`
	Records []Record  `json:"records"`
}

// Parts is a decomposed callsign.
type Parts struct {
	Prefix   string
	District int
	Suffix   string
}

// Parse decomposes a raw callsign into prefix/district/suffix. The input is
// uppercased and trimmed before matching. Anything that does not match the
// OE structure is rejected.
func Parse(raw string) (Parts, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	m := structureRe.FindStringSubmatch(cleaned)
	if m == nil {
		return Parts{}, fmt.Errorf("callsign %q does not match OE structure", raw)
	}
	return Parts{
		Prefix:   Prefix,
		District: int(m[1][0] - '0'),
		Suffix:   m[2],
	}, nil
}

// Make constructs a full callsign from a district digit and suffix.
func Make(district int, suffix string) string {
	return fmt.Sprintf("%s%d%s", Prefix, district, strings.ToUpper(suffix))
}

// IsClubSuffix reports whether a suffix belongs to a club station.
func IsClubSuffix(suffix string) bool {
	return len(suffix) > 0 && suffix[0] == ClubLetter
}

var lettersRe = regexp.MustCompile(`^[A-Z]+$`)

// ValidSuffixShape reports whether a suffix is well-formed for assignment:
// letters only, 2-4 letters for club suffixes (leading X), 2-3 letters for
// personal suffixes.
func ValidSuffixShape(suffix string) bool {
	if !lettersRe.MatchString(suffix) {
		return false
	}
	if IsClubSuffix(suffix) {
		return len(suffix) >= 2 && len(suffix) <= 4
	}
	return len(suffix) >= 2 && len(suffix) <= 3
}

// DisplayName returns the holder name suitable for output. Hidden records
// never expose personal data, regardless of what the source carried.
func (r *Record) DisplayName() string {
	if r.IsHidden {
		return HiddenMarker
	}
	return r.Name
}
