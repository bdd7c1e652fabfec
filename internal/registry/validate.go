package registry

import (
	"fmt"

	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
)

// Plausibility thresholds for a freshly built database. The Austrian
// registry carries well over 5000 active licenses; numbers far below that
// mean the extraction went wrong.
const (
	minPlausibleTotal    = 5000
	minPlausibleDistrict = 100
	minPlausibleClass1   = 1000
	maxHiddenFraction    = 0.30
)

// Statistics are aggregate counts collected during validation.
type Statistics struct {
	Total      int         `json:"total"`
	ByDistrict map[int]int `json:"by_district"`
	ByClass    map[int]int `json:"by_class"`
	Clubs      int         `json:"clubs"`
	Hidden     int         `json:"hidden"`
	Duplicates int         `json:"duplicates"`
}

// Report is the outcome of a validation run. Errors block promotion of a
// new database; warnings are informational.
type Report struct {
	Errors   []string   `json:"errors"`
	Warnings []string   `json:"warnings"`
	Stats    Statistics `json:"stats"`
}

// HasErrors reports whether promotion must be blocked.
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r *Report) errorf(format string, v ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, v...))
}

func (r *Report) warnf(format string, v ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, v...))
}

// ValidateDatabase sweeps the record set for structural invariants and
// plausible aggregate counts. It never modifies the database; acting on the
// report (promote or roll back) is the caller's job.
func ValidateDatabase(db *callsign.Database) *Report {
	report := &Report{
		Stats: Statistics{
			ByDistrict: make(map[int]int),
			ByClass:    make(map[int]int),
		},
	}

	seen := make(map[string]bool, len(db.Records))
	for _, rec := range db.Records {
		// Defensive re-check: the normalizer dedupes, but externally
		// supplied database files go through this gate too.
		if seen[rec.Callsign] {
			report.Stats.Duplicates++
			report.errorf("duplicate callsign %s", rec.Callsign)
		}
		seen[rec.Callsign] = true

		parts, err := callsign.Parse(rec.Callsign)
		if err != nil {
			report.errorf("malformed callsign %q", rec.Callsign)
			continue
		}
		if parts.District != rec.District {
			report.errorf("callsign %s: district field %d does not match callsign digit %d",
				rec.Callsign, rec.District, parts.District)
		}
		if rec.LicenseClass < callsign.MinLicenseClass || rec.LicenseClass > callsign.MaxLicenseClass {
			report.warnf("callsign %s: license class %d out of range", rec.Callsign, rec.LicenseClass)
		}
		if len(rec.Suffix) < 1 || len(rec.Suffix) > 4 {
			report.warnf("callsign %s: suffix length %d out of range", rec.Callsign, len(rec.Suffix))
		}

		report.Stats.Total++
		report.Stats.ByDistrict[rec.District]++
		report.Stats.ByClass[rec.LicenseClass]++
		if rec.IsClub {
			report.Stats.Clubs++
		}
		if rec.IsHidden {
			report.Stats.Hidden++
		}
	}

	if report.Stats.Total < minPlausibleTotal {
		report.warnf("total record count %d below plausible minimum %d", report.Stats.Total, minPlausibleTotal)
	}

	for _, district := range callsign.AvailabilityDistricts {
		count := report.Stats.ByDistrict[district]
		switch {
		case count == 0:
			report.errorf("district %d has no records", district)
		case count < minPlausibleDistrict:
			report.warnf("district %d has only %d records", district, count)
		}
	}
	for district := range report.Stats.ByDistrict {
		if district < callsign.MinDistrict || district > callsign.MaxDistrict {
			report.errorf("district key %d outside valid range 0-9", district)
		}
	}

	if report.Stats.ByClass[1] < minPlausibleClass1 {
		report.warnf("class-1 count %d below plausible minimum %d", report.Stats.ByClass[1], minPlausibleClass1)
	}

	if report.Stats.Total > 0 {
		hiddenFraction := float64(report.Stats.Hidden) / float64(report.Stats.Total)
		if hiddenFraction > maxHiddenFraction {
			report.warnf("hidden records are %.1f%% of total (threshold %.0f%%)",
				hiddenFraction*100, maxHiddenFraction*100)
		}
	}

	return report
}
