package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
	"github.com/achildrenmile/oeradio-mcp/internal/logging"
)

// titleTokens are academic/professional titles interspersed in the raw
// LASTNAME FIRSTNAME ordering of the listing. Matched case-insensitively
// against whole tokens and dropped.
var titleTokens = map[string]bool{
	"DR.":   true,
	"DDR.":  true,
	"DI":    true,
	"DDI":   true,
	"DIPL.": true,
	"ING.":  true,
	"MAG.":  true,
	"MMAG.": true,
	"PROF.": true,
	"BAKK.": true,
	"MSC":   true,
	"BSC":   true,
	"MBA":   true,
	"PHD":   true,
}

// lowercaseParticles stay lowercase when a name token is re-cased.
var lowercaseParticles = map[string]bool{
	"von": true,
	"van": true,
	"de":  true,
	"der": true,
	"den": true,
	"du":  true,
	"la":  true,
	"le":  true,
}

var locationRe = regexp.MustCompile(`^([0-9]{4})\s+(.+)$`)

// NormalizeEntry converts a tentative row into a canonical record. Rows
// whose callsign does not match the OE structure are rejected.
func NormalizeEntry(row RawRow) (callsign.Record, error) {
	parts, err := callsign.Parse(row.Callsign)
	if err != nil {
		return callsign.Record{}, fmt.Errorf("normalize: %w", err)
	}

	class, err := strconv.Atoi(strings.TrimSpace(row.ClassDigit))
	if err != nil || class < callsign.MinLicenseClass || class > callsign.MaxLicenseClass {
		class = 1
	}

	rec := callsign.Record{
		Callsign:     callsign.Make(parts.District, parts.Suffix),
		Prefix:       parts.Prefix,
		District:     parts.District,
		Suffix:       parts.Suffix,
		LicenseClass: class,
		IsClub:       callsign.IsClubSuffix(parts.Suffix),
		IsHidden:     strings.Contains(row.Name, callsign.HiddenMarker),
	}

	// Hidden records carry no personal data, whatever the source columns held.
	if rec.IsHidden {
		return rec, nil
	}

	rec.Name = NormalizeName(row.Name)
	rec.PLZ, rec.QTH = ParseLocation(row.Location)
	rec.Address = strings.TrimSpace(row.Address)
	return rec, nil
}

// NormalizeAll maps rows to records, dropping rejects with a warning.
func NormalizeAll(rows []RawRow) []callsign.Record {
	recs := make([]callsign.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := NormalizeEntry(row)
		if err != nil {
			logging.Warn("normalize: dropping row %q: %v", row.Callsign, err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs
}

// NormalizeName converts the raw "LASTNAME FIRSTNAME [MIDDLE...]" ordering
// into display-cased "Given Surname", stripping title tokens.
func NormalizeName(raw string) string {
	tokens := strings.Fields(raw)
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if titleTokens[strings.ToUpper(tok)] {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return ""
	}
	if len(kept) == 1 {
		return caseToken(kept[0])
	}

	surname := caseToken(kept[0])
	given := make([]string, 0, len(kept)-1)
	for _, tok := range kept[1:] {
		given = append(given, caseToken(tok))
	}
	return strings.Join(given, " ") + " " + surname
}

// caseToken display-cases a single name token. Hyphenated compounds are
// cased per segment; particles like "von" stay lowercase.
func caseToken(tok string) string {
	if strings.Contains(tok, "-") {
		segments := strings.Split(tok, "-")
		for i, seg := range segments {
			segments[i] = caseToken(seg)
		}
		return strings.Join(segments, "-")
	}
	lower := strings.ToLower(tok)
	if lowercaseParticles[lower] {
		return lower
	}
	if lower == "" {
		return lower
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// ParseLocation splits a raw location string into postal code and locality.
// A location without a leading 4-digit code is all locality.
func ParseLocation(raw string) (plz, qth string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.Contains(trimmed, callsign.HiddenMarker) {
		return "", ""
	}
	if m := locationRe.FindStringSubmatch(trimmed); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return "", trimmed
}

// DeduplicateEntries keeps the first occurrence per callsign in input order.
func DeduplicateEntries(recs []callsign.Record) []callsign.Record {
	seen := make(map[string]bool, len(recs))
	out := make([]callsign.Record, 0, len(recs))
	for _, rec := range recs {
		if seen[rec.Callsign] {
			logging.Debug("normalize: duplicate %s dropped", rec.Callsign)
			continue
		}
		seen[rec.Callsign] = true
		out = append(out, rec)
	}
	return out
}

// SortEntries returns a new slice ordered by lexicographic callsign.
func SortEntries(recs []callsign.Record) []callsign.Record {
	out := append([]callsign.Record{}, recs...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Callsign < out[j].Callsign
	})
	return out
}
