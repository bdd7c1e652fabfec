package registry

import (
	"regexp"
	"strings"

	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
	"github.com/achildrenmile/oeradio-mcp/internal/logging"
)

// RawRow is the tentative structured output for one recognized listing line.
// It is consumed by the normalizer and never persisted.
type RawRow struct {
	Callsign   string
	Name       string
	Location   string
	Address    string
	ClassDigit string
}

// lineRe recognizes a listing line: the OE prefix, one district digit and
// 1-4 suffix letters, followed by whitespace and the remainder columns.
var lineRe = regexp.MustCompile(`^(OE[0-9][A-Z]{1,4})\s+(.+)$`)

// columnSplitRe splits the remainder into columns on runs of two or more
// whitespace characters. The listing is whitespace-aligned, not delimited,
// so single spaces stay inside a column.
var columnSplitRe = regexp.MustCompile(`\s{2,}`)

// Fallback patterns, tried in order when column splitting comes up short.
var (
	// Name, then a 4-digit postal code with locality, then address and class.
	postalFallbackRe = regexp.MustCompile(`^(.+?)\s+([0-9]{4})\s+(\S+)\s+(.+?)\s*([1-4])$`)
	// Just a trailing class digit; everything before it is the name.
	classFallbackRe = regexp.MustCompile(`^(.+?)\s+([1-4])$`)
	// A class digit glued to the end of the address column by a single space.
	trailingClassRe = regexp.MustCompile(`^(.*\S)\s([1-4])$`)
)

// skipMarkers identify header, footer and page-break lines of the listing.
// Matching is a plain substring check; these lines are expected noise.
var skipMarkers = []string{
	"Rufzeichen",
	"Seite ",
	"Stand:",
	"Stand ",
	"Fernmeldebehörde",
	"Amateurfunkdienst",
	"- - -",
}

// parseStrategy is one way of decomposing the remainder of a recognized
// line into a RawRow. Strategies are tried in order; the first match wins.
type parseStrategy struct {
	name string
	fn   func(cs, remainder string) (RawRow, bool)
}

var strategies = []parseStrategy{
	{"hidden-marker", parseHiddenRow},
	{"aligned-columns", parseAlignedColumns},
	{"postal-delimited", parsePostalDelimited},
	{"trailing-class", parseTrailingClass},
	{"name-only", parseNameOnly},
}

// ParseLines turns extracted listing text into tentative rows, preserving
// input order. Unrecognized lines are skipped silently; they are expected
// noise from the text extraction.
func ParseLines(lines []string) []RawRow {
	rows := make([]RawRow, 0, len(lines))
	for _, line := range lines {
		if row, ok := ParseLine(line); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// ParseLine attempts to recognize a single listing line as a record row.
func ParseLine(line string) (RawRow, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return RawRow{}, false
	}
	for _, marker := range skipMarkers {
		if strings.Contains(trimmed, marker) {
			return RawRow{}, false
		}
	}

	m := lineRe.FindStringSubmatch(trimmed)
	if m == nil {
		return RawRow{}, false
	}
	cs, remainder := m[1], m[2]

	for _, s := range strategies {
		if row, ok := s.fn(cs, remainder); ok {
			logging.Debug("parser: line for %s matched strategy %q", cs, s.name)
			return row, true
		}
	}
	return RawRow{}, false
}

// parseHiddenRow handles privacy-redacted rows. The registry replaces all
// personal columns with the hidden marker, so column alignment is useless;
// the class digit is the final character of the remainder when present.
func parseHiddenRow(cs, remainder string) (RawRow, bool) {
	if !strings.Contains(remainder, callsign.HiddenMarker) {
		return RawRow{}, false
	}
	class := "1"
	if last := remainder[len(remainder)-1]; last >= '1' && last <= '4' {
		class = string(last)
	}
	return RawRow{
		Callsign:   cs,
		Name:       callsign.HiddenMarker,
		Location:   callsign.HiddenMarker,
		Address:    callsign.HiddenMarker,
		ClassDigit: class,
	}, true
}

// parseAlignedColumns splits the remainder on runs of >=2 spaces and expects
// name, location, address and class columns. Extra middle columns are merged
// into the location; a class digit glued onto the address is peeled off.
func parseAlignedColumns(cs, remainder string) (RawRow, bool) {
	cols := columnSplitRe.Split(remainder, -1)
	if len(cols) < 4 {
		return RawRow{}, false
	}

	last := strings.TrimSpace(cols[len(cols)-1])
	var class, address string
	var middle []string

	switch last {
	case "1", "2", "3", "4":
		class = last
		address = cols[len(cols)-2]
		middle = cols[1 : len(cols)-2]
	default:
		// Class digit assumed appended to the address column.
		m := trailingClassRe.FindStringSubmatch(last)
		if m == nil {
			return RawRow{}, false
		}
		address = m[1]
		class = m[2]
		middle = cols[1 : len(cols)-1]
	}

	return RawRow{
		Callsign:   cs,
		Name:       cols[0],
		Location:   strings.Join(middle, " "),
		Address:    address,
		ClassDigit: class,
	}, true
}

// parsePostalDelimited uses the 4-digit postal code as the anchor between
// name and location when whitespace alignment collapsed to single spaces.
func parsePostalDelimited(cs, remainder string) (RawRow, bool) {
	m := postalFallbackRe.FindStringSubmatch(remainder)
	if m == nil {
		return RawRow{}, false
	}
	return RawRow{
		Callsign:   cs,
		Name:       m[1],
		Location:   m[2] + " " + m[3],
		Address:    m[4],
		ClassDigit: m[5],
	}, true
}

// parseTrailingClass salvages rows where only the name and class survived
// extraction.
func parseTrailingClass(cs, remainder string) (RawRow, bool) {
	m := classFallbackRe.FindStringSubmatch(remainder)
	if m == nil {
		return RawRow{}, false
	}
	return RawRow{
		Callsign:   cs,
		Name:       m[1],
		ClassDigit: m[2],
	}, true
}

// parseNameOnly is the terminal strategy: the whole remainder is the name
// and the class defaults to 1.
func parseNameOnly(cs, remainder string) (RawRow, bool) {
	return RawRow{
		Callsign:   cs,
		Name:       strings.TrimSpace(remainder),
		ClassDigit: "1",
	}, true
}
