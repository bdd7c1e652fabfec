package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionTag(t *testing.T) {
	lines := []string{
		"Rufzeichenliste Amateurfunkdienst",
		"Stand: 01.06.2026",
		"OE1ABC  MUSTER HANS      1010 Wien        Teststrasse 5       1",
	}
	assert.Equal(t, "2026-06-01", versionTag(lines))
}

func TestVersionTagFallsBackToBuildDate(t *testing.T) {
	tag := versionTag([]string{"no date marker anywhere"})
	// YYYY-MM-DD shape from the current date.
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, tag)
}

func TestBuildDatabase(t *testing.T) {
	lines := []string{
		"Rufzeichenliste Amateurfunkdienst",
		"Stand: 01.06.2026",
		"OE1ABC  MUSTER HANS      1010 Wien        Teststrasse 5       1",
		"OE1ABC  MUSTER HANS      1010 Wien        Teststrasse 5       1", // duplicate line
		"OE9ZZZ  BEISPIEL KURT      6900 Bregenz        Seeufer 2       2",
		"OE2HID  ***  ***  ***  1",
		"Seite 3",
	}

	database := buildDatabase(lines, "unit-test")
	require.Equal(t, 3, database.Count)
	assert.Equal(t, "2026-06-01", database.Version)
	assert.Equal(t, "unit-test", database.Source)
	assert.NotEmpty(t, database.Notice)
	assert.False(t, database.BuiltAt.IsZero())

	// Sorted by callsign, duplicate collapsed, hidden stripped.
	assert.Equal(t, "OE1ABC", database.Records[0].Callsign)
	assert.Equal(t, "Hans Muster", database.Records[0].Name)
	assert.Equal(t, "OE2HID", database.Records[1].Callsign)
	assert.True(t, database.Records[1].IsHidden)
	assert.Empty(t, database.Records[1].Name)
	assert.Equal(t, "OE9ZZZ", database.Records[2].Callsign)
	assert.Equal(t, 2, database.Records[2].LicenseClass)
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("one\ntwo\nthree"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}
