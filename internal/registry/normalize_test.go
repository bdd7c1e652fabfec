package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achildrenmile/oeradio-mcp/internal/registry"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"MUSTER HANS", "Hans Muster"},
		{"MUSTER HANS DR.", "Hans Muster"},
		{"DR. MUSTER HANS", "Hans Muster"},
		{"MUSTER HANS PETER", "Hans Peter Muster"},
		{"VON MUSTER HANS", "Muster Hans von"},
		{"MAYR-HUBER ANNA", "Anna Mayr-Huber"},
		{"MUSTER", "Muster"},
		{"DI MUSTER HANS", "Hans Muster"},
		{"MAG. ING. MUSTER HANS", "Hans Muster"},
		{"", ""},
		{"DR.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := registry.NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input   string
		wantPLZ string
		wantQTH string
	}{
		{"1010 Wien", "1010", "Wien"},
		{"5020 Salzburg Stadt", "5020", "Salzburg Stadt"},
		{"Irgendwo", "", "Irgendwo"},
		{"", "", ""},
		{"***", "", ""},
		{"123 Kurzort", "", "123 Kurzort"}, // not a 4-digit code
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			plz, qth := registry.ParseLocation(tt.input)
			if plz != tt.wantPLZ || qth != tt.wantQTH {
				t.Errorf("ParseLocation(%q) = (%q, %q), want (%q, %q)",
					tt.input, plz, qth, tt.wantPLZ, tt.wantQTH)
			}
		})
	}
}

func TestNormalizeEntry(t *testing.T) {
	rec, err := registry.NormalizeEntry(registry.RawRow{
		Callsign:   "OE1ABC",
		Name:       "MUSTER HANS",
		Location:   "1010 Wien",
		Address:    "Teststrasse 5",
		ClassDigit: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "OE1ABC", rec.Callsign)
	assert.Equal(t, 1, rec.District)
	assert.Equal(t, "ABC", rec.Suffix)
	assert.Equal(t, "Hans Muster", rec.Name)
	assert.Equal(t, "1010", rec.PLZ)
	assert.Equal(t, "Wien", rec.QTH)
	assert.Equal(t, 1, rec.LicenseClass)
	assert.False(t, rec.IsClub)
	assert.False(t, rec.IsHidden)
}

func TestNormalizeEntryHiddenForcesEmptyFields(t *testing.T) {
	rec, err := registry.NormalizeEntry(registry.RawRow{
		Callsign:   "OE2DEF",
		Name:       "***",
		Location:   "9999 Leakville",
		Address:    "Leaked Street 1",
		ClassDigit: "3",
	})
	require.NoError(t, err)
	assert.True(t, rec.IsHidden)
	assert.Empty(t, rec.Name)
	assert.Empty(t, rec.QTH)
	assert.Empty(t, rec.PLZ)
	assert.Empty(t, rec.Address)
	assert.Equal(t, 3, rec.LicenseClass)
}

func TestNormalizeEntryClubAndDefaults(t *testing.T) {
	rec, err := registry.NormalizeEntry(registry.RawRow{
		Callsign:   "OE3XRC",
		Name:       "KLUBSTATION WIEN",
		ClassDigit: "x", // unparseable, defaults to 1
	})
	require.NoError(t, err)
	assert.True(t, rec.IsClub)
	assert.Equal(t, 1, rec.LicenseClass)
}

func TestNormalizeEntryRejectsMalformedCallsign(t *testing.T) {
	_, err := registry.NormalizeEntry(registry.RawRow{Callsign: "DL1ABC"})
	assert.Error(t, err)
}

func TestNormalizeAllDropsRejects(t *testing.T) {
	rows := []registry.RawRow{
		{Callsign: "OE1ABC", Name: "MUSTER HANS", ClassDigit: "1"},
		{Callsign: "BADCALL", Name: "NOBODY", ClassDigit: "1"},
		{Callsign: "OE2DEF", Name: "HUBER MARIA", ClassDigit: "2"},
	}
	recs := registry.NormalizeAll(rows)
	require.Len(t, recs, 2)
	assert.Equal(t, "OE1ABC", recs[0].Callsign)
	assert.Equal(t, "OE2DEF", recs[1].Callsign)
}

func TestDeduplicateEntriesKeepsFirst(t *testing.T) {
	recs := registry.NormalizeAll([]registry.RawRow{
		{Callsign: "OE1ABC", Name: "FIRST HOLDER", ClassDigit: "1"},
		{Callsign: "OE1ABC", Name: "SECOND HOLDER", ClassDigit: "1"},
		{Callsign: "OE2DEF", Name: "OTHER CALL", ClassDigit: "1"},
	})
	deduped := registry.DeduplicateEntries(recs)
	require.Len(t, deduped, 2)
	assert.Equal(t, "Holder First", deduped[0].Name)

	seen := map[string]bool{}
	for _, r := range deduped {
		assert.False(t, seen[r.Callsign], "duplicate %s survived", r.Callsign)
		seen[r.Callsign] = true
	}
}

func TestSortEntries(t *testing.T) {
	recs := registry.NormalizeAll([]registry.RawRow{
		{Callsign: "OE9ZZZ", Name: "Z", ClassDigit: "1"},
		{Callsign: "OE1AAA", Name: "A", ClassDigit: "1"},
		{Callsign: "OE5MMM", Name: "M", ClassDigit: "1"},
	})
	sorted := registry.SortEntries(recs)
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Callsign > sorted[i].Callsign {
			t.Errorf("not sorted at %d: %s > %s", i, sorted[i-1].Callsign, sorted[i].Callsign)
		}
	}
	// Input slice untouched.
	assert.Equal(t, "OE9ZZZ", recs[0].Callsign)
}
