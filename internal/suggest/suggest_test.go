package suggest_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achildrenmile/oeradio-mcp/internal/availability"
	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
	"github.com/achildrenmile/oeradio-mcp/internal/store"
	"github.com/achildrenmile/oeradio-mcp/internal/suggest"
)

// newTestGenerator builds a generator over a database where the given
// suffixes are taken in every district.
func newTestGenerator(t *testing.T, takenEverywhere ...string) *suggest.Generator {
	t.Helper()
	var recs []callsign.Record
	for _, suffix := range takenEverywhere {
		for _, d := range callsign.AvailabilityDistricts {
			recs = append(recs, callsign.Record{
				Callsign:     callsign.Make(d, suffix),
				District:     d,
				Suffix:       suffix,
				Name:         "Taken Holder",
				LicenseClass: 1,
			})
		}
	}
	st := store.New(t.TempDir(), "oecall.json", time.Minute)
	require.NoError(t, st.Write(&callsign.Database{
		Version: "2026-06-01",
		Count:   len(recs),
		Records: recs,
	}))
	return suggest.NewGenerator(availability.NewChecker(st))
}

func TestGenerateDerivesFromName(t *testing.T) {
	gen := newTestGenerator(t)

	suggestions, err := gen.Generate("Hans Muster", suggest.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)

	bySuffix := make(map[string]suggest.Suggestion, len(suggestions))
	for _, s := range suggestions {
		bySuffix[s.Suffix] = s
		assert.Regexp(t, `^[A-Z]{2,3}$`, s.Suffix)
		assert.NotEmpty(t, s.AvailableDistricts)
		assert.GreaterOrEqual(t, s.PhoneticScore, suggest.DefaultMinPhoneticScore)
		assert.NotEmpty(t, s.Derivation)
	}

	initials, ok := bySuffix["HM"]
	require.True(t, ok, "expected initials candidate HM, got %v", suggestions)
	assert.Equal(t, "initials", initials.Derivation)
}

func TestGenerateRankedByCombinedScore(t *testing.T) {
	gen := newTestGenerator(t)

	suggestions, err := gen.Generate("Hans Muster", suggest.Options{})
	require.NoError(t, err)
	require.Greater(t, len(suggestions), 1)

	combined := func(s suggest.Suggestion) float64 {
		return 0.6*s.PhoneticScore + 0.4*s.CwScore
	}
	for i := 1; i < len(suggestions); i++ {
		assert.GreaterOrEqual(t, combined(suggestions[i-1]), combined(suggestions[i]),
			"out of order at %d: %v", i, suggestions)
	}
}

func TestGenerateEmptyName(t *testing.T) {
	gen := newTestGenerator(t)

	for _, name := range []string{"", "   ", "123 456"} {
		suggestions, err := gen.Generate(name, suggest.Options{})
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	}
}

func TestGenerateSkipsFullyTakenSuffix(t *testing.T) {
	gen := newTestGenerator(t, "HM")

	suggestions, err := gen.Generate("Hans Muster", suggest.Options{})
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.NotEqual(t, "HM", s.Suffix, "suffix taken in every district must not be suggested")
	}
}

func TestGeneratePreferredDistrict(t *testing.T) {
	gen := newTestGenerator(t)

	suggestions, err := gen.Generate("Hans Muster", suggest.Options{PreferredDistrict: 4})
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	for _, s := range suggestions {
		assert.Equal(t, []int{4}, s.AvailableDistricts)
	}
}

func TestGenerateOutOfRangePreferredDistrictIgnored(t *testing.T) {
	gen := newTestGenerator(t)

	// A district that does not exist must not be checked (or reported
	// available); the preference is dropped instead.
	suggestions, err := gen.Generate("Hans Muster", suggest.Options{PreferredDistrict: 42})
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	for _, s := range suggestions {
		assert.Len(t, s.AvailableDistricts, 9)
		assert.NotContains(t, s.AvailableDistricts, 42)
	}
}

func TestGenerateExcludeClub(t *testing.T) {
	// Xaver yields X-prefixed candidates that club exclusion must drop.
	gen := newTestGenerator(t)

	suggestions, err := gen.Generate("Xaver Xanthippe", suggest.Options{ExcludeClub: true})
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.NotEqual(t, byte(callsign.ClubLetter), s.Suffix[0],
			"club-reserved suffix %s slipped through", s.Suffix)
	}
}

func TestGenerateMinPhoneticScore(t *testing.T) {
	gen := newTestGenerator(t)

	suggestions, err := gen.Generate("Hans Muster", suggest.Options{MinPhoneticScore: 0.95})
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.GreaterOrEqual(t, s.PhoneticScore, 0.95)
	}
}

func TestGenerateMaxResults(t *testing.T) {
	gen := newTestGenerator(t)

	suggestions, err := gen.Generate("Hans Muster", suggest.Options{MaxResults: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(suggestions), 2)
}

func TestGenerateRandom(t *testing.T) {
	gen := newTestGenerator(t)

	suggestions, err := gen.GenerateRandom(5, suggest.Options{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(suggestions), 5)
	for _, s := range suggestions {
		assert.Len(t, s.Suffix, 3)
		assert.Equal(t, "random", s.Derivation)
		assert.NotEmpty(t, s.AvailableDistricts)
		assert.GreaterOrEqual(t, s.PhoneticScore, suggest.DefaultMinPhoneticScore)
	}
}

func TestGenerateRandomRankedByCombinedScore(t *testing.T) {
	gen := newTestGenerator(t)

	suggestions, err := gen.GenerateRandom(10, suggest.Options{MinPhoneticScore: 0.01})
	require.NoError(t, err)
	require.Greater(t, len(suggestions), 1)

	combined := func(s suggest.Suggestion) float64 {
		return 0.6*s.PhoneticScore + 0.4*s.CwScore
	}
	for i := 1; i < len(suggestions); i++ {
		assert.GreaterOrEqual(t, combined(suggestions[i-1]), combined(suggestions[i]),
			"out of order at %d: %v", i, suggestions)
	}
}

func TestGenerateRandomExcludeClub(t *testing.T) {
	gen := newTestGenerator(t)

	suggestions, err := gen.GenerateRandom(10, suggest.Options{ExcludeClub: true})
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.False(t, strings.ContainsRune(s.Suffix, callsign.ClubLetter),
			"suffix %s contains the club-reserved letter", s.Suffix)
	}
}

func TestGenerateRandomZeroCount(t *testing.T) {
	gen := newTestGenerator(t)

	suggestions, err := gen.GenerateRandom(0, suggest.Options{})
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}
