package suggest

import (
	"math/rand"
	"strings"

	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
)

const (
	// randomSuffixLength is the fixed length of random candidates.
	randomSuffixLength = 3
	// randomAttemptMultiplier bounds generation: at most 20 attempts per
	// requested suggestion before giving up with what was found.
	randomAttemptMultiplier = 20
)

const uppercaseLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateRandom produces up to count random suffix suggestions through the
// same scoring and availability pipeline as name-derived candidates. It may
// return fewer than count when the attempt limit is reached first.
func (g *Generator) GenerateRandom(count int, opts Options) ([]Suggestion, error) {
	if count <= 0 {
		return []Suggestion{}, nil
	}
	opts.fillDefaults()
	opts.MaxResults = count

	alphabet := uppercaseLetters
	if opts.ExcludeClub {
		alphabet = strings.ReplaceAll(alphabet, string(callsign.ClubLetter), "")
	}

	seen := make(map[string]bool)
	var results []Suggestion

	maxAttempts := count * randomAttemptMultiplier
	for attempt := 0; attempt < maxAttempts && len(results) < count; attempt++ {
		suffix := randomSuffix(alphabet)
		if seen[suffix] {
			continue
		}
		seen[suffix] = true

		scored, err := g.scoreAndRank([]candidate{{suffix: suffix, derivation: "random"}}, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, scored...)
	}

	// Candidates were scored one at a time; rank the collected set the same
	// way the name-derived pipeline does.
	rankSuggestions(results, opts)
	return results, nil
}

func randomSuffix(alphabet string) string {
	var b strings.Builder
	for i := 0; i < randomSuffixLength; i++ {
		b.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return b.String()
}
