package suggest

import (
	"regexp"
	"sort"
	"strings"

	"github.com/achildrenmile/oeradio-mcp/internal/availability"
	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
)

// Weighting of the combined ranking score.
const (
	phoneticWeight = 0.6
	cwWeight       = 0.4
)

// Defaults applied when an Options field is zero.
const (
	DefaultMaxResults       = 10
	DefaultMinPhoneticScore = 0.5
)

// Suggestion is one scored suffix candidate.
type Suggestion struct {
	Suffix             string  `json:"suffix"`
	AvailableDistricts []int   `json:"available_districts"`
	PhoneticScore      float64 `json:"phonetic_score"`
	CwScore            float64 `json:"cw_score"`
	Derivation         string  `json:"derivation"`
}

// Options steer suggestion generation.
type Options struct {
	// PreferredDistrict restricts the availability check and biases
	// ranking. Zero, or any value outside 1-9, means no preference (all
	// nine districts checked).
	PreferredDistrict int
	// MaxResults caps the returned list; zero means DefaultMaxResults.
	MaxResults int
	// ExcludeClub drops candidates starting with the club-reserved letter.
	ExcludeClub bool
	// MinPhoneticScore drops weak candidates before the availability
	// check; zero means DefaultMinPhoneticScore.
	MinPhoneticScore float64
}

func (o *Options) fillDefaults() {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.MinPhoneticScore <= 0 {
		o.MinPhoneticScore = DefaultMinPhoneticScore
	}
	// A preference outside the nine regular districts means no preference;
	// it must never reach the availability check as a fabricated district.
	if !containsDistrict(callsign.AvailabilityDistricts, o.PreferredDistrict) {
		o.PreferredDistrict = 0
	}
}

// candidate is a derived suffix before scoring.
type candidate struct {
	suffix     string
	derivation string
}

// phoneticVariants holds curated call-suffix variants for common Austrian
// first names, beyond what mechanical prefix/consonant derivation yields.
var phoneticVariants = map[string][]string{
	"HANS":     {"HNS", "HSN"},
	"FRANZ":    {"FRZ", "FNZ"},
	"JOSEF":    {"SEP", "JOE"},
	"KARL":     {"KRL", "CAL"},
	"PETER":    {"PIT", "PTR"},
	"WOLFGANG": {"WLF", "WOG"},
	"MICHAEL":  {"MIK", "MIC"},
	"THOMAS":   {"TOM", "TMS"},
	"STEFAN":   {"STF", "FAN"},
	"MARKUS":   {"MAK", "MKS"},
}

var nonLetterRe = regexp.MustCompile(`[^A-Z ]`)
var candidateRe = regexp.MustCompile(`^[A-Z]{2,3}$`)

// Generator derives, scores and ranks suffix candidates for a person's name.
type Generator struct {
	checker *availability.Checker
}

// NewGenerator creates a suggestion generator over an availability checker.
func NewGenerator(checker *availability.Checker) *Generator {
	return &Generator{checker: checker}
}

// Generate runs the full pipeline: derive candidates from the name, filter
// and score them, check availability, rank, truncate.
func (g *Generator) Generate(name string, opts Options) ([]Suggestion, error) {
	opts.fillDefaults()

	first, last, ok := splitName(name)
	if !ok {
		return []Suggestion{}, nil
	}

	candidates := deriveCandidates(first, last)
	accepted := filterCandidates(candidates, opts.ExcludeClub)

	return g.scoreAndRank(accepted, opts)
}

// scoreAndRank is the shared tail of the name-derived and random pipelines.
func (g *Generator) scoreAndRank(accepted []candidate, opts Options) ([]Suggestion, error) {
	districts := callsign.AvailabilityDistricts
	if opts.PreferredDistrict != 0 {
		districts = []int{opts.PreferredDistrict}
	}

	suggestions := make([]Suggestion, 0, len(accepted))
	for _, cand := range accepted {
		phonetic := CalculatePhoneticScore(cand.suffix)
		// Weak candidates are dropped before the availability check is
		// even issued.
		if phonetic < opts.MinPhoneticScore {
			continue
		}

		avail, err := g.checker.Check(cand.suffix, districts)
		if err != nil {
			return nil, err
		}
		if len(avail.AvailableDistricts) == 0 {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			Suffix:             cand.suffix,
			AvailableDistricts: avail.AvailableDistricts,
			PhoneticScore:      phonetic,
			CwScore:            CalculateCwScore(cand.suffix),
			Derivation:         cand.derivation,
		})
	}

	rankSuggestions(suggestions, opts)

	if len(suggestions) > opts.MaxResults {
		suggestions = suggestions[:opts.MaxResults]
	}
	return suggestions, nil
}

// rankSuggestions orders in place: candidates available in the preferred
// district first, then by descending combined score.
func rankSuggestions(suggestions []Suggestion, opts Options) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		if opts.PreferredDistrict != 0 {
			iPref := containsDistrict(suggestions[i].AvailableDistricts, opts.PreferredDistrict)
			jPref := containsDistrict(suggestions[j].AvailableDistricts, opts.PreferredDistrict)
			if iPref != jPref {
				return iPref
			}
		}
		return combined(suggestions[i]) > combined(suggestions[j])
	})
}

func combined(s Suggestion) float64 {
	return phoneticWeight*s.PhoneticScore + cwWeight*s.CwScore
}

func containsDistrict(districts []int, d int) bool {
	for _, x := range districts {
		if x == d {
			return true
		}
	}
	return false
}

// splitName cleans the input and extracts first/last tokens. A single token
// serves as both.
func splitName(name string) (first, last string, ok bool) {
	cleaned := nonLetterRe.ReplaceAllString(strings.ToUpper(name), "")
	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 {
		return "", "", false
	}
	return tokens[0], tokens[len(tokens)-1], true
}

// deriveCandidates applies every derivation strategy. Order matters only
// for the derivation label kept on duplicates (first one wins).
func deriveCandidates(first, last string) []candidate {
	var out []candidate
	add := func(suffix, derivation string) {
		out = append(out, candidate{suffix: suffix, derivation: derivation})
	}

	if len(first) >= 1 && len(last) >= 1 {
		add(first[:1]+last[:1], "initials")
	}
	if len(first) >= 2 && len(last) >= 1 {
		add(first[:2]+last[:1], "first-name prefix + last initial")
	}
	if len(first) >= 1 && len(last) >= 2 {
		add(first[:1]+last[:2], "first initial + last-name prefix")
	}
	for _, n := range []int{2, 3} {
		if len(first) >= n {
			add(first[:n], "first-name prefix")
		}
		if len(last) >= n {
			add(last[:n], "last-name prefix")
		}
	}

	for _, src := range []struct {
		text  string
		label string
	}{
		{first, "first-name consonants"},
		{last, "last-name consonants"},
	} {
		cons := stripVowels(src.text)
		for _, n := range []int{2, 3} {
			if len(cons) >= n {
				add(cons[:n], src.label)
			}
		}
	}

	if len(last) >= 2 {
		add("Y"+last[:2], "stylized Y + last-name prefix")
	}

	for _, variant := range phoneticVariants[first] {
		add(variant, "phonetic variant of first name")
	}

	return out
}

// filterCandidates applies the acceptance rules: 2-3 letters, dedup across
// strategies keeping the first derivation label, optional club exclusion.
func filterCandidates(candidates []candidate, excludeClub bool) []candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]candidate, 0, len(candidates))
	for _, cand := range candidates {
		if !candidateRe.MatchString(cand.suffix) {
			continue
		}
		if seen[cand.suffix] {
			continue
		}
		if excludeClub && callsign.IsClubSuffix(cand.suffix) {
			continue
		}
		seen[cand.suffix] = true
		out = append(out, cand)
	}
	return out
}

func stripVowels(s string) string {
	var b strings.Builder
	for _, r := range s {
		if !strings.ContainsRune(vowels, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
