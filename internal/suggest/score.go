package suggest

import (
	"math"
	"regexp"
	"strings"
)

// morseWeights is the per-letter weight table: the number of Morse symbols
// (dits/dahs) of the letter. Shorter letters make a suffix faster to key.
var morseWeights = map[rune]int{
	'E': 1, 'T': 1,
	'A': 2, 'I': 2, 'M': 2, 'N': 2,
	'D': 3, 'G': 3, 'K': 3, 'O': 3, 'R': 3, 'S': 3, 'U': 3, 'W': 3,
	'B': 4, 'C': 4, 'F': 4, 'H': 4, 'J': 4, 'L': 4, 'P': 4, 'Q': 4,
	'V': 4, 'X': 4, 'Y': 4, 'Z': 4,
}

const (
	// defaultMorseWeight applies to anything outside the table.
	defaultMorseWeight = 4
	minMorseWeight     = 1
)

const vowels = "AEIOU"

// Phonetic difficulty tables. Kept as named values so the scoring rules can
// be reviewed and tested independently.
var (
	// difficultLetters are awkward to pronounce when doubled up.
	difficultLettersRe = regexp.MustCompile(`[QXZJ]{2,}`)
	consonantRunRe     = regexp.MustCompile(`[BCDFGHJKLMNPQRSTVWXYZ]{3,}`)
	vowelRunRe         = regexp.MustCompile(`[AEIOU]{3,}`)

	// confusableLetters are easy to misread on paper logs.
	confusableLetters = []string{"I", "L"}

	// similarSoundPairs are adjacent letters that blur together on voice.
	similarSoundPairs = []string{"MN", "NM", "BP", "PB", "DT", "TD", "GK", "KG", "VW", "WV"}
)

// CalculateCwScore rates Morse-code brevity of a suffix in [0,1]: 1.0 for
// the shortest possible keying at that length (all E/T), 0.0 for the
// longest. Degenerate inputs where min and max weight coincide score 1.0.
func CalculateCwScore(suffix string) float64 {
	s := strings.ToUpper(suffix)
	if s == "" {
		return 1.0
	}

	sum := 0
	for _, r := range s {
		w, ok := morseWeights[r]
		if !ok {
			w = defaultMorseWeight
		}
		sum += w
	}

	minSum := len(s) * minMorseWeight
	maxSum := len(s) * defaultMorseWeight
	if maxSum == minSum {
		return 1.0
	}
	score := 1.0 - float64(sum-minSum)/float64(maxSum-minSum)
	return round2(score)
}

// CalculatePhoneticScore rates how easily a suffix is spoken and heard,
// in [0,1].
func CalculatePhoneticScore(suffix string) float64 {
	s := strings.ToUpper(suffix)
	if s == "" {
		return 0.0
	}

	score := 1.0

	vowelCount := 0
	for _, r := range s {
		if strings.ContainsRune(vowels, r) {
			vowelCount++
		}
	}
	switch {
	case vowelCount == 0:
		score -= 0.3
	case vowelCount == len(s):
		score -= 0.1
	default:
		bonus := vowelCount
		if bonus > 2 {
			bonus = 2
		}
		score += 0.1 * float64(bonus)
	}

	if difficultLettersRe.MatchString(s) {
		score -= 0.2
	}
	if consonantRunRe.MatchString(s) {
		score -= 0.2
	}
	if vowelRunRe.MatchString(s) {
		score -= 0.2
	}

	for _, c := range confusableLetters {
		if strings.Contains(s, c) {
			score -= 0.1
			break
		}
	}

	for _, pair := range similarSoundPairs {
		if strings.Contains(s, pair) {
			score -= 0.1
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return round2(score)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
