package screening

import (
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Algorithm identifies one of the similarity components.
type Algorithm string

const (
	AlgorithmLevenshtein Algorithm = "LEVENSHTEIN"
	AlgorithmJaroWinkler Algorithm = "JARO_WINKLER"
	AlgorithmSoundex     Algorithm = "SOUNDEX"
	AlgorithmMetaphone   Algorithm = "METAPHONE"
)

// Component weights for the blended score. Jaro-Winkler carries the most
// weight since it handles the short, prefix-heavy strings typical of
// personal names best.
const (
	weightLevenshtein = 0.30
	weightJaroWinkler = 0.40
	weightSoundex     = 0.15
	weightMetaphone   = 0.15
)

// winklerPrefixScale is the standard Jaro-Winkler common-prefix scaling
// factor, applied to at most 4 leading characters.
const winklerPrefixScale = 0.1

// Score is the blended similarity between two normalized names. All
// components and Overall lie in [0,1]. BestAlgorithm is the component with
// the strictly highest value; ties resolve in declaration order
// Levenshtein, Jaro-Winkler, Soundex, Metaphone.
type Score struct {
	Levenshtein   float64
	JaroWinkler   float64
	Soundex       float64
	Metaphone     float64
	Overall       float64
	BestAlgorithm Algorithm
	Details       string
}

// ScorePair computes the similarity score between two normalized names.
// Either name being empty yields the zero score: absence of a name means
// nothing to compare, never a wildcard.
func ScorePair(a, b NormalizedName) Score {
	if a.IsEmpty() || b.IsEmpty() {
		return Score{BestAlgorithm: AlgorithmLevenshtein, Details: "empty input"}
	}

	s := Score{
		Levenshtein: levenshteinSimilarity(a.Normalized, b.Normalized),
		JaroWinkler: jaroWinkler(a.Normalized, b.Normalized),
	}
	if Soundex(a.Normalized) == Soundex(b.Normalized) {
		s.Soundex = 1.0
	}
	if Metaphone(a.Normalized) == Metaphone(b.Normalized) {
		s.Metaphone = 1.0
	}

	s.Overall = weightLevenshtein*s.Levenshtein +
		weightJaroWinkler*s.JaroWinkler +
		weightSoundex*s.Soundex +
		weightMetaphone*s.Metaphone

	s.BestAlgorithm = bestOf(s)
	s.Details = fmt.Sprintf("lev=%.3f jw=%.3f sdx=%.1f mph=%.1f", s.Levenshtein, s.JaroWinkler, s.Soundex, s.Metaphone)
	return s
}

// bestOf returns the arg-max component, ties broken by declaration order.
func bestOf(s Score) Algorithm {
	best := AlgorithmLevenshtein
	max := s.Levenshtein
	if s.JaroWinkler > max {
		best, max = AlgorithmJaroWinkler, s.JaroWinkler
	}
	if s.Soundex > max {
		best, max = AlgorithmSoundex, s.Soundex
	}
	if s.Metaphone > max {
		best = AlgorithmMetaphone
	}
	return best
}

// levenshteinSimilarity converts the edit distance into a [0,1] similarity
// by normalizing over the longer input.
func levenshteinSimilarity(s1, s2 string) float64 {
	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(s1, s2)
	return 1.0 - float64(distance)/float64(maxLen)
}

// jaroWinkler computes the standard Jaro-Winkler similarity with a
// common-prefix boost of up to 4 characters.
func jaroWinkler(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	len1, len2 := len(s1), len(s2)
	if len1 == 0 || len2 == 0 {
		return 0.0
	}

	matchWindow := max(len1, len2)/2 - 1
	if matchWindow < 0 {
		matchWindow = 0
	}

	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)

	matches := 0
	for i := 0; i < len1; i++ {
		start := i - matchWindow
		if start < 0 {
			start = 0
		}
		end := i + matchWindow + 1
		if end > len2 {
			end = len2
		}
		for j := start; j < end; j++ {
			if matched2[j] || s1[i] != s2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len1; i++ {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	jaro := (m/float64(len1) + m/float64(len2) + (m-float64(transpositions)/2)/m) / 3.0

	prefix := 0
	for i := 0; i < min(len1, len2) && i < 4; i++ {
		if s1[i] != s2[i] {
			break
		}
		prefix++
	}

	return jaro + winklerPrefixScale*float64(prefix)*(1.0-jaro)
}
