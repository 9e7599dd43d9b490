package screening

import (
	"regexp"
	"strings"
)

// NormalizedName is the immutable result of name normalization. It is
// derived at match time and never persisted.
type NormalizedName struct {
	Original   string
	Normalized string
	Tokens     []string
}

// IsEmpty reports whether normalization produced no usable name. Callers
// must treat this as "no match possible", never as a wildcard.
func (n NormalizedName) IsEmpty() bool { return n.Normalized == "" }

// honorifics are dropped as standalone tokens during normalization.
var honorifics = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "dr": {}, "prof": {},
	"sir": {}, "madam": {}, "shri": {}, "smt": {}, "kum": {},
}

// nonNameChars matches everything that is not a word character, whitespace
// or hyphen after lowercasing.
var nonNameChars = regexp.MustCompile(`[^a-z0-9_\s-]`)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a raw name, strips characters outside the name
// alphabet, collapses whitespace, and drops honorific tokens. Empty or
// whitespace-only input yields an empty normalized string and no tokens.
// Normalization is idempotent.
func NormalizeName(raw string) NormalizedName {
	name := strings.ToLower(raw)
	name = nonNameChars.ReplaceAllString(name, "")
	name = whitespaceRuns.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if name == "" {
		return NormalizedName{Original: raw}
	}

	parts := strings.Split(name, " ")
	tokens := make([]string, 0, len(parts))
	for _, tok := range parts {
		if _, isHonorific := honorifics[tok]; isHonorific {
			continue
		}
		tokens = append(tokens, tok)
	}

	return NormalizedName{
		Original:   raw,
		Normalized: strings.Join(tokens, " "),
		Tokens:     tokens,
	}
}
