package screening

import "strings"

// PhoneticSignature holds the phonetic codes and derived lookup variations
// for a normalized name. Signatures are computed per matching call and are
// never persisted.
type PhoneticSignature struct {
	Soundex    string
	Metaphone  string
	Variations []string
}

// soundexClass maps consonants to their Soundex digit class. Vowels and
// h, w, y map to class 0 and are not emitted.
var soundexClass = map[byte]byte{
	'B': '1', 'F': '1', 'P': '1', 'V': '1',
	'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
	'D': '3', 'T': '3',
	'L': '4',
	'M': '5', 'N': '5',
	'R': '6',
}

// Soundex computes the classic 4-character Soundex code: first letter kept
// uppercase, subsequent letters mapped to digit classes with consecutive
// repeats of the same class collapsed, right-padded with zeros.
func Soundex(s string) string {
	s = strings.ToUpper(s)
	start := 0
	for start < len(s) && !isLetter(s[start]) {
		start++
	}
	if start == len(s) {
		return ""
	}

	var b strings.Builder
	b.WriteByte(s[start])

	var prev byte
	for i := start + 1; i < len(s) && b.Len() < 4; i++ {
		code, ok := soundexClass[s[i]]
		if !ok {
			prev = 0
			continue
		}
		if code != prev {
			b.WriteByte(code)
			prev = code
		}
	}

	result := b.String()
	for len(result) < 4 {
		result += "0"
	}
	return result
}

// Metaphone computes a simplified single-pass Metaphone code truncated to
// 4 characters. It applies the common digraph rules (CH/SH -> X, TH -> 0,
// PH -> F, silent GH after a consonant, silent H after a vowel, CK
// deduplication) but is a lossy approximation, not the reference
// algorithm; two names sharing a code is a similarity signal only.
func Metaphone(s string) string {
	letters := make([]byte, 0, len(s))
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			letters = append(letters, byte(r))
		}
	}
	if len(letters) == 0 {
		return ""
	}

	var b strings.Builder
	skip := false
	for i := 0; i < len(letters) && b.Len() < 4; i++ {
		if skip {
			skip = false
			continue
		}
		c := letters[i]
		var next byte
		if i+1 < len(letters) {
			next = letters[i+1]
		}

		switch c {
		case 'A', 'E', 'I', 'O', 'U':
			if i == 0 {
				b.WriteByte(c)
			}
		case 'B':
			// silent terminal B after M, as in "lamb"
			if !(i == len(letters)-1 && i > 0 && letters[i-1] == 'M') {
				b.WriteByte('B')
			}
		case 'C':
			switch {
			case next == 'H':
				b.WriteByte('X')
				skip = true
			case next == 'I' || next == 'E' || next == 'Y':
				b.WriteByte('S')
			default:
				b.WriteByte('K')
			}
		case 'D':
			b.WriteByte('T')
		case 'G':
			if next == 'H' {
				if i == 0 {
					b.WriteByte('K')
				}
				// GH after a non-vowel is silent
				skip = true
			} else if next != 'N' {
				b.WriteByte('K')
			}
		case 'H':
			// silent after a vowel or as part of a consumed digraph;
			// voiced only before a vowel
			if (i == 0 || !isVowelByte(letters[i-1])) && isVowelByte(next) {
				b.WriteByte('H')
			}
		case 'K':
			if !(i > 0 && letters[i-1] == 'C') {
				b.WriteByte('K')
			}
		case 'P':
			if next == 'H' {
				b.WriteByte('F')
				skip = true
			} else {
				b.WriteByte('P')
			}
		case 'Q':
			b.WriteByte('K')
		case 'S':
			if next == 'H' {
				b.WriteByte('X')
				skip = true
			} else {
				b.WriteByte('S')
			}
		case 'T':
			if next == 'H' {
				b.WriteByte('0')
				skip = true
			} else {
				b.WriteByte('T')
			}
		case 'V':
			b.WriteByte('F')
		case 'W', 'Y':
			if isVowelByte(next) {
				b.WriteByte(c)
			}
		case 'X':
			b.WriteString("KS")
		case 'Z':
			b.WriteByte('S')
		default:
			b.WriteByte(c)
		}
	}

	code := b.String()
	if len(code) > 4 {
		code = code[:4]
	}
	return code
}

// Encode derives the phonetic signature for a normalized name. The
// variation set contains the normalized form, both phonetic codes, the
// reversed-token join and the space-joined initials (the latter two only
// for multi-token names), deduplicated.
func Encode(name NormalizedName) PhoneticSignature {
	sig := PhoneticSignature{
		Soundex:   Soundex(name.Normalized),
		Metaphone: Metaphone(name.Normalized),
	}

	add := func(seen map[string]struct{}, v string) {
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		sig.Variations = append(sig.Variations, v)
	}

	seen := make(map[string]struct{}, 5)
	add(seen, name.Normalized)
	add(seen, sig.Soundex)
	add(seen, sig.Metaphone)

	if len(name.Tokens) > 1 {
		reversed := make([]string, len(name.Tokens))
		for i, tok := range name.Tokens {
			reversed[len(name.Tokens)-1-i] = tok
		}
		add(seen, strings.Join(reversed, " "))

		initials := make([]string, len(name.Tokens))
		for i, tok := range name.Tokens {
			initials[i] = tok[:1]
		}
		add(seen, strings.Join(initials, " "))
	}

	return sig
}

func isLetter(c byte) bool { return c >= 'A' && c <= 'Z' }

func isVowelByte(c byte) bool {
	switch c {
	case 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}
