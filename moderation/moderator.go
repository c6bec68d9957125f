// Package moderation censors forbidden words in message content before
// it reaches the broadcast fan-out. Matching is resilient to casing,
// punctuation noise and common leet substitutions.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// mapping links the normalized search text back to rune positions in
// the original, so replacements land on the right characters.
type mapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the Aho-Corasick automaton over the normalized
// word list. Building is the expensive part; do it once at startup.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i] = normalizeRunes([]rune(w))
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor replaces every matched span with the replacement rune,
// preserving the original spacing and punctuation. It returns the
// censored text and the normalized words that were hit.
func (m *Moderator) Censor(original string) (string, []string) {
	mp := m.normalize(original)
	if len(mp.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mp.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	var hits []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mp.origIdx) {
			continue
		}
		hits = append(hits, string(span.Word))
		for i := mp.origIdx[start]; i <= mp.origIdx[end-1]; i++ {
			origRunes[i] = m.replacement
		}
	}
	return string(origRunes), hits
}

func (m *Moderator) normalize(input string) mapping {
	origRunes := []rune(input)
	mp := mapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mp.normalized = append(mp.normalized, unicode.ToLower(clean))
		mp.origIdx = append(mp.origIdx, i)
	}
	return mp
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune folds common leet-speak digits back onto letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters ignored during matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
