package censor

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	minSpacedLetters = 3
	maxSpacedLetters = 12
)

// NormalizationConfig selects the optional stages of Normalize.
type NormalizationConfig struct {
	Demojize              bool
	CollapseLetterSpacing bool
	// MaxConsecutiveRepeats caps runs of one letter; values below 1 disable the stage.
	MaxConsecutiveRepeats int
	ApplyLeet             bool
}

// DefaultNormalization enables every stage and keeps at most two repeated letters.
func DefaultNormalization() NormalizationConfig {
	return NormalizationConfig{
		Demojize:              true,
		CollapseLetterSpacing: true,
		MaxConsecutiveRepeats: 2,
		ApplyLeet:             true,
	}
}

// Normalizer maps raw text to the lowercase form matched against word lists.
// It is immutable and safe for concurrent use.
type Normalizer struct {
	leet    LeetMap
	symbols []string
}

// NewNormalizer returns a Normalizer using leet for symbol substitution.
// A nil map selects the built-in table.
func NewNormalizer(leet LeetMap) *Normalizer {
	if leet == nil {
		leet = defaultLeetMap
	}
	leet = leet.clone()
	return &Normalizer{leet: leet, symbols: leet.symbols()}
}

// Normalize runs the pipeline over text:
//
//	NFKC, demojize, strip diacritics, lowercase, collapse spaced letters,
//	leet expansion, cap repeated letters, squeeze whitespace, add de-doubled tokens.
//
// The result may list several surface forms per input token.
func (n *Normalizer) Normalize(text string, cfg NormalizationConfig) string {
	if text == "" {
		return text
	}

	s := norm.NFKC.String(text)
	if cfg.Demojize {
		s = emojis().demojize(s)
	}
	s = stripDiacritics(s)
	s = strings.ToLower(s)
	if cfg.CollapseLetterSpacing {
		s = collapseSpacedLetters(s)
	}
	if cfg.ApplyLeet {
		s = n.substituteLeet(s)
	}
	if cfg.MaxConsecutiveRepeats >= 1 {
		s = limitRepeats(s, cfg.MaxConsecutiveRepeats)
	}

	return withReducedVariants(strings.Fields(s))
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// collapseSpacedLetters joins runs like "f u c k" or "f. u. c. k" where every
// unit between separators is a single letter. Only whitespace is removed from
// the run; other separators are left for leet substitution.
func collapseSpacedLetters(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(rs); {
		if !isASCIILetter(rs[i]) || (i > 0 && isASCIILetter(rs[i-1])) {
			b.WriteRune(rs[i])
			i++
			continue
		}

		last := spacedRunEnd(rs, i)
		if last < 0 {
			b.WriteRune(rs[i])
			i++
			continue
		}
		for _, r := range rs[i : last+1] {
			if !unicode.IsSpace(r) {
				b.WriteRune(r)
			}
		}
		i = last + 1
	}

	return b.String()
}

// spacedRunEnd returns the index of the last letter of a spaced-letter run
// starting at start, or -1 when fewer than minSpacedLetters single letters follow.
func spacedRunEnd(rs []rune, start int) int {
	letters, last := 0, -1
	for j := start; j < len(rs) && letters < maxSpacedLetters; {
		if j+1 < len(rs) && isASCIILetter(rs[j+1]) {
			break
		}
		letters++
		last = j

		k := j + 1
		for k < len(rs) && !isASCIILetter(rs[k]) {
			k++
		}
		j = k
	}

	if letters < minSpacedLetters {
		return -1
	}
	return last
}

func (n *Normalizer) substituteLeet(s string) string {
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		tokens[i] = strings.Join(n.expandToken(tok), " ")
	}
	return strings.Join(tokens, " ")
}

// limitRepeats truncates runs of the same ASCII letter to max.
func limitRepeats(s string, max int) string {
	var (
		b     strings.Builder
		prev  rune = -1
		count int
	)
	b.Grow(len(s))

	for _, r := range s {
		if isASCIILetter(r) && unicode.ToLower(r) == unicode.ToLower(prev) {
			count++
		} else {
			count = 1
		}
		prev = r
		if isASCIILetter(r) && count > max {
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// reduceDoubles collapses every run of one ASCII letter to a single letter.
func reduceDoubles(tok string) string {
	return limitRepeats(tok, 1)
}

// withReducedVariants joins tokens, following each one with its de-doubled
// form when that differs. A token equal to the variant just emitted is
// skipped, which keeps the output stable under repeated normalization.
func withReducedVariants(tokens []string) string {
	out := make([]string, 0, len(tokens)*2)
	lastReduced := ""
	for _, tok := range tokens {
		if tok == lastReduced {
			lastReduced = ""
			continue
		}
		out = append(out, tok)
		lastReduced = ""
		if reduced := reduceDoubles(tok); reduced != tok {
			out = append(out, reduced)
			lastReduced = reduced
		}
	}
	return strings.Join(out, " ")
}
