package censor

import (
	"fmt"
	"regexp"
	"strings"
)

// matcher is the compiled, read-only form of a word list.
type matcher interface {
	match(normalized string) bool
}

// wordBoundary consumes one non-word rune or an end of input. Go's \b only
// knows ASCII word characters, which would never anchor a Cyrillic entry.
const wordBoundary = `[^\p{L}\p{M}\p{N}_]`

// wordMatcher anchors every entry on word boundaries in one alternation.
// A nil pattern never matches.
type wordMatcher struct {
	re *regexp.Regexp
}

func (m wordMatcher) match(s string) bool {
	return m.re != nil && m.re.MatchString(s)
}

// regexMatcher reports a match when any caller-supplied pattern matches.
type regexMatcher struct {
	patterns []*regexp.Regexp
}

func (m regexMatcher) match(s string) bool {
	for _, re := range m.patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func compile(mode Mode, words []string) (matcher, error) {
	switch mode {
	case ModeWord:
		escaped := make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.TrimSpace(w); w != "" {
				escaped = append(escaped, regexp.QuoteMeta(w))
			}
		}
		if len(escaped) == 0 {
			return wordMatcher{}, nil
		}
		re, err := regexp.Compile(`(?i)(?:^|` + wordBoundary + `)(?:` + strings.Join(escaped, "|") + `)(?:` + wordBoundary + `|$)`)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		return wordMatcher{re: re}, nil

	case ModeRegex:
		patterns := make([]*regexp.Regexp, 0, len(words))
		for _, w := range words {
			if strings.TrimSpace(w) == "" {
				continue
			}
			re, err := regexp.Compile("(?i)" + w)
			if err != nil {
				return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, w, err)
			}
			patterns = append(patterns, re)
		}
		return regexMatcher{patterns: patterns}, nil
	}

	return nil, fmt.Errorf("%w: mode must be %q or %q, got %q", ErrConfig, ModeWord, ModeRegex, mode)
}
