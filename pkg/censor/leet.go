package censor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxVariants bounds the number of surface forms generated for a single token.
const maxVariants = 1000

// LeetMap maps a symbol to the letters (or short strings) it may stand for.
type LeetMap map[string][]string

var defaultLeetMap = LeetMap{
	"@": {"a", "u"},
	"4": {"a"},
	"3": {"e"},
	"1": {"i", "l"},
	"0": {"o"},
	"$": {"s"},
	"+": {"t"},
	"!": {"i", "l", ""},
	"7": {"t", "l"},
	"5": {"s"},
	"%": {"x"},
	"&": {"and"},
	"#": {"h"},
	"?": {"q"},
	".": {""},
	"-": {" "},
	"*": {"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m",
		"n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z"},
}

// punctEndings are symbols that commonly close a word. Trailing a word they are
// left alone, and wherever they are substituted they may also be dropped.
var punctEndings = map[string]struct{}{
	"!": {}, ".": {}, "?": {}, ",": {}, ":": {}, ";": {},
	")": {}, "]": {}, "}": {}, `"`: {}, "'": {},
}

// DefaultLeetMap returns a copy of the built-in substitution table.
func DefaultLeetMap() LeetMap {
	return defaultLeetMap.clone()
}

func (m LeetMap) clone() LeetMap {
	c := make(LeetMap, len(m))
	for sym, repls := range m {
		c[sym] = append([]string(nil), repls...)
	}
	return c
}

// symbols lists the keys longest first so multi-character symbols win over
// their prefixes; ties are ordered lexically to keep expansion deterministic.
func (m LeetMap) symbols() []string {
	syms := make([]string, 0, len(m))
	for sym := range m {
		if sym != "" {
			syms = append(syms, sym)
		}
	}
	sort.Slice(syms, func(i, j int) bool {
		if len(syms[i]) != len(syms[j]) {
			return len(syms[i]) > len(syms[j])
		}
		return syms[i] < syms[j]
	})
	return syms
}

// options returns the replacements tried for one occurrence of sym.
func (m LeetMap) options(sym string) []string {
	opts := append([]string(nil), m[sym]...)
	if isAlnum(sym) {
		return opts
	}
	for _, o := range opts {
		if o == "" {
			return opts
		}
	}
	return append(opts, "")
}

// segment is either literal text or a substitutable symbol occurrence.
type segment struct {
	text string
	opts []string
}

// occurrence is one match of a LeetMap symbol inside a token.
type occurrence struct {
	sym        string
	start, end int
}

// expandToken returns every surface form of tok, in a stable order, capped at
// maxVariants. A symbol occurring more than once is substituted at every
// position. A single occurrence is substituted when a letter follows it, or
// when a letter precedes it and it is not a word-closing punctuation mark.
// Word-closing punctuation with no letter after it is always kept.
func (n *Normalizer) expandToken(tok string) []string {
	var occs []occurrence
	counts := make(map[string]int)
	for i := 0; i < len(tok); {
		sym := n.symbolAt(tok, i)
		if sym == "" {
			_, size := utf8.DecodeRuneInString(tok[i:])
			i += size
			continue
		}
		occs = append(occs, occurrence{sym: sym, start: i, end: i + len(sym)})
		counts[sym]++
		i += len(sym)
	}

	var (
		segs []segment
		pos  int
	)
	for _, o := range occs {
		if !substitutes(tok, o, counts[o.sym] > 1) {
			continue
		}
		if o.start > pos {
			segs = append(segs, segment{text: tok[pos:o.start]})
		}
		segs = append(segs, segment{opts: n.leet.options(o.sym)})
		pos = o.end
	}
	if pos < len(tok) {
		segs = append(segs, segment{text: tok[pos:]})
	}

	variants := []string{""}
	for _, seg := range segs {
		if seg.opts == nil {
			for i := range variants {
				variants[i] += seg.text
			}
			continue
		}

		next := make([]string, 0, len(variants)*len(seg.opts))
		seen := make(map[string]struct{}, cap(next))
	expand:
		for _, v := range variants {
			for _, o := range seg.opts {
				c := v + o
				if _, dup := seen[c]; dup {
					continue
				}
				seen[c] = struct{}{}
				next = append(next, c)
				if len(next) == maxVariants {
					break expand
				}
			}
		}
		variants = next
	}

	return variants
}

func substitutes(tok string, o occurrence, repeated bool) bool {
	next, _ := utf8.DecodeRuneInString(tok[o.end:])
	if isASCIILetter(next) {
		return true
	}

	_, punct := punctEndings[o.sym]
	if punct {
		return repeated && strings.IndexFunc(tok[o.end:], isASCIILetter) >= 0
	}
	if repeated {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(tok[:o.start])
	return isASCIILetter(prev)
}

func (n *Normalizer) symbolAt(s string, i int) string {
	for _, sym := range n.symbols {
		if strings.HasPrefix(s[i:], sym) {
			return sym
		}
	}
	return ""
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
