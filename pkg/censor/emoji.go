package censor

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/kyokomi/emoji/v2"
)

const variationSelector = "\ufe0f"

// emojiTable maps emoji glyph sequences to their shortest alias.
type emojiTable struct {
	tags     map[string]string
	starts   map[rune]struct{}
	maxRunes int
}

var emojis = sync.OnceValue(newEmojiTable)

func newEmojiTable() *emojiTable {
	t := &emojiTable{
		tags:   make(map[string]string),
		starts: make(map[rune]struct{}),
	}
	for alias, glyph := range emoji.CodeMap() {
		glyph = strings.TrimSpace(glyph)
		name := strings.Trim(alias, ":")
		if glyph == "" || name == "" {
			continue
		}
		t.add(glyph, name)
		t.add(strings.ReplaceAll(glyph, variationSelector, ""), name)
	}
	return t
}

func (t *emojiTable) add(glyph, name string) {
	if glyph == "" || isASCII(glyph) {
		return
	}
	if cur, ok := t.tags[glyph]; ok && !shorterName(name, cur) {
		return
	}
	t.tags[glyph] = name

	first, _ := utf8.DecodeRuneInString(glyph)
	t.starts[first] = struct{}{}
	if n := utf8.RuneCountInString(glyph); n > t.maxRunes {
		t.maxRunes = n
	}
}

// demojize replaces every known emoji with its alias surrounded by spaces,
// preferring the longest glyph sequence at each position.
func (t *emojiTable) demojize(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(rs); {
		if _, ok := t.starts[rs[i]]; !ok {
			b.WriteRune(rs[i])
			i++
			continue
		}

		n := min(t.maxRunes, len(rs)-i)
		for ; n > 0; n-- {
			if tag, ok := t.tags[string(rs[i:i+n])]; ok {
				b.WriteString(" " + tag + " ")
				break
			}
		}
		if n == 0 {
			b.WriteRune(rs[i])
			n = 1
		}
		i += n
	}

	return b.String()
}

func shorterName(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
