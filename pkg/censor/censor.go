// Package censor provides lexical content filtering for short user-submitted text.

// Important notice: The bundled word list and the test data files contain
// explicit language and offensive terms required for pattern validation. These examples:
// - Are intentionally provocative to test edge cases
// - Do not represent the author's views
// - Should be treated as technical test artifacts only

// If you find such content disturbing or prefer to avoid exposure
// to sensitive language patterns:
// 1. Do not inspect the 'data' and 'test_data' directories
// 2. Avoid reviewing test case literals
package censor

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/htmlindex"
)

// Mode selects how word-list entries are interpreted.
type Mode string

const (
	// ModeWord treats entries as literal words matched on word boundaries.
	ModeWord Mode = "word"
	// ModeRegex treats entries as independent case-insensitive regular expressions.
	// Blank entries are ignored rather than compiled to a pattern matching everything.
	ModeRegex Mode = "regex"
)

// DefaultPath is the location of the bundled word list inside DefaultFS.
const DefaultPath = "data/bad_words.txt"

//go:embed data/bad_words.txt
var defaultData embed.FS

// Config describes a Censor. Start from DefaultConfig.
type Config struct {
	// Words is the initial list. nil loads DefaultPath from DefaultFS;
	// an empty non-nil slice yields a censor that matches nothing.
	Words          []string
	Mode           Mode
	MaxConsecutive int
	Demojize       bool

	DefaultFS   fs.FS
	DefaultPath string

	// Normalizer overrides the built-in leet table when set.
	Normalizer *Normalizer
}

// DefaultConfig returns word mode, two allowed repeats, demojization on and
// the bundled word list.
func DefaultConfig() Config {
	return Config{
		Mode:           ModeWord,
		MaxConsecutive: 2,
		Demojize:       true,
		DefaultFS:      defaultData,
		DefaultPath:    DefaultPath,
	}
}

// Censor normalizes text and tests it against a word list.
//
// The list and its compiled matcher are replaced together under a lock, so
// Contains always sees a list and matcher built from the same words.
type Censor struct {
	mode    Mode
	norm    *Normalizer
	normCfg NormalizationConfig

	mu    sync.RWMutex
	words []string
	m     matcher
}

// New builds a Censor from cfg.
func New(cfg Config) (*Censor, error) {
	if cfg.Mode != ModeWord && cfg.Mode != ModeRegex {
		return nil, fmt.Errorf("%w: mode must be %q or %q, got %q", ErrConfig, ModeWord, ModeRegex, cfg.Mode)
	}

	words := cfg.Words
	if words == nil {
		var err error
		words, err = loadDefault(cfg.DefaultFS, cfg.DefaultPath)
		if err != nil {
			return nil, err
		}
	}

	n := cfg.Normalizer
	if n == nil {
		n = NewNormalizer(nil)
	}

	normCfg := DefaultNormalization()
	normCfg.Demojize = cfg.Demojize
	normCfg.MaxConsecutiveRepeats = cfg.MaxConsecutive

	c := &Censor{
		mode:    cfg.Mode,
		norm:    n,
		normCfg: normCfg,
	}
	if err := c.Replace(words); err != nil {
		return nil, err
	}

	return c, nil
}

func loadDefault(fsys fs.FS, path string) ([]string, error) {
	if fsys == nil || path == "" {
		return nil, ErrDataNotFound
	}

	f, err := fsys.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrDataNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open default word list %s: %w", path, err)
	}
	defer f.Close()

	return ParseWordList(f)
}

// Mode returns the matching mode fixed at construction.
func (c *Censor) Mode() Mode {
	return c.mode
}

// Normalize returns text in the form Contains matches against.
func (c *Censor) Normalize(text string) string {
	return c.norm.Normalize(text, c.normCfg)
}

// Contains reports whether the normalized text matches any listed entry.
func (c *Censor) Contains(text string) bool {
	if text == "" {
		return false
	}
	normalized := c.Normalize(text)

	c.mu.RLock()
	m := c.m
	c.mu.RUnlock()

	return m.match(normalized)
}

// Words returns a copy of the current list.
func (c *Censor) Words() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.words...)
}

// Replace swaps the list for words. On error the current list is kept.
func (c *Censor) Replace(words []string) error {
	words = append([]string(nil), words...)
	m, err := compile(c.mode, words)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.words, c.m = words, m
	c.mu.Unlock()

	log.Debugf("[censor] compiled %d entries in %s mode", len(words), c.mode)
	return nil
}

// Extend appends words to the list. On error the current list is kept.
func (c *Censor) Extend(words []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]string, 0, len(c.words)+len(words))
	next = append(next, c.words...)
	next = append(next, words...)
	m, err := compile(c.mode, next)
	if err != nil {
		return err
	}
	c.words, c.m = next, m

	log.Debugf("[censor] extended list by %d entries to %d", len(words), len(next))
	return nil
}

// LoadFromFile replaces the list with the entries of the file at path.
// encoding is a WHATWG label such as "utf-8" or "windows-1251"; empty means UTF-8.
func (c *Censor) LoadFromFile(path, encoding string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open word list: %w", err)
	}
	defer f.Close()

	r, err := decodeReader(f, encoding)
	if err != nil {
		return err
	}

	words, err := ParseWordList(r)
	if err != nil {
		return fmt.Errorf("failed to read word list %s: %w", path, err)
	}

	return c.Replace(words)
}

func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	}

	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrConfig, encoding)
	}
	return enc.NewDecoder().Reader(r), nil
}

// ParseWordList reads one entry per line. Each line is trimmed first, so an
// indented "  # note" is a comment too; blank lines and lines starting with
// '#' are skipped.
func ParseWordList(r io.Reader) ([]string, error) {
	words := []string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return words, nil
}
