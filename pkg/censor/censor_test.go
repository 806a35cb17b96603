package censor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	log "github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	os.Exit(m.Run())
}

func newTestCensor(t *testing.T, mode Mode, words []string) *Censor {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.Words = words
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create censor: %v", err)
	}
	return c
}

func TestCensor_ContainsWordMode(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		words []string
		want  bool
	}{
		{"Clean sentence", "This is a clean sentence", []string{"badword", "abuse"}, false},
		{"Word in sentence", "This contains badword here", []string{"badword", "abuse"}, true},
		{"Prefix of a listed word", "Nothing abusive here", []string{"badword", "abuse"}, false},
		{"Upper case", "BADWORD", []string{"badword"}, true},
		{"Mixed case", "Case insensitive BaDwOrD check", []string{"badword"}, true},
		{"Substring of a larger word", "classic passphrase here", []string{"ass"}, false},
		{"Suffix of a larger word", "I love badass movies", []string{"ass"}, false},
		{"Standalone token", "what an ass", []string{"ass"}, true},
		{"Repeated symbol", "what an a$$", []string{"ass"}, true},
		{"Repeated digit", "a55", []string{"ass"}, true},
		{"Repeated symbol first", "$$hole", []string{"shole"}, true},
		{"Leet at", "b@dword", []string{"badword"}, true},
		{"Leet digit", "b4dword", []string{"badword"}, true},
		{"Leet with trailing punctuation", "This is b@dword!", []string{"badword"}, true},
		{"Stretched", "baaadword", []string{"badword"}, true},
		{"Stretched short", "fuuuck", []string{"fuck"}, true},
		{"Doubled", "ddumb", []string{"dumb"}, true},
		{"Spaced letters", "f u c k", []string{"fuck"}, true},
		{"Spaced short", "a b c", []string{"abc"}, true},
		{"Dotted letters", "f.u.c.k off", []string{"fuck"}, true},
		{"Dashed letters", "f-u-c-k", []string{"fuck"}, true},
		{"Wildcard", "What the sh*t?", []string{"shit"}, true},
		{"Bang inside word", "Sh!t! Happens", []string{"shit"}, true},
		{"Diacritics", "bádwörd", []string{"badword"}, true},
		{"Fullwidth", "ｂａｄｗｏｒｄ", []string{"badword"}, true},
		{"Emoji", "You are a \U0001F620 person", []string{"angry"}, true},
		{"Multiple words", "You are a dumb and ugly person", []string{"dumb", "ugly"}, true},
		{"Multiple words clean", "This is clean", []string{"dumb", "ugly"}, false},
		{"Prose with single letters", "I am ok", []string{"iam", "amok"}, false},
		{"Cyrillic", "ты гадина", []string{"гадина"}, true},
		{"Cyrillic inside word", "гадинами", []string{"гадина"}, false},
		{"Blank entries ignored", "anything at all", []string{"", "  "}, false},
		{"Empty text", "", []string{"badword"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCensor(t, ModeWord, tt.words)
			if got := c.Contains(tt.text); got != tt.want {
				t.Errorf("Contains(%q) = %v; want %v (normalized %q)", tt.text, got, tt.want, c.Normalize(tt.text))
			}
		})
	}
}

func TestCensor_ContainsRegexMode(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		words []string
		want  bool
	}{
		{"Clean sentence", "This is a clean sentence", []string{"badword", "abuse"}, false},
		{"Word in sentence", "This contains badword here", []string{"badword", "abuse"}, true},
		{"Case insensitive", "Case insensitive BADWORD check", []string{"badword"}, true},
		{"Leet", "This is b@dword!", []string{"badword"}, true},
		{"Leet digit", "He typed b4dword in chat", []string{"badword"}, true},
		{"Stretched", "He said baaadword loudly", []string{"badword"}, true},
		{"Stretched short", "She wrote fuuuck!", []string{"fuck"}, true},
		{"Emoji", "You are a \U0001F620 person", []string{"angry"}, true},
		{"Substring matches without anchors", "Classic passphrase here", []string{"ass"}, true},
		{"Caller anchors", "Classic passphrase here", []string{`\bass\b`}, false},
		{"Two wildcards", "You are a bi**er", []string{"bitter"}, true},
		{"Alternation", "go to hell", []string{"he(ll|ck)"}, true},
		{"Blank entries ignored", "anything", []string{""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCensor(t, ModeRegex, tt.words)
			if got := c.Contains(tt.text); got != tt.want {
				t.Errorf("Contains(%q) = %v; want %v (normalized %q)", tt.text, got, tt.want, c.Normalize(tt.text))
			}
		})
	}
}

func TestNew_InvalidMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "bogus"
	cfg.Words = []string{"badword"}

	c, err := New(cfg)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("New() error = %v; want %v", err, ErrConfig)
	}
	if c != nil {
		t.Error("New() returned a censor together with an error")
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeRegex
	cfg.Words = []string{"ok", "(unclosed"}

	_, err := New(cfg)
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("New() error = %v; want %v", err, ErrInvalidPattern)
	}
}

func TestNew_DefaultList(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create censor with the default list: %v", err)
	}
	if len(c.Words()) == 0 {
		t.Fatal("default list is empty")
	}

	for _, w := range c.Words() {
		if strings.HasPrefix(w, "#") {
			t.Errorf("comment line %q loaded as a word", w)
		}
	}

	blocked := []string{"what the fuck", "you b!tch", "sh1t happens"}
	for _, text := range blocked {
		if !c.Contains(text) {
			t.Errorf("Contains(%q) = false; want true", text)
		}
	}

	clean := []string{
		"hello, how are you?",
		"nice weather today",
		"I need to assess the situation",
		"the grape harvest was great",
		"classic passphrase",
	}
	for _, text := range clean {
		if c.Contains(text) {
			t.Errorf("Contains(%q) = true; want false (normalized %q)", text, c.Normalize(text))
		}
	}
}

func TestNew_DefaultListMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultFS = fstest.MapFS{}

	_, err := New(cfg)
	if !errors.Is(err, ErrDataNotFound) {
		t.Fatalf("New() error = %v; want %v", err, ErrDataNotFound)
	}

	cfg.DefaultFS = nil
	_, err = New(cfg)
	if !errors.Is(err, ErrDataNotFound) {
		t.Fatalf("New() without a default FS error = %v; want %v", err, ErrDataNotFound)
	}
}

func TestNew_DefaultListFromFS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultFS = fstest.MapFS{
		"lists/custom.txt": {Data: []byte("# custom\nfoo\n\nbar\n")},
	}
	cfg.DefaultPath = "lists/custom.txt"

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create censor: %v", err)
	}
	if want := []string{"foo", "bar"}; !reflect.DeepEqual(c.Words(), want) {
		t.Errorf("Words() = %v; want %v", c.Words(), want)
	}
}

func TestNew_EmptyList(t *testing.T) {
	c := newTestCensor(t, ModeWord, []string{})
	if c.Contains("fuck") {
		t.Error("censor with an empty list matched")
	}
}

func TestCensor_MaxConsecutive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Words = []string{"boot"}
	cfg.MaxConsecutive = 1
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create censor: %v", err)
	}

	if c.Contains("booooot") {
		t.Errorf("Contains(%q) = true with one repeat allowed; want false", "booooot")
	}

	cfg.MaxConsecutive = 2
	c, err = New(cfg)
	if err != nil {
		t.Fatalf("failed to create censor: %v", err)
	}
	if !c.Contains("booooot") {
		t.Errorf("Contains(%q) = false with two repeats allowed; want true", "booooot")
	}
}

func TestCensor_Replace(t *testing.T) {
	c := newTestCensor(t, ModeWord, []string{"badword"})

	if err := c.Replace([]string{"x"}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if c.Contains("badword") {
		t.Error("Contains(\"badword\") = true after the list was replaced")
	}
	if !c.Contains("x") {
		t.Error("Contains(\"x\") = false after replacing the list with [x]")
	}
	if want := []string{"x"}; !reflect.DeepEqual(c.Words(), want) {
		t.Errorf("Words() = %v; want %v", c.Words(), want)
	}
}

func TestCensor_Extend(t *testing.T) {
	c := newTestCensor(t, ModeWord, []string{"badword"})

	if err := c.Extend([]string{"abuse"}); err != nil {
		t.Fatalf("Extend() error: %v", err)
	}
	if !c.Contains("badword") || !c.Contains("abuse") {
		t.Error("extended censor lost old or new entries")
	}
	if want := []string{"badword", "abuse"}; !reflect.DeepEqual(c.Words(), want) {
		t.Errorf("Words() = %v; want %v", c.Words(), want)
	}
}

func TestCensor_MutationInvalidPatternKeepsList(t *testing.T) {
	c := newTestCensor(t, ModeRegex, []string{"badword"})

	if err := c.Extend([]string{"[oops"}); !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("Extend() error = %v; want %v", err, ErrInvalidPattern)
	}
	if err := c.Replace([]string{"(?P<"}); !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("Replace() error = %v; want %v", err, ErrInvalidPattern)
	}
	if want := []string{"badword"}; !reflect.DeepEqual(c.Words(), want) {
		t.Errorf("Words() = %v; want %v", c.Words(), want)
	}
	if !c.Contains("badword") {
		t.Error("censor stopped matching after a failed mutation")
	}
}

func TestCensor_WordsIsCopy(t *testing.T) {
	c := newTestCensor(t, ModeWord, []string{"badword"})

	words := c.Words()
	words[0] = "changed"
	if c.Words()[0] != "badword" {
		t.Error("mutating the Words() result changed the censor")
	}
}

func TestCensor_LoadFromFile(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		encoding string
		want     []string
	}{
		{"Comments and blanks", "words.txt", "", []string{"badword", "abuse", "dumb"}},
		{"Explicit utf-8", "words.txt", "utf-8", []string{"badword", "abuse", "dumb"}},
		{"CRLF line endings", "crlf.txt", "", []string{"badword", "abuse"}},
		{"Legacy encoding", "cp1251.txt", "windows-1251", []string{"гадина"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCensor(t, ModeWord, []string{"initial"})

			err := c.LoadFromFile(filepath.Join("test_data", tt.file), tt.encoding)
			if err != nil {
				t.Fatalf("LoadFromFile() error: %v", err)
			}
			if !reflect.DeepEqual(c.Words(), tt.want) {
				t.Errorf("Words() = %v; want %v", c.Words(), tt.want)
			}
			if c.Contains("initial") {
				t.Error("LoadFromFile() extended the list instead of replacing it")
			}
			if !c.Contains(tt.want[0]) {
				t.Errorf("Contains(%q) = false after loading", tt.want[0])
			}
		})
	}
}

func TestCensor_LoadFromFileErrors(t *testing.T) {
	c := newTestCensor(t, ModeWord, []string{"initial"})

	err := c.LoadFromFile(filepath.Join("test_data", "missing.txt"), "")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("LoadFromFile(missing) error = %v; want %v", err, fs.ErrNotExist)
	}

	err = c.LoadFromFile(filepath.Join("test_data", "words.txt"), "no-such-encoding")
	if !errors.Is(err, ErrConfig) {
		t.Errorf("LoadFromFile(bad encoding) error = %v; want %v", err, ErrConfig)
	}

	if want := []string{"initial"}; !reflect.DeepEqual(c.Words(), want) {
		t.Errorf("Words() = %v after failed loads; want %v", c.Words(), want)
	}
}

func TestParseWordList(t *testing.T) {
	input := "\ufeffone\n# comment\n\n  two  \n\t#indented\n  # note\nthree"

	got, err := ParseWordList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseWordList() error: %v", err)
	}
	if want := []string{"one", "two", "three"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ParseWordList() = %v; want %v", got, want)
	}
}

func BenchmarkContains(b *testing.B) {
	c, err := New(DefaultConfig())
	if err != nil {
		b.Fatalf("failed to create censor: %v", err)
	}
	msg := "hey how are you doing today? I love chatting about music and movies. What are your favorite hobbies?"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Contains(msg)
	}
}
