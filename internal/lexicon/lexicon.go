// Package lexicon holds the static correction data injected into the span
// collector: the legal fix table (wrong phrase -> accepted phrase), the
// term-meaning dictionary, and the stop-word set used to filter reviewer
// candidates. Everything is loaded once at startup and read-only afterwards,
// so a Lexicon is safe for concurrent use without locking.
package lexicon

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
)

// Fix is a fixed wrong->correct phrase substitution. A fix always outranks
// suggestions from the grammar checker or the reviewer for the same text.
type Fix struct {
	Wrong   string `toml:"wrong"`
	Correct string `toml:"correct"`
}

// Lexicon is the read-only correction data set.
type Lexicon struct {
	meanings map[string]string
	fixes    []Fix
	stop     map[string]struct{}
}

// fileFormat is the on-disk TOML shape.
type fileFormat struct {
	Meanings  map[string]string `toml:"meanings"`
	Fixes     []Fix             `toml:"fixes"`
	Stopwords []string          `toml:"stopwords"`
}

// DefaultFixes is used when the lexicon file carries no fix table.
var DefaultFixes = []Fix{
	{Wrong: "suo moto", Correct: "suo motu"},
	{Wrong: "amicus curie", Correct: "amicus curiae"},
	{Wrong: "habeus corpus", Correct: "habeas corpus"},
	{Wrong: "res judicate", Correct: "res judicata"},
	{Wrong: "obiter dictum's", Correct: "obiter dicta"},
}

// DefaultStopwords is used when the lexicon file carries no stop-word list.
var DefaultStopwords = []string{
	"a", "an", "the", "and", "or", "but", "of", "in", "on", "at", "to",
	"for", "by", "with", "is", "am", "are", "was", "were", "be", "been",
	"it", "its", "as", "that", "this", "these", "those", "not", "no",
}

// New builds a Lexicon from in-memory data. Fixes missing either phrase
// are dropped. Tests use this to inject minimal fixtures.
func New(meanings map[string]string, fixes []Fix, stopwords []string) *Lexicon {
	l := &Lexicon{
		meanings: make(map[string]string, len(meanings)),
		fixes:    make([]Fix, 0, len(fixes)),
		stop:     make(map[string]struct{}, len(stopwords)),
	}
	for _, f := range fixes {
		if strings.TrimSpace(f.Wrong) == "" || strings.TrimSpace(f.Correct) == "" {
			continue
		}
		l.fixes = append(l.fixes, f)
	}
	for term, meaning := range meanings {
		key := Normalize(term)
		if key == "" {
			continue
		}
		l.meanings[key] = meaning
	}
	for _, w := range stopwords {
		l.stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return l
}

// Load reads the lexicon TOML file. A missing or unparseable file is not
// fatal: the service starts with an empty meaning dictionary and the
// built-in fix table and stop words, and every meaning lookup misses.
func Load(path string, log *slog.Logger) *Lexicon {
	var ff fileFormat
	if path != "" {
		if _, err := toml.DecodeFile(path, &ff); err != nil {
			log.Warn("lexicon load failed, starting with defaults", "path", path, "error", err)
			ff = fileFormat{}
		}
	}
	if len(ff.Fixes) == 0 {
		ff.Fixes = DefaultFixes
	}
	if len(ff.Stopwords) == 0 {
		ff.Stopwords = DefaultStopwords
	}
	l := New(ff.Meanings, ff.Fixes, ff.Stopwords)
	log.Info("lexicon loaded",
		"meanings", len(l.meanings),
		"fixes", len(l.fixes),
		"stopwords", len(l.stop),
	)
	return l
}

// Fixes returns the wrong->correct phrase table.
func (l *Lexicon) Fixes() []Fix {
	return l.fixes
}

// IsStopword reports whether w is a common function word the reviewer
// should never be asked about.
func (l *Lexicon) IsStopword(w string) bool {
	_, ok := l.stop[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

// Stopwords returns the stop-word list in no particular order.
func (l *Lexicon) Stopwords() []string {
	out := make([]string, 0, len(l.stop))
	for w := range l.stop {
		out = append(out, w)
	}
	return out
}

// Meaning looks up the meaning of a term by normalized key.
func (l *Lexicon) Meaning(term string) (string, bool) {
	m, ok := l.meanings[Normalize(term)]
	return m, ok
}

// Describe is Meaning with the user-facing miss message.
func (l *Lexicon) Describe(term string) string {
	if m, ok := l.Meaning(term); ok {
		return m
	}
	return fmt.Sprintf("meaning not found for %q", term)
}

// Normalize lowercases a term and strips everything but letters and
// spaces, collapsing runs of whitespace. "Suo  Motu." and "suo motu"
// normalize to the same key.
func Normalize(term string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(term) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
