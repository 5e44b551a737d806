package annotate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dgallion1/redline/internal/grammar"
	"github.com/dgallion1/redline/internal/lexicon"
	"github.com/dgallion1/redline/internal/review"
)

// GrammarSource checks one line of text and returns the flagged matches.
type GrammarSource interface {
	Check(ctx context.Context, text, language string) ([]grammar.Match, error)
}

// Reviewer proposes word-level fixes constrained to candidate words.
type Reviewer interface {
	Review(ctx context.Context, sentence string, candidates []string) ([]review.WordFix, error)
}

// Collector normalizes raw results from each correction source into Span
// records for one line. Every source call is isolated: a failure or
// malformed payload from one source yields zero spans from that source
// and never aborts collection for the others.
type Collector struct {
	grammar  GrammarSource
	reviewer Reviewer // nil when the reviewer is disabled
	lex      *lexicon.Lexicon
	log      *slog.Logger
}

func NewCollector(g GrammarSource, r Reviewer, lex *lexicon.Lexicon, log *slog.Logger) *Collector {
	return &Collector{
		grammar:  g,
		reviewer: r,
		lex:      lex,
		log:      log,
	}
}

// Collect fans out one line to all sources and returns the unordered union
// of their spans, plus one error per source that degraded. A degraded
// source contributes zero spans but never aborts collection; callers
// record the errors on job progress. Reference-like lines are never sent
// to any source.
func (c *Collector) Collect(ctx context.Context, line, language string) ([]Span, []error) {
	if IsReferenceLine(line) {
		return nil, nil
	}

	var errs []error
	spans, err := c.collectGrammar(ctx, line, language)
	if err != nil {
		errs = append(errs, err)
	}
	candidates := c.candidateWords(spans)
	spans = append(spans, c.collectLegal(line)...)
	reviewed, err := c.collectReview(ctx, line, candidates)
	if err != nil {
		errs = append(errs, err)
	}
	spans = append(spans, reviewed...)
	return spans, errs
}

func (c *Collector) collectGrammar(ctx context.Context, line, language string) ([]Span, error) {
	if c.grammar == nil {
		return nil, nil
	}
	matches, err := c.grammar.Check(ctx, line, language)
	if err != nil {
		c.log.Warn("grammar check failed", "error", err)
		return nil, fmt.Errorf("grammar: %w", err)
	}

	var spans []Span
	for _, m := range matches {
		sp := Span{
			Start:    m.Offset,
			End:      m.Offset + m.Length,
			Category: CategoryGrammar,
			Message:  m.Message,
		}
		if sp.Start < 0 || sp.End <= sp.Start || sp.End > len(line) {
			continue
		}
		sp.Original = line[sp.Start:sp.End]
		if strings.TrimSpace(sp.Original) == "" {
			continue
		}
		if len(m.Replacements) > 0 {
			sp.Suggestion = m.Replacements[0]
		}
		spans = append(spans, sp)
	}
	return spans, nil
}

func (c *Collector) collectLegal(line string) []Span {
	var spans []Span
	for _, fix := range c.lex.Fixes() {
		for _, loc := range wordOccurrences(line, fix.Wrong) {
			sp := Span{
				Start:      loc[0],
				End:        loc[1],
				Original:   line[loc[0]:loc[1]],
				Suggestion: fix.Correct,
				Category:   CategoryLegal,
				Message:    "accepted form: " + fix.Correct,
			}
			if meaning, ok := c.lex.Meaning(fix.Correct); ok {
				sp.Meaning = meaning
			}
			spans = append(spans, sp)
		}
	}
	return spans
}

func (c *Collector) collectReview(ctx context.Context, line string, candidates []string) ([]Span, error) {
	if c.reviewer == nil || len(candidates) == 0 {
		return nil, nil
	}
	fixes, err := c.reviewer.Review(ctx, line, candidates)
	if err != nil {
		c.log.Warn("reviewer call failed", "error", err)
		return nil, fmt.Errorf("reviewer: %w", err)
	}

	var spans []Span
	for _, f := range fixes {
		if strings.TrimSpace(f.Wrong) == "" || strings.TrimSpace(f.Suggestion) == "" {
			continue
		}
		for _, loc := range wordOccurrences(line, f.Wrong) {
			spans = append(spans, Span{
				Start:      loc[0],
				End:        loc[1],
				Original:   line[loc[0]:loc[1]],
				Suggestion: f.Suggestion,
				Category:   CategoryLLM,
				Message:    "reviewer suggestion",
			})
		}
	}
	return spans, nil
}

// candidateWords extracts the distinct words the grammar checker flagged,
// minus stop words. These are the only words the reviewer may be asked
// about; with no candidates the reviewer is not invoked at all.
func (c *Collector) candidateWords(grammarSpans []Span) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, sp := range grammarSpans {
		for _, w := range wordRe.FindAllString(sp.Original, -1) {
			key := strings.ToLower(w)
			if _, dup := seen[key]; dup {
				continue
			}
			if c.lex.IsStopword(w) {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

var (
	citationRe = regexp.MustCompile(`\[\d+\]`)
	yearRe     = regexp.MustCompile(`\(\d{4}[a-z]?\)`)
)

// IsReferenceLine reports whether a line looks like a citation, URL or
// footnote. Such lines are excluded from all source queries and pass
// through unannotated.
func IsReferenceLine(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return true
	}
	lower := strings.ToLower(t)
	if strings.Contains(lower, "http://") || strings.Contains(lower, "https://") || strings.Contains(lower, "www.") {
		return true
	}
	if strings.Contains(lower, "doi.org") || strings.Contains(lower, "doi:") {
		return true
	}
	return citationRe.MatchString(t) || yearRe.MatchString(t)
}

// wordOccurrences finds every whole-word, case-insensitive occurrence of
// phrase in line and returns [start, end) byte offsets. A phrase that
// cannot form a valid pattern matches nothing.
func wordOccurrences(line, phrase string) [][2]int {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
	if err != nil {
		return nil
	}
	locs := re.FindAllStringIndex(line, -1)
	out := make([][2]int, 0, len(locs))
	for _, loc := range locs {
		out = append(out, [2]int{loc[0], loc[1]})
	}
	return out
}
