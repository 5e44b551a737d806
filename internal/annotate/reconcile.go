package annotate

import (
	"sort"
	"strings"
)

// categoryRank orders suggestion precedence: a legal fix always wins over
// a reviewer suggestion, which wins over a grammar-checker suggestion.
func categoryRank(c Category) int {
	switch c {
	case CategoryLegal:
		return 3
	case CategoryLLM:
		return 2
	case CategoryGrammar:
		return 1
	}
	return 0
}

// Reconcile merges the unordered union of spans from all sources into a
// valid AnnotationSet for line. It never fails: empty or fully conflicting
// input yields an empty set, which renders the line unchanged.
//
// Spans that refer to the same literal text are grouped case-insensitively,
// even when sources computed different offsets for repeated occurrences.
// Each group resolves one effective suggestion by category precedence,
// then contributes one resolved span per occurrence of the literal in the
// line. No-op resolutions are dropped. When two different literal groups
// still overlap (a legal-fix phrase spanning grammar-flagged tokens), the
// earlier-starting span wins and the later one is discarded.
func Reconcile(line string, spans []Span) AnnotationSet {
	groups := make(map[string][]Span)
	var order []string
	for _, sp := range spans {
		if !sp.Valid(line) {
			continue
		}
		key := strings.ToLower(sp.Original)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], sp)
	}

	var resolved []Span
	for _, key := range order {
		group := groups[key]

		// Pick the highest-ranked span that actually carries a suggestion;
		// informational spans never win a group.
		var best Span
		found := false
		for _, sp := range group {
			if sp.Suggestion == "" {
				continue
			}
			if !found || categoryRank(sp.Category) > categoryRank(best.Category) {
				best, found = sp, true
			}
		}
		if !found {
			continue
		}

		locs := wordOccurrences(line, best.Original)
		if len(locs) == 0 {
			// Literal is not word-delimited (flagged punctuation, partial
			// token). Fall back to the winning span's own offsets.
			locs = [][2]int{{best.Start, best.End}}
		}
		for _, loc := range locs {
			orig := line[loc[0]:loc[1]]
			if best.Suggestion == orig {
				continue
			}
			resolved = append(resolved, Span{
				Start:      loc[0],
				End:        loc[1],
				Original:   orig,
				Suggestion: best.Suggestion,
				Category:   best.Category,
				Message:    best.Message,
				Meaning:    best.Meaning,
			})
		}
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		if resolved[i].Start != resolved[j].Start {
			return resolved[i].Start < resolved[j].Start
		}
		return resolved[i].End > resolved[j].End
	})

	// Sweep: drop any span overlapping an earlier-starting one.
	var set AnnotationSet
	lastEnd := 0
	for _, sp := range resolved {
		if sp.Start < lastEnd {
			continue
		}
		set = append(set, sp)
		lastEnd = sp.End
	}
	return set
}
