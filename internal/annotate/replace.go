package annotate

import (
	"regexp"
	"strings"
)

// Replacement is one user-approved literal substitution, applied to the
// final (possibly user-edited) text rather than to annotation offsets.
type Replacement struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ApplyReplacements rewrites text by applying every replacement, in list
// order, to every paragraph (one paragraph = one line). Matching is
// whole-word and case-insensitive, and intentionally replaces only the
// FIRST occurrence per paragraph per request; a later occurrence of the
// same token in the same paragraph is left alone. Malformed or empty
// pairs are skipped silently.
func ApplyReplacements(text string, reps []Replacement) string {
	lines := strings.Split(text, "\n")
	for _, rep := range reps {
		old := strings.TrimSpace(rep.Old)
		if old == "" || strings.TrimSpace(rep.New) == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(old) + `\b`)
		if err != nil {
			continue
		}
		for i, line := range lines {
			if loc := re.FindStringIndex(line); loc != nil {
				lines[i] = line[:loc[0]] + rep.New + line[loc[1]:]
			}
		}
	}
	return strings.Join(lines, "\n")
}
