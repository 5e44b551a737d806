package review

import (
	"fmt"
	"sort"
	"strings"
)

const reviewPrompt = `You are reviewing one sentence from a legal document for misspelled or misused words.

Candidate words (flagged by an automated checker):
%s

Rules:
- ONLY consider the candidate words listed above. Never flag any other word.
- Do NOT change grammar, punctuation, or sentence structure.
- Be conservative: if a candidate word is already correct, leave it out.
- Never suggest changes to common function words such as: %s.

Respond with ONLY a JSON array, no markdown, no prose:
[{"wrong": "<candidate word exactly as given>", "suggestion": "<corrected word>"}]

Return [] if every candidate word is already correct.

Sentence:
%s`

// BuildReviewPrompt creates the reviewer prompt for one sentence,
// constrained to the given candidate words and stop-word exclusion list.
func BuildReviewPrompt(sentence string, candidates, stopwords []string) string {
	stop := append([]string(nil), stopwords...)
	sort.Strings(stop)
	if len(stop) > 15 {
		stop = stop[:15]
	}
	return fmt.Sprintf(reviewPrompt,
		"- "+strings.Join(candidates, "\n- "),
		strings.Join(stop, ", "),
		sentence,
	)
}
