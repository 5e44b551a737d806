package review

import (
	"strings"
	"testing"
)

func TestParseFixes(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []WordFix
		wantErr bool
	}{
		{
			name: "bare array",
			in:   `[{"wrong": "recieve", "suggestion": "receive"}]`,
			want: []WordFix{{Wrong: "recieve", Suggestion: "receive"}},
		},
		{
			name: "empty array",
			in:   `[]`,
			want: nil,
		},
		{
			name: "json code fence",
			in:   "```json\n[{\"wrong\": \"plantiff\", \"suggestion\": \"plaintiff\"}]\n```",
			want: []WordFix{{Wrong: "plantiff", Suggestion: "plaintiff"}},
		},
		{
			name: "plain code fence",
			in:   "```\n[{\"wrong\": \"plantiff\", \"suggestion\": \"plaintiff\"}]\n```",
			want: []WordFix{{Wrong: "plantiff", Suggestion: "plaintiff"}},
		},
		{
			name: "array embedded in prose",
			in:   `Here are the fixes: [{"wrong": "recieve", "suggestion": "receive"}] Hope that helps!`,
			want: []WordFix{{Wrong: "recieve", Suggestion: "receive"}},
		},
		{
			name:    "no array at all",
			in:      "every word looks correct to me",
			wantErr: true,
		},
		{
			name:    "broken json inside array",
			in:      `[{"wrong": "recieve", "suggestion": }]`,
			wantErr: true,
		},
		{
			name:    "empty response",
			in:      "",
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseFixes(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFixes: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d fixes, want %d", len(got), len(tc.want))
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("fix[%d] = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestBuildReviewPrompt(t *testing.T) {
	sentence := "We recieve the plantiff's motion."
	got := BuildReviewPrompt(sentence, []string{"recieve", "plantiff"}, []string{"the", "a", "of"})

	if !strings.Contains(got, sentence) {
		t.Error("prompt missing sentence")
	}
	if !strings.Contains(got, "- recieve") || !strings.Contains(got, "- plantiff") {
		t.Error("prompt missing candidate list")
	}
	if !strings.Contains(got, "a, of, the") {
		t.Errorf("stop words should be sorted: %s", got)
	}
	if !strings.Contains(got, "ONLY a JSON array") {
		t.Error("prompt missing response format instruction")
	}
}

func TestBuildReviewPrompt_CapsStopwords(t *testing.T) {
	stop := []string{
		"t01", "t02", "t03", "t04", "t05", "t06", "t07", "t08", "t09", "t10",
		"t11", "t12", "t13", "t14", "t15", "t16", "t17", "t18",
	}
	got := BuildReviewPrompt("sentence", []string{"word"}, stop)

	if strings.Contains(got, "t16") {
		t.Error("expected stop-word list capped at 15 entries")
	}
	if !strings.Contains(got, "t15") {
		t.Error("expected first 15 sorted stop words present")
	}
}
