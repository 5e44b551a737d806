// Package review implements the optional language-model reviewer. It asks
// the Anthropic Messages API for word-level fixes, constrained to the
// candidate words the grammar checker already flagged. The reviewer is
// advisory only: any failure or unparseable response degrades to zero
// suggestions at the call site.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/redline/internal/stats"
)

// WordFix is a single word-level suggestion from the reviewer.
type WordFix struct {
	Wrong      string `json:"wrong"`
	Suggestion string `json:"suggestion"`
}

// Client calls the Anthropic Messages API for sentence review.
type Client struct {
	apiKey     string
	model      string
	stopwords  []string
	httpClient *http.Client

	// Stats tracks call latency for the /api/stats endpoint. May be nil.
	Stats *stats.Window
}

func NewClient(apiKey, model string, stopwords []string, st *stats.Window) *Client {
	return &Client{
		apiKey:    apiKey,
		model:     model,
		stopwords: stopwords,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		Stats: st,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Review asks the model to check the candidate words within sentence and
// returns the subset it would change. Callers treat any error as "no
// suggestions from this source".
func (c *Client) Review(ctx context.Context, sentence string, candidates []string) ([]WordFix, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropicMessage{
			{Role: "user", Content: BuildReviewPrompt(sentence, candidates, c.stopwords)},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if c.Stats != nil {
		c.Stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		return nil, fmt.Errorf("reviewer api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reviewer api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("reviewer error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("empty response from reviewer")
	}

	return ParseFixes(apiResp.Content[0].Text)
}

// ParseFixes extracts the first embedded JSON array of word fixes from a
// model response body. Anything without a well-formed array is an error.
func ParseFixes(text string) ([]WordFix, error) {
	text = stripCodeBlock(text)
	open := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if open < 0 || end < open {
		return nil, fmt.Errorf("no fix array in response: %s", truncate(text, 200))
	}

	var fixes []WordFix
	if err := json.Unmarshal([]byte(text[open:end+1]), &fixes); err != nil {
		return nil, fmt.Errorf("parse fixes json: %w (raw: %s)", err, truncate(text, 200))
	}
	return fixes, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
