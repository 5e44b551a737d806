// Package grammar talks to a LanguageTool-compatible checking service.
package grammar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/redline/internal/stats"
)

// Match is one flagged range in the checked text, offsets in bytes.
type Match struct {
	Offset       int
	Length       int
	Message      string
	Replacements []string
}

// Client communicates with the grammar-checking HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Stats tracks call latency for the /api/stats endpoint. May be nil.
	Stats *stats.Window
}

func NewClient(baseURL string, timeout time.Duration, st *stats.Window) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		Stats: st,
	}
}

// apiResponse is the wire shape of a check result.
type apiResponse struct {
	Matches []struct {
		Message      string `json:"message"`
		Offset       int    `json:"offset"`
		Length       int    `json:"length"`
		Replacements []struct {
			Value string `json:"value"`
		} `json:"replacements"`
	} `json:"matches"`
}

// Check submits text for grammar checking and returns the flagged matches.
// An absent "matches" field decodes as zero matches; rate limiting and
// server errors come back as *RetryableError so the pipeline can back off.
func (c *Client) Check(ctx context.Context, text, language string) ([]Match, error) {
	form := url.Values{
		"text":     {text},
		"language": {language},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if c.Stats != nil {
		c.Stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		return nil, fmt.Errorf("grammar api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grammar api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	matches := make([]Match, 0, len(apiResp.Matches))
	for _, m := range apiResp.Matches {
		reps := make([]string, 0, len(m.Replacements))
		for _, r := range m.Replacements {
			reps = append(reps, r.Value)
		}
		matches = append(matches, Match{
			Offset:       m.Offset,
			Length:       m.Length,
			Message:      m.Message,
			Replacements: reps,
		})
	}
	return matches, nil
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}
