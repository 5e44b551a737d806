package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/redline/internal/annotate"
	"github.com/dgallion1/redline/internal/config"
	"github.com/dgallion1/redline/internal/grammar"
	"github.com/dgallion1/redline/internal/lexicon"
	"github.com/dgallion1/redline/internal/pipeline"
	"github.com/dgallion1/redline/internal/stats"
)

type stubGrammar struct{}

func (stubGrammar) Check(ctx context.Context, text, language string) ([]grammar.Match, error) {
	idx := strings.Index(text, "recieve")
	if idx < 0 {
		return nil, nil
	}
	return []grammar.Match{{
		Offset:       idx,
		Length:       len("recieve"),
		Message:      "possible typo",
		Replacements: []string{"receive"},
	}}, nil
}

func testConfig() config.Config {
	return config.Config{
		Port:               "0",
		Language:           "en-US",
		WorkerCount:        1,
		MaxQueueSize:       4,
		MaxConcurrentLines: 2,
		MaxUploadBytes:     1 << 20,
		JobTTL:             time.Minute,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	lex := lexicon.New(nil, lexicon.DefaultFixes, lexicon.DefaultStopwords)
	collector := annotate.NewCollector(stubGrammar{}, nil, lex, log)

	orch := pipeline.NewOrchestrator(cfg, collector, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, nil, stats.NewWindow(time.Minute), log, cfg)
}

func multipartText(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func waitForResult(t *testing.T, srv *Server, jobID string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proof/"+jobID+"/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status endpoint returned %d: %s", rec.Code, rec.Body.String())
		}
		var snap pipeline.JobSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatal(err)
		}
		switch snap.Status {
		case pipeline.StatusCompleted, pipeline.StatusPartial, pipeline.StatusFailed:
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return pipeline.JobSnapshot{}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestProofFlow(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body, contentType := multipartText(t, map[string]string{
		"text": "We recieve the habeus corpus writ.",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/proof", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("proof = %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		DocID   string `json:"doc_id"`
		Status  string `json:"status"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatal(err)
	}
	if accepted.JobID == "" || accepted.DocID == "" {
		t.Fatalf("missing ids: %+v", accepted)
	}
	if accepted.Status != string(pipeline.StatusQueued) {
		t.Errorf("status = %q", accepted.Status)
	}
	if accepted.PollURL != "/api/proof/"+accepted.JobID+"/status" {
		t.Errorf("poll url = %q", accepted.PollURL)
	}

	snap := waitForResult(t, srv, accepted.JobID)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("final status = %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.SpansFound < 2 {
		t.Errorf("expected grammar and legal spans, got %d", snap.Progress.SpansFound)
	}

	// Preview carries the inline markup.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proof/"+accepted.JobID+"/preview", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("preview = %d: %s", rec.Code, rec.Body.String())
	}
	var preview struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(preview.HTML, `data-wrong="recieve"`) {
		t.Errorf("preview missing grammar mark: %s", preview.HTML)
	}
	if !strings.Contains(preview.HTML, `data-suggestion="habeas corpus"`) {
		t.Errorf("preview missing legal mark: %s", preview.HTML)
	}

	// Download streams the annotated docx.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proof/"+accepted.JobID+"/download", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != docxMIME {
		t.Errorf("content type = %q", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "pasted_corrected.docx") {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("download is not a zip archive")
	}
}

func TestProofFileUpload(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "brief.txt")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("The court acted suo moto here."))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/proof", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("proof = %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID string `json:"job_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &accepted)

	snap := waitForResult(t, srv, accepted.JobID)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("final status = %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Filename != "brief.txt" {
		t.Errorf("filename = %q", snap.Filename)
	}
}

func TestProofAcceptsURLEncodedText(t *testing.T) {
	srv := newTestServer(t, testConfig())

	form := url.Values{"text": {"We recieve the notice."}}
	req := httptest.NewRequest(http.MethodPost, "/api/proof", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("urlencoded proof = %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatal(err)
	}
	snap := waitForResult(t, srv, accepted.JobID)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("final status = %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Filename != "pasted.txt" {
		t.Errorf("filename = %q", snap.Filename)
	}
}

func TestProofRejectsMissingDocument(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body, contentType := multipartText(t, map[string]string{"language": "en-US"})
	req := httptest.NewRequest(http.MethodPost, "/api/proof", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestProofRejectsWhitespaceOnlyText(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body, contentType := multipartText(t, map[string]string{"text": "   \n  "})
	req := httptest.NewRequest(http.MethodPost, "/api/proof", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "empty") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestProofRejectsUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "malware.exe")
	fw.Write([]byte("binary"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/proof", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestProofStatusUnknownJob(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proof/nope/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestApplyTextFormat(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body := `{"text":"We recieve this.\nAlso recieve that.","format":"text","replacements":[{"old":"recieve","new":"receive"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/apply", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("apply = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := "We receive this.\nAlso receive that."
	if resp.Text != want {
		t.Errorf("text = %q, want %q", resp.Text, want)
	}
}

func TestApplyDocxFormat(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body := `{"text":"The mens reaa was clear.","filename":"opinion","replacements":[{"old":"mens reaa","new":"mens rea"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/apply", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("apply = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != docxMIME {
		t.Errorf("content type = %q", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "opinion.docx") {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("response is not a zip archive")
	}
}

func TestApplyRequiresText(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/apply", strings.NewReader(`{"text":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if _, ok := out["queue_depth"]; !ok {
		t.Error("missing queue_depth")
	}
	if _, ok := out["grammar"]; !ok {
		t.Error("missing grammar stats")
	}
	if _, ok := out["reviewer"]; ok {
		t.Error("reviewer stats present though reviewer is disabled")
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "secret-key"
	srv := newTestServer(t, cfg)

	// Health stays public.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health behind auth = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"brief.docx", "brief.docx"},
		{"../../etc/passwd", "passwd"},
		{"dir/inner.txt", "inner.txt"},
		{"", "unnamed"},
		{".", "unnamed"},
	}
	for _, tc := range tests {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
