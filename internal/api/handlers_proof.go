package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/redline/internal/docio"
	"github.com/dgallion1/redline/internal/pipeline"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleProof accepts a document upload (multipart "file") or pasted text
// (form "text", multipart or urlencoded) and queues a proofing job. A
// missing or empty document is the one user-visible failure in the
// pipeline.
func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	// Limit total request size; extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	var data []byte
	var filename string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			filename = sanitizeFilename(header.Filename)
			if !docio.IsSupportedExtension(filename) {
				jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
				return
			}
			data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
			if err != nil {
				jsonError(w, "failed to read file", http.StatusInternalServerError)
				return
			}
			if int64(len(data)) > s.cfg.MaxUploadBytes {
				jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
				return
			}
		}
	} else if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	if data == nil {
		if text := r.FormValue("text"); text != "" {
			data = []byte(text)
			filename = "pasted.txt"
		} else {
			jsonError(w, "a document is required: upload a file or supply a text field", http.StatusBadRequest)
			return
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		jsonError(w, "the document is empty, nothing to check", http.StatusBadRequest)
		return
	}

	language := r.FormValue("language")
	if language == "" {
		language = s.cfg.Language
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:        pipeline.NewJobID(),
		DocID:     pipeline.ContentHashHex(data)[:16],
		Filename:  filename,
		Title:     r.FormValue("title"),
		Language:  language,
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/proof/%s/status", job.ID),
	})
}

func (s *Server) handleProofStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleProofPreview returns the inline-markup rendering once the job has
// finished. The markup carries wrong/suggestion/source/meaning as data
// attributes for the UI.
func (s *Server) handleProofPreview(w http.ResponseWriter, r *http.Request) {
	job, res := s.finishedJob(w, r)
	if res == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id": job.ID,
		"doc_id": job.DocID,
		"html":   res.PreviewHTML,
	})
}

// handleProofDownload streams the annotated .docx.
func (s *Server) handleProofDownload(w http.ResponseWriter, r *http.Request) {
	_, res := s.finishedJob(w, r)
	if res == nil {
		return
	}
	if len(res.Docx) == 0 {
		jsonError(w, "document rendering failed for this job, preview only", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", docxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.DownloadName))
	w.Write(res.Docx)
}

// finishedJob resolves the job in the URL and its result, writing the
// error response itself when either is unavailable.
func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, *pipeline.Result) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, nil
	}
	res := job.Result()
	if res == nil {
		jsonError(w, fmt.Sprintf("job is not finished (status %s)", job.CurrentStatus()), http.StatusConflict)
		return nil, nil
	}
	return job, res
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
