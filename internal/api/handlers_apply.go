package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dgallion1/redline/internal/annotate"
	"github.com/dgallion1/redline/internal/docio"
)

// applyRequest carries the final, possibly user-edited text plus the
// replacement list the user approved. Replacements run against this text
// directly; annotation offsets from an earlier proofing job do not apply
// because the text may have changed since.
type applyRequest struct {
	Text         string                 `json:"text"`
	Replacements []annotate.Replacement `json:"replacements"`
	Format       string                 `json:"format,omitempty"` // "docx" (default) or "text"
	Filename     string                 `json:"filename,omitempty"`
}

// handleApply applies the approved replacements and returns the corrected
// document, synchronously.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	corrected := annotate.ApplyReplacements(req.Text, req.Replacements)

	if req.Format == "text" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": corrected})
		return
	}

	docxBytes, err := docio.BuildPlain(strings.Split(corrected, "\n"))
	if err != nil {
		s.log.Error("docx build failed", "error", err)
		jsonError(w, "failed to build document", http.StatusInternalServerError)
		return
	}

	name := strings.TrimSpace(req.Filename)
	if name == "" {
		name = "corrected.docx"
	} else if !strings.HasSuffix(strings.ToLower(name), ".docx") {
		name += ".docx"
	}

	w.Header().Set("Content-Type", docxMIME)
	w.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeFilename(name)+`"`)
	w.Write(docxBytes)
}
