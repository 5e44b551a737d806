package api

import (
	"encoding/json"
	"net/http"
)

// handleStats reports rolling latency windows for the external sources.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
	}
	if s.grammarStats != nil {
		out["grammar"] = s.grammarStats.Snapshot()
	}
	if s.reviewer != nil && s.reviewer.Stats != nil {
		out["reviewer"] = map[string]any{
			"model": s.reviewer.Model(),
			"stats": s.reviewer.Stats.Snapshot(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
