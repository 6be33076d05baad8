package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// NewWebhook returns the net/http variant, suited to webhook callers such
// as workflow tools:
//
//	POST /research  {"name": "..."}      -> lead or error record
//	POST /research  {"names": [...]}     -> {"leads": [...]}
//	GET  /health                         -> {"status": "ok"}
func NewWebhook(r Researcher, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	wh := &webhook{research: r, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /research", wh.handleResearch)
	mux.HandleFunc("GET /health", handleHealth)
	return standard(mux, log)
}

type webhook struct {
	research Researcher
	log      *zap.Logger
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, health)
}

// handleResearch serves both single and batch requests. "name" takes
// precedence when both keys are present.
func (wh *webhook) handleResearch(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil || body == nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Request body must be a JSON object"})
		return
	}

	if raw, ok := body["name"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "'name' must be a string"})
			return
		}
		writeJSON(w, http.StatusOK, wh.research.Research(r.Context(), name))
		return
	}

	if raw, ok := body["names"]; ok {
		var names []string
		if err := json.Unmarshal(raw, &names); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "'names' must be an array of strings"})
			return
		}
		wh.log.Info("batch research", zap.Int("count", len(names)), zap.String("request_id", RequestIDFrom(r.Context())))
		writeJSON(w, http.StatusOK, batch(wh.research.ResearchBatch(r.Context(), names)))
		return
	}

	writeJSON(w, http.StatusBadRequest, errorBody{Error: missingSubjectMessage})
}
