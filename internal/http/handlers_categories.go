package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// handleCategories lists ?kind= categories, or both kinds when kind is
// omitted.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("kind")
	if strings.TrimSpace(raw) == "" {
		writeJSON(w, map[string][]string{
			string(core.Income):  s.taxonomy.List(core.Income),
			string(core.Expense): s.taxonomy.List(core.Expense),
		})
		return
	}
	kind, err := parseKind(raw, "")
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, map[string]any{
		"kind":       kind,
		"categories": s.taxonomy.List(kind),
	})
}
