package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/httpserver/deps"
)

// RecordHistory ingests a browsing-history entry pushed by the browser
// extension so it can surface as a suggestion.
func RecordHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entry domain.HistoryEntry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			http.Error(w, "invalid history payload", http.StatusBadRequest)
			return
		}
		if entry.URL == "" {
			http.Error(w, "history entry needs a url", http.StatusBadRequest)
			return
		}
		if entry.Title == "" {
			entry.Title = domain.HostOf(entry.URL)
		}

		d.Engine.RecordVisit(entry)
		w.WriteHeader(http.StatusNoContent)
	}
}
