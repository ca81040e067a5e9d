package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/httpserver/deps"
	"github.com/launchpane/querybox/internal/logger"
	"github.com/launchpane/querybox/internal/suggest"
)

type suggestResponse struct {
	Query       string             `json:"query"`
	Seq         uint64             `json:"seq"`
	Suggestions []domain.Candidate `json:"suggestions"`
	Extra       []domain.Candidate `json:"extra,omitempty"`
	Ghost       string             `json:"ghost,omitempty"`
	Remote      bool               `json:"remote"`
}

// Suggest serves the query box dropdown. The local result is ready
// immediately; the handler then waits a short window for the remote
// merge and responds with whichever result is freshest.
func Suggest(d deps.Deps) http.HandlerFunc {
	wait := d.RemoteWait
	if wait <= 0 {
		wait = 200 * time.Millisecond
	}

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		var mode suggest.Mode
		if v := r.URL.Query().Get("text_only"); v != "" {
			mode.TextOnly, _ = strconv.ParseBool(v)
		}
		mode.ActiveWorkspace = r.URL.Query().Get("workspace")

		remote := make(chan suggest.Result, 1)
		result := d.Engine.SuggestMode(r.Context(), query, mode, func(res suggest.Result) {
			select {
			case remote <- res:
			default:
			}
		})

		select {
		case merged := <-remote:
			if merged.Seq >= result.Seq {
				result = merged
			}
		case <-time.After(wait):
		case <-r.Context().Done():
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(suggestResponse{
			Query:       result.Query,
			Seq:         result.Seq,
			Suggestions: result.Suggestions,
			Extra:       result.Extra,
			Ghost:       result.Ghost,
			Remote:      result.Remote,
		})
	}
}

// Select records that a suggestion was chosen.
func Select(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c domain.Candidate
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "invalid candidate payload", http.StatusBadRequest)
			return
		}
		if c.Text == "" && c.URL == "" {
			http.Error(w, "candidate needs text or url", http.StatusBadRequest)
			return
		}

		d.Engine.RecordSelection(c)
		d.Logger.Debug("selection recorded",
			logger.String("key", c.Key()))
		w.WriteHeader(http.StatusNoContent)
	}
}

// Hide blocks a suggestion from appearing again.
func Hide(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c domain.Candidate
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "invalid candidate payload", http.StatusBadRequest)
			return
		}
		if c.Text == "" && c.URL == "" {
			http.Error(w, "candidate needs text or url", http.StatusBadRequest)
			return
		}

		d.Engine.Hide(c)
		d.Logger.Info("suggestion hidden",
			logger.String("key", c.BlockKey()))
		w.WriteHeader(http.StatusNoContent)
	}
}
