package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/launchpane/querybox/internal/httpserver/deps"
)

// ListSessions returns all chat sessions, pinned first, newest first.
func ListSessions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(d.Sessions.List())
	}
}

// CreateSession starts a new chat session and makes it active.
func CreateSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := d.Sessions.Create()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(session)
	}
}

// GetSession returns one session with its full transcript.
func GetSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := d.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(session)
	}
}

// DeleteSession removes a session. Deleting the active one promotes
// the most recently updated survivor.
func DeleteSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdateSession renames or pins a session.
func UpdateSession(d deps.Deps) http.HandlerFunc {
	type payload struct {
		Title  *string `json:"title,omitempty"`
		Pinned *bool   `json:"pinned,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var p payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		if p.Title != nil {
			if err := d.Sessions.Rename(id, *p.Title); err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
		}
		if p.Pinned != nil {
			if err := d.Sessions.Pin(id, *p.Pinned); err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
		}

		session, _ := d.Sessions.Get(id)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(session)
	}
}

// ActivateSession switches the active session.
func ActivateSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Sessions.SetActive(chi.URLParam(r, "id")); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
