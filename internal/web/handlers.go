package web

import (
	"encoding/json"
	"net/http"

	"whendropped/internal/aggregate"
	"whendropped/internal/dates"
)

// dateHint is the inline correction shown when a date string does not parse.
const dateHint = `Try "14 June 1955", "6/14/1955", or just "1955"`

type searchRequest struct {
	Kind   string `json:"kind"` // "song" or "album"
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type selectRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type dateRequest struct {
	Text string `json:"text"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Total     int    `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// handleSearch kicks off a picker search. The results arrive on the
// websocket as a picker event; the HTTP response just acknowledges.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required", "")
		return
	}

	// The search outlives this handler; it must not run on the request
	// context, which is canceled as soon as the 202 goes out.
	switch req.Kind {
	case "song", "":
		go s.manager.SearchSongs(req.Title, req.Artist)
	case "album":
		go s.manager.SearchAlbums(req.Title, req.Artist)
	default:
		writeError(w, http.StatusBadRequest, "kind must be song or album", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "searching"})
}

// handleSelect resolves a picker choice and begins its aggregation session.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	var (
		sess *aggregate.Session
		err  error
	)
	switch req.Kind {
	case "song", "":
		sess, err = s.manager.SelectSong(req.ID)
	case "album":
		sess, err = s.manager.SelectAlbum(req.ID)
	default:
		writeError(w, http.StatusBadRequest, "kind must be song or album", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "")
		return
	}

	_, total := sess.Progress()
	writeJSON(w, sessionResponse{SessionID: sess.ID, Total: total})
}

// handleDate parses a free-text date and begins a date session. A string
// matching no notation is the one user-correctable error in the system; it
// comes back inline with a hint, never as a silent fallback to today.
func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required", "")
		return
	}

	pd, ok := dates.ParseFlexible(req.Text)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "could not understand that date", dateHint)
		return
	}

	sess := s.manager.BeginDate(pd)
	_, total := sess.Progress()
	writeJSON(w, sessionResponse{SessionID: sess.ID, Total: total})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, hint string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg, Hint: hint})
}
