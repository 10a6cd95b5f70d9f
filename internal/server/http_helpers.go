package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"shade/internal/daily"
	"shade/internal/party"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decode binds and validates a JSON request body.
func (s *Server) decode(r *http.Request, dest any) error {
	if err := readJSON(r.Body, dest); err != nil {
		return err
	}
	return s.validate.Struct(dest)
}

// statusForError maps domain failures onto HTTP statuses: missing
// resources are 404, rejected requests 400, conflicts 409, everything
// else an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, party.ErrRoomNotFound),
		errors.Is(err, party.ErrPlayerNotFound),
		errors.Is(err, party.ErrRoundNotFound),
		errors.Is(err, daily.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, party.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, party.ErrRoomFull),
		errors.Is(err, party.ErrRoundExists),
		errors.Is(err, daily.ErrAlreadyPlayed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
