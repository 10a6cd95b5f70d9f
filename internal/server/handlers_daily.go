package server

import (
	"net/http"
	"time"

	"shade/internal/daily"
)

type dailyAttemptRequest struct {
	UserID        string  `json:"userId" validate:"required,max=64"`
	UserName      string  `json:"userName" validate:"required,max=64"`
	GameType      string  `json:"gameType" validate:"omitempty,oneof=color-mixing finding"`
	TargetColor   string  `json:"targetColor" validate:"omitempty,hexcolor"`
	CapturedColor string  `json:"capturedColor" validate:"omitempty,hexcolor"`
	Similarity    float64 `json:"similarity" validate:"min=0,max=100"`
	TimeTaken     float64 `json:"timeTaken" validate:"min=0"`
	TimeScore     int     `json:"timeScore" validate:"min=0"`
	FinalScore    int     `json:"finalScore" validate:"min=0,max=100"`
}

type dailyAttemptResponse struct {
	Date       string `json:"date"`
	GameType   string `json:"gameType"`
	FinalScore int    `json:"finalScore"`
	Streak     int    `json:"streak"`
}

func (s *Server) handleDailyAttempt(w http.ResponseWriter, r *http.Request) {
	var req dailyAttemptRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	attempt, err := s.daily.RecordAttempt(r.Context(), daily.Submission{
		UserID:        req.UserID,
		UserName:      req.UserName,
		GameType:      req.GameType,
		TargetColor:   req.TargetColor,
		CapturedColor: req.CapturedColor,
		Similarity:    req.Similarity,
		TimeTaken:     req.TimeTaken,
		TimeScore:     req.TimeScore,
		FinalScore:    req.FinalScore,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dailyAttemptResponse{
		Date:       attempt.Date,
		GameType:   attempt.GameType,
		FinalScore: attempt.FinalScore,
		Streak:     attempt.Streak,
	})
}

func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	date := query.Get("date")
	if date != "" {
		if _, err := time.Parse(daily.DateFormat, date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}
	top, userRow, err := s.daily.Leaderboard(r.Context(), date, query.Get("gameType"), query.Get("userId"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	payload := map[string]any{"leaderboard": top}
	if userRow != nil {
		payload["userEntry"] = userRow
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleDailyStreak(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	streak, err := s.daily.Streak(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"streak": streak})
}
