package server

import (
	"crypto/subtle"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"shade/internal/daily"
)

// handleExportLeaderboard streams the daily leaderboard for a date range
// as CSV. Access requires the admin password in the `password` header; the
// endpoint is disabled entirely when no password is configured.
func (s *Server) handleExportLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AdminPassword == "" {
		writeError(w, http.StatusInternalServerError, "admin export is not configured")
		return
	}
	supplied := r.Header.Get("password")
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.cfg.AdminPassword)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	query := r.URL.Query()
	dateFrom := query.Get("date-from")
	dateTo := query.Get("date-to")
	if date := query.Get("date"); date != "" {
		dateFrom, dateTo = date, date
	}
	for _, date := range []string{dateFrom, dateTo} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(daily.DateFormat, date); err != nil {
			writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return
		}
	}

	rows, err := s.daily.Export(r.Context(), dateFrom, dateTo, query.Get("gameType"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="daily-leaderboard.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"date", "game_type", "rank", "user_id", "user_name", "score", "time_taken"})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.Date,
			row.GameType,
			fmt.Sprintf("%d", row.Rank),
			row.UserID,
			row.UserName,
			fmt.Sprintf("%d", row.Score),
			fmt.Sprintf("%.3f", row.TimeTaken),
		})
	}
	writer.Flush()
}
