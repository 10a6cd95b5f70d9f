package daily

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
)

// Service coordinates daily attempts, the best-score leaderboard and
// streak tracking.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Submission is one finished daily challenge as reported by a caller. The
// similarity and score fields arrive precomputed.
type Submission struct {
	UserID        string
	UserName      string
	GameType      string
	TargetColor   string
	CapturedColor string
	Similarity    float64
	TimeTaken     float64
	TimeScore     int
	FinalScore    int
}

// RecordAttempt stores today's attempt, derives the streak from the user's
// previous attempt and folds the score into the daily leaderboard. A
// second attempt on the same day fails with ErrAlreadyPlayed.
func (s *Service) RecordAttempt(ctx context.Context, sub Submission) (*Attempt, error) {
	if sub.UserID == "" || sub.UserName == "" {
		return nil, errors.New("user id and name are required")
	}
	if sub.GameType == "" {
		sub.GameType = GameTypeColorMixing
	}

	streak := 1
	latest, err := s.store.LatestAttempt(ctx, sub.UserID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load latest attempt for %s: %w", sub.UserID, err)
	case latest.Date == today():
		// A second game type on the same day carries the streak, it
		// does not restart it.
		streak = latest.Streak
	case latest.Date == yesterday():
		streak = latest.Streak + 1
	}

	attempt := &Attempt{
		UserID:        sub.UserID,
		UserName:      sub.UserName,
		Date:          today(),
		GameType:      sub.GameType,
		TargetColor:   sub.TargetColor,
		CapturedColor: sub.CapturedColor,
		Similarity:    sub.Similarity,
		TimeTaken:     sub.TimeTaken,
		TimeScore:     sub.TimeScore,
		FinalScore:    sub.FinalScore,
		Streak:        streak,
	}
	if err := s.store.InsertAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	improved, err := s.store.UpsertBest(ctx, &BestEntry{
		UserID:    sub.UserID,
		UserName:  sub.UserName,
		Date:      attempt.Date,
		GameType:  sub.GameType,
		Score:     sub.FinalScore,
		TimeTaken: sub.TimeTaken,
	})
	if err != nil {
		return nil, fmt.Errorf("update daily leaderboard for %s: %w", sub.UserID, err)
	}
	log.Printf("daily attempt recorded user=%s date=%s game_type=%s score=%d improved=%t", sub.UserID, attempt.Date, sub.GameType, sub.FinalScore, improved)
	return attempt, nil
}

// Streak returns the user's current day streak: the stored streak if their
// latest attempt is from today or yesterday, otherwise zero.
func (s *Service) Streak(ctx context.Context, userID string) (int, error) {
	latest, err := s.store.LatestAttempt(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if latest.Date == today() || latest.Date == yesterday() {
		return latest.Streak, nil
	}
	return 0, nil
}

// Leaderboard returns the day's top ten plus the requesting user's own
// ranked row when they placed outside it. Rank counts strictly better
// entries: higher score, or equal score in less time.
func (s *Service) Leaderboard(ctx context.Context, date, gameType, userID string) ([]RankedEntry, *RankedEntry, error) {
	if date == "" {
		date = today()
	}
	entries, err := s.store.ListBest(ctx, date, date, gameType)
	if err != nil {
		return nil, nil, fmt.Errorf("list daily leaderboard for %s: %w", date, err)
	}

	top := make([]RankedEntry, 0, 10)
	var userRow *RankedEntry
	for i, entry := range entries {
		row := rankedRow(entry, i+1)
		if i < 10 {
			top = append(top, row)
		}
		if userID != "" && entry.UserID == userID {
			userRow = &row
		}
		if i >= 10 && userRow != nil {
			break
		}
	}
	return top, userRow, nil
}

// Export returns ranked rows for a date range, ranked within each
// (date, game type) group under the same tie-break rule the leaderboard
// uses.
func (s *Service) Export(ctx context.Context, dateFrom, dateTo, gameType string) ([]RankedEntry, error) {
	if dateFrom == "" {
		dateFrom = today()
	}
	if dateTo == "" {
		dateTo = dateFrom
	}
	entries, err := s.store.ListBest(ctx, dateFrom, dateTo, gameType)
	if err != nil {
		return nil, fmt.Errorf("list daily leaderboard %s..%s: %w", dateFrom, dateTo, err)
	}

	// ListBest orders by score then time; group ranks restart per day and
	// game type.
	rank := make(map[string]int)
	rows := make([]RankedEntry, 0, len(entries))
	for _, entry := range entries {
		key := entry.Date + "|" + entry.GameType
		rank[key]++
		rows = append(rows, rankedRow(entry, rank[key]))
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		if rows[i].GameType != rows[j].GameType {
			return rows[i].GameType < rows[j].GameType
		}
		return rows[i].Rank < rows[j].Rank
	})
	return rows, nil
}

func rankedRow(entry BestEntry, rank int) RankedEntry {
	return RankedEntry{
		Rank:      rank,
		UserID:    entry.UserID,
		UserName:  entry.UserName,
		Date:      entry.Date,
		GameType:  entry.GameType,
		Score:     entry.Score,
		TimeTaken: entry.TimeTaken,
	}
}
