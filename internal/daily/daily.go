// Package daily implements the solo daily-challenge mode: one scored
// attempt per player per day per game type, a best-score leaderboard and
// day streaks.
package daily

import (
	"errors"
	"time"
)

const (
	GameTypeColorMixing = "color-mixing"
	GameTypeFinding     = "finding"
	GameTypeAll         = "all"
)

// DateFormat is the calendar-day key used throughout: YYYY-MM-DD in UTC.
const DateFormat = "2006-01-02"

var (
	ErrAlreadyPlayed = errors.New("attempt already recorded for this day")
	ErrNotFound      = errors.New("no leaderboard entry found")
)

// Attempt is one finished daily challenge.
type Attempt struct {
	UserID        string
	UserName      string
	Date          string
	GameType      string
	TargetColor   string
	CapturedColor string
	Similarity    float64
	TimeTaken     float64
	TimeScore     int
	FinalScore    int
	Streak        int
	CreatedAt     time.Time
}

// BestEntry is a player's best daily score for one (date, game type).
type BestEntry struct {
	UserID    string
	UserName  string
	Date      string
	GameType  string
	Score     int
	TimeTaken float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RankedEntry is a leaderboard row with its computed rank.
type RankedEntry struct {
	Rank      int     `json:"rank"`
	UserID    string  `json:"userId"`
	UserName  string  `json:"userName"`
	Date      string  `json:"date"`
	GameType  string  `json:"gameType"`
	Score     int     `json:"score"`
	TimeTaken float64 `json:"timeTaken"`
}

func today() string {
	return time.Now().UTC().Format(DateFormat)
}

func yesterday() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format(DateFormat)
}
