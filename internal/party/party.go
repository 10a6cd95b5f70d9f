// Package party implements the Shade party-mode session: room lifecycle,
// player membership, round progression, score submission and the session
// leaderboard. All state lives behind the Store interface; the Service is a
// stateless coordinator invoked per request.
package party

import "time"

const (
	StateLobby           = "lobby"
	StateGameSelection   = "gameSelection"
	StatePlaying         = "playing"
	StateRoundFinished   = "roundFinished"
	StateSessionFinished = "sessionFinished"
)

const (
	GameTypeFindColor   = "findColor"
	GameTypeColorMixing = "colorMixing"
)

const (
	defaultTargetColor = "#ff0000"
	minPlayers         = 2
)

// Room is a party session container addressed by its shareable code.
type Room struct {
	Code             string
	HostID           string
	HostName         string
	MaxPlayers       int
	MaxRounds        int
	GuessTime        int
	CurrentRound     int
	GameState        string
	GameType         string
	TargetColor      string
	CurrentGuessTime int
	StartTime        *time.Time
	EndTime          *time.Time
	IsActive         bool
	DennerRotation   []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Player is a participant scoped to one room. The aggregate fields
// (Attempts, BestScore, SessionScore, RoundScores) are recomputed from the
// full score history after every submission.
type Player struct {
	RoomCode     string
	ID           string
	Name         string
	Score        int
	Attempts     int
	BestScore    int
	SessionScore float64
	RoundScores  []int
	JoinedAt     time.Time
	IsActive     bool
	LastSeen     time.Time
}

// Round is one timed challenge. Once completed it is an immutable record of
// what happened.
type Round struct {
	ID            int64
	RoomCode      string
	Number        int
	GameType      string
	DennerID      string
	DennerName    string
	TargetColor   string
	GuessTime     int
	StartTime     time.Time
	EndTime       *time.Time
	IsCompleted   bool
	PlayerResults []RoundResult
	CreatedAt     time.Time
}

// RoundResult summarizes one player's outcome for a completed round.
type RoundResult struct {
	PlayerID   string `json:"id"`
	PlayerName string `json:"name"`
	Score      int    `json:"score"`
	Attempts   int    `json:"attempts"`
}

// Score is a player's submitted result for one round. Resubmissions
// overwrite in place, keyed by (round, player).
type Score struct {
	RoomCode      string
	RoundID       int64
	RoundNumber   int
	PlayerID      string
	PlayerName    string
	Score         int
	TimeTaken     float64
	TargetColor   string
	CapturedColor string
	Similarity    *float64
	GameType      string
	SubmittedAt   time.Time
}
