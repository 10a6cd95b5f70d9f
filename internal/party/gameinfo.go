package party

// GameInfo is the denormalized snapshot of a room's full current state. It
// is assembled on demand from the room, its active players, its completed
// rounds and the computed leaderboard; building it performs no writes.
type GameInfo struct {
	RoomID             string             `json:"roomId"`
	DennerID           string             `json:"dennerId"`
	DennerName         string             `json:"dennerName"`
	TargetColor        string             `json:"targetColor"`
	GameState          string             `json:"gameState"`
	GameType           string             `json:"gameType,omitempty"`
	CurrentRound       int                `json:"currentRound"`
	MaxRounds          int                `json:"maxRounds"`
	GuessTime          int                `json:"guessTime"`
	CurrentGuessTime   int                `json:"currentGuessTime"`
	StartTime          *int64             `json:"startTime"`
	EndTime            *int64             `json:"endTime"`
	PlayerCount        int                `json:"playerCount"`
	MaxPlayers         int                `json:"maxPlayers"`
	MinPlayers         int                `json:"minPlayers"`
	Players            []GamePlayer       `json:"players"`
	RoundResults       []GameRound        `json:"roundResults"`
	SessionLeaderboard []LeaderboardEntry `json:"sessionLeaderboard"`
	DennerRotation     []string           `json:"dennerRotation"`
}

// GamePlayer is the player projection inside GameInfo.
type GamePlayer struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Score        int     `json:"score"`
	Attempts     int     `json:"attempts"`
	BestScore    int     `json:"bestScore"`
	SessionScore float64 `json:"sessionScore"`
	RoundScores  []int   `json:"roundScores"`
	JoinedAt     int64   `json:"joinedAt"`
}

// GameRound is the completed-round projection inside GameInfo.
type GameRound struct {
	Round     int           `json:"round"`
	GameType  string        `json:"gameType"`
	Denner    string        `json:"denner"`
	Players   []RoundResult `json:"players"`
	Timestamp int64         `json:"timestamp"`
}
