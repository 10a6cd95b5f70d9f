package db

import (
	"time"

	"gorm.io/datatypes"
)

type PartyRoom struct {
	ID               uint    `gorm:"primaryKey"`
	RoomID           string  `gorm:"size:20;uniqueIndex;not null"`
	HostID           string  `gorm:"size:50;index;not null"`
	HostName         string  `gorm:"size:100;not null"`
	MaxPlayers       int     `gorm:"not null;default:4"`
	MaxRounds        int     `gorm:"not null;default:3"`
	GuessTime        int     `gorm:"not null;default:30"`
	CurrentRound     int     `gorm:"not null;default:0"`
	GameState        string  `gorm:"size:20;not null;default:lobby"`
	GameType         *string `gorm:"size:20"`
	TargetColor      *string `gorm:"size:50"`
	CurrentGuessTime int     `gorm:"not null;default:30"`
	StartTime        *time.Time
	EndTime          *time.Time
	IsActive         bool           `gorm:"not null;default:true;index"`
	DennerRotation   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"not null;index"`
	UpdatedAt        time.Time      `gorm:"not null"`
}

type PartyPlayer struct {
	ID           uint           `gorm:"primaryKey"`
	RoomID       string         `gorm:"size:20;not null;uniqueIndex:idx_party_players_room_player"`
	PlayerID     string         `gorm:"size:50;not null;uniqueIndex:idx_party_players_room_player;index"`
	PlayerName   string         `gorm:"size:100;not null"`
	Score        int            `gorm:"not null;default:0"`
	Attempts     int            `gorm:"not null;default:0"`
	BestScore    int            `gorm:"not null;default:0"`
	SessionScore float64        `gorm:"type:numeric(8,2);not null;default:0"`
	RoundScores  datatypes.JSON `gorm:"type:jsonb"`
	JoinedAt     time.Time      `gorm:"not null"`
	IsActive     bool           `gorm:"not null;default:true;index"`
	LastSeen     time.Time      `gorm:"not null"`
}

type PartyRound struct {
	ID            uint   `gorm:"primaryKey"`
	RoomID        string `gorm:"size:20;not null;uniqueIndex:idx_party_rounds_room_number"`
	RoundNumber   int    `gorm:"not null;uniqueIndex:idx_party_rounds_room_number"`
	GameType      string `gorm:"size:20;not null"`
	DennerID      string `gorm:"size:50;index;not null"`
	DennerName    string `gorm:"size:100;not null"`
	TargetColor   string `gorm:"size:50;not null"`
	GuessTime     int    `gorm:"not null"`
	StartTime     time.Time
	EndTime       *time.Time
	IsCompleted   bool           `gorm:"not null;default:false;index"`
	PlayerResults datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"not null;index"`
}

type PartyScore struct {
	ID            uint      `gorm:"primaryKey"`
	RoomID        string    `gorm:"size:20;index;not null"`
	RoundID       uint      `gorm:"not null;uniqueIndex:idx_party_scores_round_player"`
	RoundNumber   int       `gorm:"not null"`
	PlayerID      string    `gorm:"size:50;not null;uniqueIndex:idx_party_scores_round_player;index"`
	PlayerName    string    `gorm:"size:100;not null"`
	Score         int       `gorm:"not null;index"`
	TimeTaken     float64   `gorm:"type:numeric(8,3);not null"`
	TargetColor   string    `gorm:"size:50;not null"`
	CapturedColor *string   `gorm:"size:50"`
	Similarity    *float64  `gorm:"type:numeric(5,2)"`
	GameType      string    `gorm:"size:20;not null"`
	SubmittedAt   time.Time `gorm:"not null;index"`
}

type DailyAttempt struct {
	ID            uint      `gorm:"primaryKey"`
	UserID        string    `gorm:"size:50;not null;uniqueIndex:idx_daily_attempts_user_date_game;index:idx_daily_attempts_user_created"`
	UserName      string    `gorm:"size:100;not null"`
	Date          string    `gorm:"size:10;not null;uniqueIndex:idx_daily_attempts_user_date_game"`
	GameType      string    `gorm:"size:20;not null;default:color-mixing;uniqueIndex:idx_daily_attempts_user_date_game"`
	TargetColor   string    `gorm:"size:50;not null"`
	CapturedColor string    `gorm:"size:50;not null"`
	Similarity    float64   `gorm:"type:numeric(5,2);not null"`
	TimeTaken     float64   `gorm:"type:numeric(8,3);not null"`
	TimeScore     int       `gorm:"not null"`
	FinalScore    int       `gorm:"not null;index"`
	Streak        int       `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null;index:idx_daily_attempts_user_created"`
}

type DailyBest struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"size:50;not null;uniqueIndex:idx_daily_best_user_date_game"`
	UserName  string    `gorm:"size:100;not null"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_daily_best_user_date_game;index"`
	GameType  string    `gorm:"size:20;not null;default:color-mixing;uniqueIndex:idx_daily_best_user_date_game"`
	Score     int       `gorm:"not null;index"`
	TimeTaken float64   `gorm:"type:numeric(8,3);not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
