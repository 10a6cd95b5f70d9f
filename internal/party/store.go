package party

import (
	"context"
	"time"
)

// RoomUpdate is a partial room mutation. Nil fields are left untouched;
// stores always refresh UpdatedAt.
type RoomUpdate struct {
	HostID           *string
	HostName         *string
	GameState        *string
	GameType         *string
	TargetColor      *string
	CurrentRound     *int
	CurrentGuessTime *int
	StartTime        *time.Time
	EndTime          *time.Time
	DennerRotation   []string
}

// PlayerUpdate is a partial player mutation. Stores always refresh LastSeen.
type PlayerUpdate struct {
	Name         *string
	Score        *int
	Attempts     *int
	BestScore    *int
	SessionScore *float64
	RoundScores  []int
}

// Store is the persistence boundary for party state. Implementations must
// enforce the compound uniqueness constraints: room code among rooms,
// (room, player) among players, (room, round number) among rounds and
// (round, player) among scores.
type Store interface {
	// CreateRoom inserts a new room, returning ErrRoomCodeTaken when the
	// code is already in use.
	CreateRoom(ctx context.Context, room *Room) error
	// GetRoom returns the active room for code, or ErrRoomNotFound.
	// Inactive rooms are treated as nonexistent.
	GetRoom(ctx context.Context, code string) (*Room, error)
	UpdateRoom(ctx context.Context, code string, update RoomUpdate) (*Room, error)
	// DeactivateRoom soft-deletes the room and stamps its end time.
	// Idempotent; deactivating an absent room is not an error.
	DeactivateRoom(ctx context.Context, code string) error

	// JoinRoom inserts or reactivates the player. The capacity check and
	// insert are atomic: a new player is rejected with ErrRoomFull once
	// active players reach the room's MaxPlayers. A returning player
	// (active or not) is reactivated without a capacity check.
	JoinRoom(ctx context.Context, roomCode, playerID, playerName string) (*Player, error)
	// ListPlayers returns active players ordered by join time ascending.
	ListPlayers(ctx context.Context, roomCode string) ([]Player, error)
	UpdatePlayer(ctx context.Context, roomCode, playerID string, update PlayerUpdate) (*Player, error)
	// RemovePlayer soft-deactivates; score history is kept.
	RemovePlayer(ctx context.Context, roomCode, playerID string) error

	// StartRound inserts the round and applies the room update in one
	// transactional unit, so a stale currentRound read cannot produce two
	// round rows: the duplicate insert fails with ErrRoundExists and the
	// room is left untouched.
	StartRound(ctx context.Context, round *Round, update RoomUpdate) (*Room, error)
	GetRound(ctx context.Context, roomCode string, number int) (*Round, error)
	// CompleteRound marks the round finished and attaches results. A round
	// that is already completed is returned unchanged.
	CompleteRound(ctx context.Context, roomCode string, number int, results []RoundResult) (*Round, error)
	// ListRounds returns all rounds ordered by round number ascending.
	ListRounds(ctx context.Context, roomCode string) ([]Round, error)

	// UpsertScore inserts or overwrites the (round, player) score row,
	// refreshing SubmittedAt. Last write wins.
	UpsertScore(ctx context.Context, score *Score) error
	// ListScores returns a room's scores ordered by round sequence. A
	// roundID of zero selects every round.
	ListScores(ctx context.Context, roomCode string, roundID int64) ([]Score, error)

	// CleanupRooms deactivates active rooms untouched for longer than
	// maxAge, returning the number swept.
	CleanupRooms(ctx context.Context, maxAge time.Duration) (int64, error)
	// CleanupPlayers deactivates active players unseen for longer than
	// maxAge, returning the number swept.
	CleanupPlayers(ctx context.Context, maxAge time.Duration) (int64, error)
}
