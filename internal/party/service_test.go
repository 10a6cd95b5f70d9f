package party

import (
	"context"
	"errors"
	"testing"
	"time"

	"shade/internal/config"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewService(store, config.Default()), store
}

func submit(t *testing.T, svc *Service, room, playerID, playerName string, score int, timeTaken float64) *GameInfo {
	t.Helper()
	info, err := svc.SubmitScore(context.Background(), room, ScoreSubmission{
		PlayerID:   playerID,
		PlayerName: playerName,
		Score:      score,
		TimeTaken:  timeTaken,
	})
	if err != nil {
		t.Fatalf("submit score for %s: %v", playerID, err)
	}
	return info
}

func TestSessionFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{MaxRounds: 2})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	room := info.RoomID
	if info.GameState != StateLobby {
		t.Fatalf("state = %s, want %s", info.GameState, StateLobby)
	}
	if info.DennerID != "alice" || info.PlayerCount != 1 {
		t.Fatalf("host = %s players = %d, want alice with 1 player", info.DennerID, info.PlayerCount)
	}

	if info, err = svc.Join(ctx, room, "bob", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if info.PlayerCount != 2 {
		t.Fatalf("player count = %d, want 2", info.PlayerCount)
	}

	if info, err = svc.SelectGameType(ctx, room, GameTypeColorMixing); err != nil {
		t.Fatalf("select game type: %v", err)
	}
	if info.GameState != StateGameSelection || info.GameType != GameTypeColorMixing {
		t.Fatalf("state = %s type = %s after selection", info.GameState, info.GameType)
	}

	if _, err = svc.SetTargetColor(ctx, room, "#3a7bd5"); err != nil {
		t.Fatalf("set target color: %v", err)
	}

	if info, err = svc.StartRound(ctx, room); err != nil {
		t.Fatalf("start round: %v", err)
	}
	if info.GameState != StatePlaying || info.CurrentRound != 1 {
		t.Fatalf("state = %s round = %d, want playing round 1", info.GameState, info.CurrentRound)
	}
	if info.TargetColor != "#3a7bd5" {
		t.Fatalf("target color = %s, want #3a7bd5", info.TargetColor)
	}

	submit(t, svc, room, "alice", "Alice", 80, 5.0)
	submit(t, svc, room, "bob", "Bob", 90, 6.0)

	if info, err = svc.EndRound(ctx, room); err != nil {
		t.Fatalf("end round: %v", err)
	}
	if info.GameState != StateRoundFinished {
		t.Fatalf("state = %s, want %s", info.GameState, StateRoundFinished)
	}
	if len(info.RoundResults) != 1 || len(info.RoundResults[0].Players) != 2 {
		t.Fatalf("round results = %+v, want one round with two players", info.RoundResults)
	}

	if _, err = svc.ContinueSession(ctx, room); err != nil {
		t.Fatalf("continue session: %v", err)
	}
	if _, err = svc.StartRound(ctx, room); err != nil {
		t.Fatalf("start round 2: %v", err)
	}
	submit(t, svc, room, "alice", "Alice", 80, 5.0)
	submit(t, svc, room, "bob", "Bob", 75, 4.0)

	if info, err = svc.EndRound(ctx, room); err != nil {
		t.Fatalf("end round 2: %v", err)
	}
	if info.GameState != StateSessionFinished {
		t.Fatalf("state = %s, want %s after last round", info.GameState, StateSessionFinished)
	}
	if info.EndTime == nil {
		t.Fatal("session end time not set")
	}

	board := info.SessionLeaderboard
	if len(board) != 2 {
		t.Fatalf("leaderboard rows = %d, want 2", len(board))
	}
	if board[0].PlayerID != "bob" || board[0].AverageScore != 82.5 {
		t.Fatalf("rank 1 = %s avg %.2f, want bob 82.50", board[0].PlayerID, board[0].AverageScore)
	}
	if board[1].PlayerID != "alice" || board[1].AverageScore != 80.0 {
		t.Fatalf("rank 2 = %s avg %.2f, want alice 80.00", board[1].PlayerID, board[1].AverageScore)
	}

	// A third round cannot start once the configured maximum is played.
	if _, err = svc.StartRound(ctx, room); !errors.Is(err, ErrValidation) {
		t.Fatalf("start beyond max rounds = %v, want ErrValidation", err)
	}
}

func TestJoinFullRoom(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{MaxPlayers: 2})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	room := info.RoomID
	if _, err = svc.Join(ctx, room, "bob", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err = svc.Join(ctx, room, "carol", "Carol"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("join full room = %v, want ErrRoomFull", err)
	}

	// A returning player re-activates without a capacity check.
	if _, err = svc.Join(ctx, room, "bob", "Bob"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Join(context.Background(), "ZZZZZZ", "bob", "Bob"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("join unknown room = %v, want ErrRoomNotFound", err)
	}
}

func TestSubmitScoreIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	room := info.RoomID
	if _, err = svc.StartRound(ctx, room); err != nil {
		t.Fatalf("start round: %v", err)
	}

	submit(t, svc, room, "alice", "Alice", 60, 8.0)
	info = submit(t, svc, room, "alice", "Alice", 85, 6.5)

	scores, err := svc.Scores(ctx, room, 1)
	if err != nil {
		t.Fatalf("list scores: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("score rows = %d, want 1 after resubmission", len(scores))
	}
	if scores[0].Score != 85 || scores[0].TimeTaken != 6.5 {
		t.Fatalf("stored score = %d time = %.1f, want the later submission", scores[0].Score, scores[0].TimeTaken)
	}

	var alice *GamePlayer
	for i := range info.Players {
		if info.Players[i].ID == "alice" {
			alice = &info.Players[i]
		}
	}
	if alice == nil {
		t.Fatal("alice missing from snapshot")
	}
	if alice.Attempts != 1 || alice.BestScore != 85 || alice.SessionScore != 85.0 {
		t.Fatalf("aggregates = %+v, want attempts 1 best 85 session 85.00", alice)
	}
}

func TestHostHandOff(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	room := info.RoomID
	if _, err = svc.Join(ctx, room, "bob", "Bob"); err != nil {
		t.Fatalf("join bob: %v", err)
	}
	if _, err = svc.Join(ctx, room, "carol", "Carol"); err != nil {
		t.Fatalf("join carol: %v", err)
	}

	info, err = svc.Leave(ctx, room, "alice")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if info.DennerID != "bob" || info.DennerName != "Bob" {
		t.Fatalf("new host = %s, want bob (earliest joined)", info.DennerID)
	}
	if len(info.DennerRotation) == 0 || info.DennerRotation[0] != "bob" {
		t.Fatalf("rotation = %v, want bob first", info.DennerRotation)
	}
	for _, id := range info.DennerRotation {
		if id == "alice" {
			t.Fatalf("rotation %v still contains the departed host", info.DennerRotation)
		}
	}
}

func TestLeaveLastPlayerClosesRoom(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	room := info.RoomID

	info, err = svc.Leave(ctx, room, "alice")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if info != nil {
		t.Fatalf("snapshot = %+v, want nil for a closed room", info)
	}
	if _, err = svc.Room(ctx, room); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("get closed room = %v, want ErrRoomNotFound", err)
	}
}

func TestEndRoundWithoutRoundRow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	// No round was ever started; the transition still succeeds.
	info, err = svc.EndRound(ctx, info.RoomID)
	if err != nil {
		t.Fatalf("end round without round row: %v", err)
	}
	if info.GameState != StateRoundFinished {
		t.Fatalf("state = %s, want %s", info.GameState, StateRoundFinished)
	}
}

func TestEndRoundIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	room := info.RoomID
	if _, err = svc.StartRound(ctx, room); err != nil {
		t.Fatalf("start round: %v", err)
	}
	submit(t, svc, room, "alice", "Alice", 70, 3.0)

	first, err := svc.EndRound(ctx, room)
	if err != nil {
		t.Fatalf("end round: %v", err)
	}
	second, err := svc.EndRound(ctx, room)
	if err != nil {
		t.Fatalf("repeat end round: %v", err)
	}
	if len(first.RoundResults) != 1 || len(second.RoundResults) != 1 {
		t.Fatalf("round results = %d then %d, want 1 both times", len(first.RoundResults), len(second.RoundResults))
	}
	if second.RoundResults[0].Players[0].Score != 70 {
		t.Fatalf("repeat end round rewrote results: %+v", second.RoundResults[0].Players)
	}
}

func TestExtendTime(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{GuessTime: 30})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	room := info.RoomID

	info, err = svc.ExtendTime(ctx, room, 15)
	if err != nil {
		t.Fatalf("extend time: %v", err)
	}
	if info.CurrentGuessTime != 45 {
		t.Fatalf("current guess time = %d, want 45", info.CurrentGuessTime)
	}

	// Zero falls back to the configured extension.
	info, err = svc.ExtendTime(ctx, room, 0)
	if err != nil {
		t.Fatalf("extend time with default: %v", err)
	}
	if info.CurrentGuessTime != 45+config.Default().ExtendTimeSeconds {
		t.Fatalf("current guess time = %d, want %d", info.CurrentGuessTime, 45+config.Default().ExtendTimeSeconds)
	}
}

func TestCleanupInactive(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	stale, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{})
	if err != nil {
		t.Fatalf("create stale room: %v", err)
	}
	fresh, err := svc.CreateRoom(ctx, "bob", "Bob", RoomOptions{})
	if err != nil {
		t.Fatalf("create fresh room: %v", err)
	}

	store.mu.Lock()
	store.rooms[stale.RoomID].UpdatedAt = time.Now().UTC().Add(-25 * time.Hour)
	for _, p := range store.players[stale.RoomID] {
		p.LastSeen = time.Now().UTC().Add(-3 * time.Hour)
	}
	store.rooms[fresh.RoomID].UpdatedAt = time.Now().UTC().Add(-23 * time.Hour)
	store.mu.Unlock()

	result, err := svc.CleanupInactive(ctx, 24, 2)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if result.Rooms != 1 || result.Players != 1 {
		t.Fatalf("swept rooms=%d players=%d, want 1 and 1", result.Rooms, result.Players)
	}
	if _, err = svc.Room(ctx, stale.RoomID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("stale room still active: %v", err)
	}
	if _, err = svc.Room(ctx, fresh.RoomID); err != nil {
		t.Fatalf("fresh room swept: %v", err)
	}
}

// collidingStore reports every room code as taken, forcing the retry loop
// to exhaust.
type collidingStore struct {
	*MemoryStore
}

func (s collidingStore) CreateRoom(context.Context, *Room) error {
	return ErrRoomCodeTaken
}

func TestCreateRoomCodeExhausted(t *testing.T) {
	svc := NewService(collidingStore{NewMemoryStore()}, config.Default())
	if _, err := svc.CreateRoom(context.Background(), "alice", "Alice", RoomOptions{}); !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("create room = %v, want ErrCodeExhausted", err)
	}
}

func TestStartRoundDuplicateNumber(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateRoom(ctx, "alice", "Alice", RoomOptions{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	room := info.RoomID
	if _, err = svc.StartRound(ctx, room); err != nil {
		t.Fatalf("start round: %v", err)
	}

	// A second writer racing on a stale currentRound read hits the
	// duplicate round number, not a silent overwrite.
	one := 1
	_, err = store.StartRound(ctx, &Round{RoomCode: room, Number: 1, GameType: GameTypeColorMixing, TargetColor: "#fff000", GuessTime: 30, StartTime: time.Now().UTC()}, RoomUpdate{CurrentRound: &one})
	if !errors.Is(err, ErrRoundExists) {
		t.Fatalf("duplicate start = %v, want ErrRoundExists", err)
	}
}

func TestCreateRoomRequiresHost(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.CreateRoom(context.Background(), "", "Alice", RoomOptions{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("create room without host id = %v, want ErrValidation", err)
	}
}
