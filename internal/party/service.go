package party

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"shade/internal/config"
)

// Service coordinates room lifecycle, membership, rounds and scoring. It
// owns no state of its own; every operation is a short-lived unit of work
// against the Store.
type Service struct {
	store Store
	cfg   config.Config
}

func NewService(store Store, cfg config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// RoomOptions selects per-room settings at creation. Zero values fall back
// to the configured defaults.
type RoomOptions struct {
	MaxPlayers  int
	MaxRounds   int
	GuessTime   int
	TargetColor string
}

// ScoreSubmission carries one player's result for the current round. The
// similarity metric is computed client-side and stored as-is.
type ScoreSubmission struct {
	PlayerID      string
	PlayerName    string
	Score         int
	TimeTaken     float64
	CapturedColor string
	Similarity    *float64
}

// CleanupResult reports how many rows a cleanup sweep deactivated.
type CleanupResult struct {
	Rooms   int64 `json:"rooms"`
	Players int64 `json:"players"`
}

// CreateRoom generates a unique room code, creates the room and joins the
// host as its first player. Code generation retries on collision up to a
// bounded number of attempts and fails with ErrCodeExhausted after.
func (s *Service) CreateRoom(ctx context.Context, hostID, hostName string, opts RoomOptions) (*GameInfo, error) {
	if hostID == "" || hostName == "" {
		return nil, fmt.Errorf("host id and name are required: %w", ErrValidation)
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = s.cfg.MaxPlayers
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = s.cfg.MaxRounds
	}
	if opts.GuessTime <= 0 {
		opts.GuessTime = s.cfg.GuessTimeSeconds
	}

	var room *Room
	for attempt := 0; attempt < codeAttempts; attempt++ {
		candidate := &Room{
			Code:             newRoomCode(),
			HostID:           hostID,
			HostName:         hostName,
			MaxPlayers:       opts.MaxPlayers,
			MaxRounds:        opts.MaxRounds,
			GuessTime:        opts.GuessTime,
			GameState:        StateLobby,
			TargetColor:      opts.TargetColor,
			CurrentGuessTime: opts.GuessTime,
			IsActive:         true,
			DennerRotation:   []string{hostID},
		}
		err := s.store.CreateRoom(ctx, candidate)
		if err == nil {
			room = candidate
			break
		}
		if errors.Is(err, ErrRoomCodeTaken) {
			continue
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	if room == nil {
		return nil, ErrCodeExhausted
	}

	if _, err := s.store.JoinRoom(ctx, room.Code, hostID, hostName); err != nil {
		return nil, fmt.Errorf("join host to room %s: %w", room.Code, err)
	}
	log.Printf("room created room=%s host=%s max_players=%d max_rounds=%d", room.Code, hostID, room.MaxPlayers, room.MaxRounds)
	return s.GameInfo(ctx, room.Code)
}

// Join adds a player to the room, reactivating a returning player instead
// of duplicating them.
func (s *Service) Join(ctx context.Context, roomCode, playerID, playerName string) (*GameInfo, error) {
	if roomCode == "" || playerID == "" || playerName == "" {
		return nil, fmt.Errorf("room code, player id and name are required: %w", ErrValidation)
	}
	if _, err := s.store.GetRoom(ctx, roomCode); err != nil {
		return nil, err
	}
	if _, err := s.store.JoinRoom(ctx, roomCode, playerID, playerName); err != nil {
		return nil, fmt.Errorf("join room %s as %s: %w", roomCode, playerID, err)
	}
	return s.GameInfo(ctx, roomCode)
}

// Leave removes the player. When the departing player is the host, the
// earliest-joined remaining player is promoted and moved to the front of
// the denner rotation; with nobody left the room is deactivated and Leave
// returns a nil snapshot.
func (s *Service) Leave(ctx context.Context, roomCode, playerID string) (*GameInfo, error) {
	room, err := s.store.GetRoom(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemovePlayer(ctx, roomCode, playerID); err != nil {
		return nil, fmt.Errorf("remove player %s from room %s: %w", playerID, roomCode, err)
	}

	if room.HostID == playerID {
		remaining, err := s.store.ListPlayers(ctx, roomCode)
		if err != nil {
			return nil, fmt.Errorf("list players in room %s: %w", roomCode, err)
		}
		if len(remaining) == 0 {
			if err := s.store.DeactivateRoom(ctx, roomCode); err != nil {
				return nil, fmt.Errorf("deactivate room %s: %w", roomCode, err)
			}
			log.Printf("room closed room=%s last_player=%s", roomCode, playerID)
			return nil, nil
		}
		next := remaining[0]
		rotation := promoteDenner(room.DennerRotation, playerID, next.ID)
		if _, err := s.store.UpdateRoom(ctx, roomCode, RoomUpdate{
			HostID:         &next.ID,
			HostName:       &next.Name,
			DennerRotation: rotation,
		}); err != nil {
			return nil, fmt.Errorf("hand off host in room %s: %w", roomCode, err)
		}
		log.Printf("host handed off room=%s old=%s new=%s", roomCode, playerID, next.ID)
	}
	return s.GameInfo(ctx, roomCode)
}

// promoteDenner moves newHost to the front of the rotation and drops the
// departing player, preserving the relative order of everyone else.
func promoteDenner(rotation []string, departed, newHost string) []string {
	next := []string{newHost}
	for _, id := range rotation {
		if id == departed || id == newHost {
			continue
		}
		next = append(next, id)
	}
	return next
}

// Heartbeat refreshes the player's last-seen timestamp.
func (s *Service) Heartbeat(ctx context.Context, roomCode, playerID string) error {
	_, err := s.store.UpdatePlayer(ctx, roomCode, playerID, PlayerUpdate{})
	return err
}

// RenamePlayer updates a player's display name.
func (s *Service) RenamePlayer(ctx context.Context, roomCode, playerID, name string) (*GameInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("player name is required: %w", ErrValidation)
	}
	if _, err := s.store.UpdatePlayer(ctx, roomCode, playerID, PlayerUpdate{Name: &name}); err != nil {
		return nil, err
	}
	return s.GameInfo(ctx, roomCode)
}

// SelectGameType moves the room into game selection with the chosen type.
func (s *Service) SelectGameType(ctx context.Context, roomCode, gameType string) (*GameInfo, error) {
	if gameType != GameTypeFindColor && gameType != GameTypeColorMixing {
		return nil, fmt.Errorf("unknown game type %q: %w", gameType, ErrValidation)
	}
	state := StateGameSelection
	if _, err := s.store.UpdateRoom(ctx, roomCode, RoomUpdate{GameType: &gameType, GameState: &state}); err != nil {
		return nil, err
	}
	return s.GameInfo(ctx, roomCode)
}

// SetTargetColor records the denner's target color for the upcoming round.
func (s *Service) SetTargetColor(ctx context.Context, roomCode, color string) (*GameInfo, error) {
	if color == "" {
		return nil, fmt.Errorf("target color is required: %w", ErrValidation)
	}
	if _, err := s.store.UpdateRoom(ctx, roomCode, RoomUpdate{TargetColor: &color}); err != nil {
		return nil, err
	}
	return s.GameInfo(ctx, roomCode)
}

// StartRound creates the next round and puts the room into play. The round
// insert and the room advance commit together, so two hosts racing on a
// stale currentRound read surface as ErrRoundExists instead of a gap in the
// round sequence.
func (s *Service) StartRound(ctx context.Context, roomCode string) (*GameInfo, error) {
	room, err := s.store.GetRoom(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if room.CurrentRound >= room.MaxRounds {
		return nil, fmt.Errorf("all %d rounds already played: %w", room.MaxRounds, ErrValidation)
	}

	gameType := room.GameType
	if gameType == "" {
		gameType = GameTypeColorMixing
	}
	target := room.TargetColor
	if target == "" {
		target = defaultTargetColor
	}
	now := time.Now().UTC()
	nextRound := room.CurrentRound + 1
	state := StatePlaying
	round := &Round{
		RoomCode:    roomCode,
		Number:      nextRound,
		GameType:    gameType,
		DennerID:    room.HostID,
		DennerName:  room.HostName,
		TargetColor: target,
		GuessTime:   room.GuessTime,
		StartTime:   now,
	}
	if _, err := s.store.StartRound(ctx, round, RoomUpdate{
		CurrentRound:     &nextRound,
		GameState:        &state,
		StartTime:        &now,
		CurrentGuessTime: &room.GuessTime,
	}); err != nil {
		return nil, fmt.Errorf("start round %d in room %s: %w", nextRound, roomCode, err)
	}
	log.Printf("round started room=%s round=%d game_type=%s denner=%s", roomCode, nextRound, gameType, room.HostID)
	return s.GameInfo(ctx, roomCode)
}

// EndRound finalizes the current round and advances the coarse state:
// roundFinished with rounds remaining, sessionFinished on the last. It is
// safe to call late or repeatedly; a round that is already completed keeps
// its original results, and a missing round row is logged and skipped
// rather than failing the transition.
func (s *Service) EndRound(ctx context.Context, roomCode string) (*GameInfo, error) {
	room, err := s.store.GetRoom(ctx, roomCode)
	if err != nil {
		return nil, err
	}

	round, err := s.store.GetRound(ctx, roomCode, room.CurrentRound)
	switch {
	case errors.Is(err, ErrRoundNotFound):
		log.Printf("end round: no round row room=%s round=%d", roomCode, room.CurrentRound)
	case err != nil:
		return nil, fmt.Errorf("load round %d in room %s: %w", room.CurrentRound, roomCode, err)
	default:
		scores, err := s.store.ListScores(ctx, roomCode, round.ID)
		if err != nil {
			return nil, fmt.Errorf("list scores for round %d in room %s: %w", round.Number, roomCode, err)
		}
		results := make([]RoundResult, 0, len(scores))
		for _, score := range scores {
			results = append(results, RoundResult{
				PlayerID:   score.PlayerID,
				PlayerName: score.PlayerName,
				Score:      score.Score,
				Attempts:   1,
			})
		}
		if _, err := s.store.CompleteRound(ctx, roomCode, round.Number, results); err != nil {
			return nil, fmt.Errorf("complete round %d in room %s: %w", round.Number, roomCode, err)
		}
	}

	update := RoomUpdate{}
	state := StateRoundFinished
	if room.CurrentRound >= room.MaxRounds {
		state = StateSessionFinished
		now := time.Now().UTC()
		update.EndTime = &now
	}
	update.GameState = &state
	if _, err := s.store.UpdateRoom(ctx, roomCode, update); err != nil {
		return nil, err
	}
	log.Printf("round ended room=%s round=%d state=%s", roomCode, room.CurrentRound, state)
	return s.GameInfo(ctx, roomCode)
}

// ContinueSession returns a finished round to game selection.
func (s *Service) ContinueSession(ctx context.Context, roomCode string) (*GameInfo, error) {
	state := StateGameSelection
	if _, err := s.store.UpdateRoom(ctx, roomCode, RoomUpdate{GameState: &state}); err != nil {
		return nil, err
	}
	return s.GameInfo(ctx, roomCode)
}

// EndSession terminates the session from any state.
func (s *Service) EndSession(ctx context.Context, roomCode string) (*GameInfo, error) {
	state := StateSessionFinished
	now := time.Now().UTC()
	if _, err := s.store.UpdateRoom(ctx, roomCode, RoomUpdate{GameState: &state, EndTime: &now}); err != nil {
		return nil, err
	}
	return s.GameInfo(ctx, roomCode)
}

// ExtendTime grants extra guess time mid-round without changing state.
func (s *Service) ExtendTime(ctx context.Context, roomCode string, extraSeconds int) (*GameInfo, error) {
	if extraSeconds <= 0 {
		extraSeconds = s.cfg.ExtendTimeSeconds
	}
	room, err := s.store.GetRoom(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	current := room.CurrentGuessTime
	if current <= 0 {
		current = room.GuessTime
	}
	extended := current + extraSeconds
	if _, err := s.store.UpdateRoom(ctx, roomCode, RoomUpdate{CurrentGuessTime: &extended}); err != nil {
		return nil, err
	}
	return s.GameInfo(ctx, roomCode)
}

// SubmitScore records a player's result for the room's current round as an
// idempotent upsert, then recomputes that player's session aggregates from
// the full score history.
func (s *Service) SubmitScore(ctx context.Context, roomCode string, sub ScoreSubmission) (*GameInfo, error) {
	if sub.PlayerID == "" || sub.PlayerName == "" {
		return nil, fmt.Errorf("player id and name are required: %w", ErrValidation)
	}
	room, err := s.store.GetRoom(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	round, err := s.store.GetRound(ctx, roomCode, room.CurrentRound)
	if err != nil {
		return nil, fmt.Errorf("round %d in room %s: %w", room.CurrentRound, roomCode, err)
	}

	if err := s.store.UpsertScore(ctx, &Score{
		RoomCode:      roomCode,
		RoundID:       round.ID,
		RoundNumber:   round.Number,
		PlayerID:      sub.PlayerID,
		PlayerName:    sub.PlayerName,
		Score:         sub.Score,
		TimeTaken:     sub.TimeTaken,
		TargetColor:   round.TargetColor,
		CapturedColor: sub.CapturedColor,
		Similarity:    sub.Similarity,
		GameType:      round.GameType,
	}); err != nil {
		return nil, fmt.Errorf("save score for %s in room %s round %d: %w", sub.PlayerID, roomCode, round.Number, err)
	}

	// Re-read the full history instead of patching increments so
	// concurrent submissions converge on the same aggregates.
	scores, err := s.store.ListScores(ctx, roomCode, 0)
	if err != nil {
		return nil, fmt.Errorf("list scores in room %s: %w", roomCode, err)
	}
	history := make([]Score, 0, len(scores))
	for _, score := range scores {
		if score.PlayerID == sub.PlayerID {
			history = append(history, score)
		}
	}
	agg := computeAggregates(history)
	if _, err := s.store.UpdatePlayer(ctx, roomCode, sub.PlayerID, PlayerUpdate{
		Attempts:     &agg.Attempts,
		BestScore:    &agg.BestScore,
		SessionScore: &agg.SessionScore,
		RoundScores:  agg.RoundScores,
	}); err != nil {
		return nil, fmt.Errorf("update aggregates for %s in room %s: %w", sub.PlayerID, roomCode, err)
	}
	return s.GameInfo(ctx, roomCode)
}

// Room returns the active room.
func (s *Service) Room(ctx context.Context, roomCode string) (*Room, error) {
	return s.store.GetRoom(ctx, roomCode)
}

// Players returns the room's active players ordered by join time.
func (s *Service) Players(ctx context.Context, roomCode string) ([]Player, error) {
	if _, err := s.store.GetRoom(ctx, roomCode); err != nil {
		return nil, err
	}
	return s.store.ListPlayers(ctx, roomCode)
}

// Rounds returns all of the room's rounds in sequence.
func (s *Service) Rounds(ctx context.Context, roomCode string) ([]Round, error) {
	if _, err := s.store.GetRoom(ctx, roomCode); err != nil {
		return nil, err
	}
	return s.store.ListRounds(ctx, roomCode)
}

// Scores returns the room's scores, optionally limited to one round.
func (s *Service) Scores(ctx context.Context, roomCode string, roundNumber int) ([]Score, error) {
	if _, err := s.store.GetRoom(ctx, roomCode); err != nil {
		return nil, err
	}
	var roundID int64
	if roundNumber > 0 {
		round, err := s.store.GetRound(ctx, roomCode, roundNumber)
		if err != nil {
			return nil, err
		}
		roundID = round.ID
	}
	return s.store.ListScores(ctx, roomCode, roundID)
}

// Leaderboard computes the ranked session leaderboard from the room's full
// score history.
func (s *Service) Leaderboard(ctx context.Context, roomCode string) ([]LeaderboardEntry, error) {
	if _, err := s.store.GetRoom(ctx, roomCode); err != nil {
		return nil, err
	}
	scores, err := s.store.ListScores(ctx, roomCode, 0)
	if err != nil {
		return nil, err
	}
	return computeLeaderboard(scores), nil
}

// GameInfo assembles the read-only snapshot all callers poll against.
func (s *Service) GameInfo(ctx context.Context, roomCode string) (*GameInfo, error) {
	room, err := s.store.GetRoom(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayers(ctx, roomCode)
	if err != nil {
		return nil, fmt.Errorf("list players in room %s: %w", roomCode, err)
	}
	rounds, err := s.store.ListRounds(ctx, roomCode)
	if err != nil {
		return nil, fmt.Errorf("list rounds in room %s: %w", roomCode, err)
	}
	scores, err := s.store.ListScores(ctx, roomCode, 0)
	if err != nil {
		return nil, fmt.Errorf("list scores in room %s: %w", roomCode, err)
	}

	target := room.TargetColor
	if target == "" {
		target = defaultTargetColor
	}
	currentGuess := room.CurrentGuessTime
	if currentGuess <= 0 {
		currentGuess = room.GuessTime
	}
	rotation := room.DennerRotation
	if len(rotation) == 0 {
		rotation = []string{room.HostID}
	}

	info := &GameInfo{
		RoomID:             room.Code,
		DennerID:           room.HostID,
		DennerName:         room.HostName,
		TargetColor:        target,
		GameState:          room.GameState,
		GameType:           room.GameType,
		CurrentRound:       room.CurrentRound,
		MaxRounds:          room.MaxRounds,
		GuessTime:          room.GuessTime,
		CurrentGuessTime:   currentGuess,
		StartTime:          unixMillis(room.StartTime),
		EndTime:            unixMillis(room.EndTime),
		PlayerCount:        len(players),
		MaxPlayers:         room.MaxPlayers,
		MinPlayers:         minPlayers,
		Players:            make([]GamePlayer, 0, len(players)),
		RoundResults:       make([]GameRound, 0, len(rounds)),
		SessionLeaderboard: computeLeaderboard(scores),
		DennerRotation:     rotation,
	}
	for _, p := range players {
		info.Players = append(info.Players, GamePlayer{
			ID:           p.ID,
			Name:         p.Name,
			Score:        p.Score,
			Attempts:     p.Attempts,
			BestScore:    p.BestScore,
			SessionScore: p.SessionScore,
			RoundScores:  p.RoundScores,
			JoinedAt:     p.JoinedAt.UnixMilli(),
		})
	}
	for _, r := range rounds {
		if !r.IsCompleted {
			continue
		}
		info.RoundResults = append(info.RoundResults, GameRound{
			Round:     r.Number,
			GameType:  r.GameType,
			Denner:    r.DennerName,
			Players:   r.PlayerResults,
			Timestamp: r.CreatedAt.UnixMilli(),
		})
	}
	return info, nil
}

// DeactivateRoom closes the room explicitly.
func (s *Service) DeactivateRoom(ctx context.Context, roomCode string) error {
	return s.store.DeactivateRoom(ctx, roomCode)
}

// CleanupInactive sweeps rooms untouched for roomAgeHours and players
// unseen for playerAgeHours.
func (s *Service) CleanupInactive(ctx context.Context, roomAgeHours, playerAgeHours int) (CleanupResult, error) {
	rooms, err := s.store.CleanupRooms(ctx, time.Duration(roomAgeHours)*time.Hour)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("cleanup rooms: %w", err)
	}
	players, err := s.store.CleanupPlayers(ctx, time.Duration(playerAgeHours)*time.Hour)
	if err != nil {
		return CleanupResult{Rooms: rooms}, fmt.Errorf("cleanup players: %w", err)
	}
	if rooms > 0 || players > 0 {
		log.Printf("cleanup swept rooms=%d players=%d", rooms, players)
	}
	return CleanupResult{Rooms: rooms, Players: players}, nil
}

func unixMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
