package party

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded Store kept entirely in process. It backs
// the service when no database is configured and all of the package tests.
type MemoryStore struct {
	mu          sync.Mutex
	nextRoundID int64
	rooms       map[string]*Room
	players     map[string][]*Player
	rounds      map[string][]*Round
	scores      map[string][]*Score
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextRoundID: 1,
		rooms:       make(map[string]*Room),
		players:     make(map[string][]*Player),
		rounds:      make(map[string][]*Round),
		scores:      make(map[string][]*Score),
	}
}

func (s *MemoryStore) CreateRoom(_ context.Context, room *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Code]; ok {
		return ErrRoomCodeTaken
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	stored := *room
	stored.DennerRotation = slices.Clone(room.DennerRotation)
	s.rooms[room.Code] = &stored
	return nil
}

func (s *MemoryStore) GetRoom(_ context.Context, code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRoom(code)
}

func (s *MemoryStore) activeRoom(code string) (*Room, error) {
	room, ok := s.rooms[code]
	if !ok || !room.IsActive {
		return nil, ErrRoomNotFound
	}
	return copyRoom(room), nil
}

func (s *MemoryStore) UpdateRoom(_ context.Context, code string, update RoomUpdate) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	applyRoomUpdate(room, update)
	room.UpdatedAt = time.Now().UTC()
	return copyRoom(room), nil
}

func (s *MemoryStore) DeactivateRoom(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	room.IsActive = false
	if room.EndTime == nil {
		room.EndTime = &now
	}
	room.UpdatedAt = now
	return nil
}

func (s *MemoryStore) JoinRoom(_ context.Context, roomCode, playerID, playerName string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomCode]
	if !ok || !room.IsActive {
		return nil, ErrRoomNotFound
	}
	now := time.Now().UTC()
	active := 0
	for _, p := range s.players[roomCode] {
		if p.ID == playerID {
			p.IsActive = true
			p.LastSeen = now
			return copyPlayer(p), nil
		}
		if p.IsActive {
			active++
		}
	}
	if active >= room.MaxPlayers {
		return nil, ErrRoomFull
	}
	player := &Player{
		RoomCode:    roomCode,
		ID:          playerID,
		Name:        playerName,
		RoundScores: []int{},
		JoinedAt:    now,
		IsActive:    true,
		LastSeen:    now,
	}
	s.players[roomCode] = append(s.players[roomCode], player)
	return copyPlayer(player), nil
}

func (s *MemoryStore) ListPlayers(_ context.Context, roomCode string) ([]Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Player, 0)
	for _, p := range s.players[roomCode] {
		if p.IsActive {
			list = append(list, *copyPlayer(p))
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].JoinedAt.Before(list[j].JoinedAt)
	})
	return list, nil
}

func (s *MemoryStore) UpdatePlayer(_ context.Context, roomCode, playerID string, update PlayerUpdate) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players[roomCode] {
		if p.ID != playerID {
			continue
		}
		if update.Name != nil {
			p.Name = *update.Name
		}
		if update.Score != nil {
			p.Score = *update.Score
		}
		if update.Attempts != nil {
			p.Attempts = *update.Attempts
		}
		if update.BestScore != nil {
			p.BestScore = *update.BestScore
		}
		if update.SessionScore != nil {
			p.SessionScore = *update.SessionScore
		}
		if update.RoundScores != nil {
			p.RoundScores = slices.Clone(update.RoundScores)
		}
		p.LastSeen = time.Now().UTC()
		return copyPlayer(p), nil
	}
	return nil, ErrPlayerNotFound
}

func (s *MemoryStore) RemovePlayer(_ context.Context, roomCode, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players[roomCode] {
		if p.ID == playerID {
			p.IsActive = false
			p.LastSeen = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) StartRound(_ context.Context, round *Round, update RoomUpdate) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[round.RoomCode]
	if !ok || !room.IsActive {
		return nil, ErrRoomNotFound
	}
	for _, existing := range s.rounds[round.RoomCode] {
		if existing.Number == round.Number {
			return nil, ErrRoundExists
		}
	}
	round.ID = s.nextRoundID
	s.nextRoundID++
	round.CreatedAt = time.Now().UTC()
	stored := *round
	stored.PlayerResults = slices.Clone(round.PlayerResults)
	s.rounds[round.RoomCode] = append(s.rounds[round.RoomCode], &stored)

	applyRoomUpdate(room, update)
	room.UpdatedAt = time.Now().UTC()
	return copyRoom(room), nil
}

func (s *MemoryStore) GetRound(_ context.Context, roomCode string, number int) (*Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rounds[roomCode] {
		if r.Number == number {
			return copyRound(r), nil
		}
	}
	return nil, ErrRoundNotFound
}

func (s *MemoryStore) CompleteRound(_ context.Context, roomCode string, number int, results []RoundResult) (*Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rounds[roomCode] {
		if r.Number != number {
			continue
		}
		if !r.IsCompleted {
			now := time.Now().UTC()
			r.IsCompleted = true
			r.EndTime = &now
			r.PlayerResults = slices.Clone(results)
		}
		return copyRound(r), nil
	}
	return nil, ErrRoundNotFound
}

func (s *MemoryStore) ListRounds(_ context.Context, roomCode string) ([]Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Round, 0, len(s.rounds[roomCode]))
	for _, r := range s.rounds[roomCode] {
		list = append(list, *copyRound(r))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	return list, nil
}

func (s *MemoryStore) UpsertScore(_ context.Context, score *Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, existing := range s.scores[score.RoomCode] {
		if existing.RoundID == score.RoundID && existing.PlayerID == score.PlayerID {
			existing.Score = score.Score
			existing.TimeTaken = score.TimeTaken
			existing.CapturedColor = score.CapturedColor
			existing.Similarity = score.Similarity
			existing.SubmittedAt = now
			return nil
		}
	}
	stored := *score
	stored.SubmittedAt = now
	s.scores[score.RoomCode] = append(s.scores[score.RoomCode], &stored)
	return nil
}

func (s *MemoryStore) ListScores(_ context.Context, roomCode string, roundID int64) ([]Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Score, 0)
	for _, score := range s.scores[roomCode] {
		if roundID != 0 && score.RoundID != roundID {
			continue
		}
		list = append(list, *score)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].RoundNumber < list[j].RoundNumber })
	return list, nil
}

func (s *MemoryStore) CleanupRooms(_ context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-maxAge)
	var swept int64
	for _, room := range s.rooms {
		if room.IsActive && room.UpdatedAt.Before(cutoff) {
			room.IsActive = false
			swept++
		}
	}
	return swept, nil
}

func (s *MemoryStore) CleanupPlayers(_ context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-maxAge)
	var swept int64
	for _, players := range s.players {
		for _, p := range players {
			if p.IsActive && p.LastSeen.Before(cutoff) {
				p.IsActive = false
				swept++
			}
		}
	}
	return swept, nil
}

func applyRoomUpdate(room *Room, update RoomUpdate) {
	if update.HostID != nil {
		room.HostID = *update.HostID
	}
	if update.HostName != nil {
		room.HostName = *update.HostName
	}
	if update.GameState != nil {
		room.GameState = *update.GameState
	}
	if update.GameType != nil {
		room.GameType = *update.GameType
	}
	if update.TargetColor != nil {
		room.TargetColor = *update.TargetColor
	}
	if update.CurrentRound != nil {
		room.CurrentRound = *update.CurrentRound
	}
	if update.CurrentGuessTime != nil {
		room.CurrentGuessTime = *update.CurrentGuessTime
	}
	if update.StartTime != nil {
		room.StartTime = update.StartTime
	}
	if update.EndTime != nil {
		room.EndTime = update.EndTime
	}
	if update.DennerRotation != nil {
		room.DennerRotation = slices.Clone(update.DennerRotation)
	}
}

func copyRoom(room *Room) *Room {
	clone := *room
	clone.DennerRotation = slices.Clone(room.DennerRotation)
	return &clone
}

func copyPlayer(player *Player) *Player {
	clone := *player
	clone.RoundScores = slices.Clone(player.RoundScores)
	return &clone
}

func copyRound(round *Round) *Round {
	clone := *round
	clone.PlayerResults = slices.Clone(round.PlayerResults)
	return &clone
}
