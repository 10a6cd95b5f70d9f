package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shade/internal/party"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements the party and daily storage boundaries on Postgres via
// GORM. Uniqueness is enforced by the compound indexes declared on the
// models; the expected conflict paths are translated to domain errors.
type Store struct {
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

func (s *Store) CreateRoom(ctx context.Context, room *party.Room) error {
	rotation, err := json.Marshal(room.DennerRotation)
	if err != nil {
		return err
	}
	record := PartyRoom{
		RoomID:           room.Code,
		HostID:           room.HostID,
		HostName:         room.HostName,
		MaxPlayers:       room.MaxPlayers,
		MaxRounds:        room.MaxRounds,
		GuessTime:        room.GuessTime,
		CurrentRound:     room.CurrentRound,
		GameState:        room.GameState,
		CurrentGuessTime: room.CurrentGuessTime,
		StartTime:        room.StartTime,
		EndTime:          room.EndTime,
		IsActive:         room.IsActive,
		DennerRotation:   datatypes.JSON(rotation),
	}
	if room.GameType != "" {
		record.GameType = &room.GameType
	}
	if room.TargetColor != "" {
		record.TargetColor = &room.TargetColor
	}
	if err := s.conn.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return party.ErrRoomCodeTaken
		}
		return err
	}
	room.CreatedAt = record.CreatedAt
	room.UpdatedAt = record.UpdatedAt
	return nil
}

func (s *Store) GetRoom(ctx context.Context, code string) (*party.Room, error) {
	var record PartyRoom
	err := s.conn.WithContext(ctx).
		Where("room_id = ? AND is_active = ?", code, true).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, party.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return roomFromRecord(&record)
}

func (s *Store) UpdateRoom(ctx context.Context, code string, update party.RoomUpdate) (*party.Room, error) {
	updates, err := roomUpdates(update)
	if err != nil {
		return nil, err
	}
	result := s.conn.WithContext(ctx).
		Model(&PartyRoom{}).
		Where("room_id = ?", code).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, party.ErrRoomNotFound
	}
	var record PartyRoom
	if err := s.conn.WithContext(ctx).Where("room_id = ?", code).First(&record).Error; err != nil {
		return nil, err
	}
	return roomFromRecord(&record)
}

func (s *Store) DeactivateRoom(ctx context.Context, code string) error {
	now := time.Now().UTC()
	return s.conn.WithContext(ctx).
		Model(&PartyRoom{}).
		Where("room_id = ?", code).
		Updates(map[string]any{
			"is_active":  false,
			"end_time":   gorm.Expr("COALESCE(end_time, ?)", now),
			"updated_at": now,
		}).Error
}

func (s *Store) JoinRoom(ctx context.Context, roomCode, playerID, playerName string) (*party.Player, error) {
	var joined *party.Player
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the room row so the capacity check and the insert cannot
		// interleave with a concurrent join.
		var room PartyRoom
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ? AND is_active = ?", roomCode, true).
			First(&room).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return party.ErrRoomNotFound
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var existing PartyPlayer
		err = tx.Where("room_id = ? AND player_id = ?", roomCode, playerID).First(&existing).Error
		if err == nil {
			if err := tx.Model(&existing).Updates(map[string]any{
				"is_active": true,
				"last_seen": now,
			}).Error; err != nil {
				return err
			}
			existing.IsActive = true
			existing.LastSeen = now
			joined, err = playerFromRecord(&existing)
			return err
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var active int64
		if err := tx.Model(&PartyPlayer{}).
			Where("room_id = ? AND is_active = ?", roomCode, true).
			Count(&active).Error; err != nil {
			return err
		}
		if active >= int64(room.MaxPlayers) {
			return party.ErrRoomFull
		}

		record := PartyPlayer{
			RoomID:      roomCode,
			PlayerID:    playerID,
			PlayerName:  playerName,
			RoundScores: datatypes.JSON("[]"),
			JoinedAt:    now,
			IsActive:    true,
			LastSeen:    now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		joined, err = playerFromRecord(&record)
		return err
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

func (s *Store) ListPlayers(ctx context.Context, roomCode string) ([]party.Player, error) {
	var records []PartyPlayer
	err := s.conn.WithContext(ctx).
		Where("room_id = ? AND is_active = ?", roomCode, true).
		Order("joined_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	players := make([]party.Player, 0, len(records))
	for i := range records {
		player, err := playerFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		players = append(players, *player)
	}
	return players, nil
}

func (s *Store) UpdatePlayer(ctx context.Context, roomCode, playerID string, update party.PlayerUpdate) (*party.Player, error) {
	updates := map[string]any{"last_seen": time.Now().UTC()}
	if update.Name != nil {
		updates["player_name"] = *update.Name
	}
	if update.Score != nil {
		updates["score"] = *update.Score
	}
	if update.Attempts != nil {
		updates["attempts"] = *update.Attempts
	}
	if update.BestScore != nil {
		updates["best_score"] = *update.BestScore
	}
	if update.SessionScore != nil {
		updates["session_score"] = *update.SessionScore
	}
	if update.RoundScores != nil {
		scores, err := json.Marshal(update.RoundScores)
		if err != nil {
			return nil, err
		}
		updates["round_scores"] = datatypes.JSON(scores)
	}
	result := s.conn.WithContext(ctx).
		Model(&PartyPlayer{}).
		Where("room_id = ? AND player_id = ?", roomCode, playerID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, party.ErrPlayerNotFound
	}
	var record PartyPlayer
	if err := s.conn.WithContext(ctx).
		Where("room_id = ? AND player_id = ?", roomCode, playerID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return playerFromRecord(&record)
}

func (s *Store) RemovePlayer(ctx context.Context, roomCode, playerID string) error {
	return s.conn.WithContext(ctx).
		Model(&PartyPlayer{}).
		Where("room_id = ? AND player_id = ?", roomCode, playerID).
		Updates(map[string]any{
			"is_active": false,
			"last_seen": time.Now().UTC(),
		}).Error
}

func (s *Store) StartRound(ctx context.Context, round *party.Round, update party.RoomUpdate) (*party.Room, error) {
	var started *party.Room
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := PartyRound{
			RoomID:        round.RoomCode,
			RoundNumber:   round.Number,
			GameType:      round.GameType,
			DennerID:      round.DennerID,
			DennerName:    round.DennerName,
			TargetColor:   round.TargetColor,
			GuessTime:     round.GuessTime,
			StartTime:     round.StartTime,
			PlayerResults: datatypes.JSON("[]"),
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return party.ErrRoundExists
			}
			return err
		}
		round.ID = int64(record.ID)
		round.CreatedAt = record.CreatedAt

		updates, err := roomUpdates(update)
		if err != nil {
			return err
		}
		result := tx.Model(&PartyRoom{}).Where("room_id = ?", round.RoomCode).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return party.ErrRoomNotFound
		}
		var room PartyRoom
		if err := tx.Where("room_id = ?", round.RoomCode).First(&room).Error; err != nil {
			return err
		}
		started, err = roomFromRecord(&room)
		return err
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

func (s *Store) GetRound(ctx context.Context, roomCode string, number int) (*party.Round, error) {
	var record PartyRound
	err := s.conn.WithContext(ctx).
		Where("room_id = ? AND round_number = ?", roomCode, number).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, party.ErrRoundNotFound
	}
	if err != nil {
		return nil, err
	}
	return roundFromRecord(&record)
}

func (s *Store) CompleteRound(ctx context.Context, roomCode string, number int, results []party.RoundResult) (*party.Round, error) {
	var record PartyRound
	err := s.conn.WithContext(ctx).
		Where("room_id = ? AND round_number = ?", roomCode, number).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, party.ErrRoundNotFound
	}
	if err != nil {
		return nil, err
	}
	if record.IsCompleted {
		return roundFromRecord(&record)
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.conn.WithContext(ctx).Model(&record).Updates(map[string]any{
		"is_completed":   true,
		"end_time":       now,
		"player_results": datatypes.JSON(payload),
	}).Error; err != nil {
		return nil, err
	}
	record.IsCompleted = true
	record.EndTime = &now
	record.PlayerResults = datatypes.JSON(payload)
	return roundFromRecord(&record)
}

func (s *Store) ListRounds(ctx context.Context, roomCode string) ([]party.Round, error) {
	var records []PartyRound
	err := s.conn.WithContext(ctx).
		Where("room_id = ?", roomCode).
		Order("round_number ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	rounds := make([]party.Round, 0, len(records))
	for i := range records {
		round, err := roundFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *round)
	}
	return rounds, nil
}

func (s *Store) UpsertScore(ctx context.Context, score *party.Score) error {
	record := PartyScore{
		RoomID:      score.RoomCode,
		RoundID:     uint(score.RoundID),
		RoundNumber: score.RoundNumber,
		PlayerID:    score.PlayerID,
		PlayerName:  score.PlayerName,
		Score:       score.Score,
		TimeTaken:   score.TimeTaken,
		TargetColor: score.TargetColor,
		Similarity:  score.Similarity,
		GameType:    score.GameType,
		SubmittedAt: time.Now().UTC(),
	}
	if score.CapturedColor != "" {
		record.CapturedColor = &score.CapturedColor
	}
	return s.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "round_id"}, {Name: "player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"player_name", "score", "time_taken", "captured_color", "similarity", "submitted_at",
			}),
		}).
		Create(&record).Error
}

func (s *Store) ListScores(ctx context.Context, roomCode string, roundID int64) ([]party.Score, error) {
	query := s.conn.WithContext(ctx).Where("room_id = ?", roomCode)
	if roundID != 0 {
		query = query.Where("round_id = ?", roundID)
	}
	var records []PartyScore
	if err := query.Order("round_number ASC, submitted_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	scores := make([]party.Score, 0, len(records))
	for i := range records {
		scores = append(scores, *scoreFromRecord(&records[i]))
	}
	return scores, nil
}

func (s *Store) CleanupRooms(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	result := s.conn.WithContext(ctx).
		Model(&PartyRoom{}).
		Where("is_active = ? AND updated_at < ?", true, cutoff).
		Updates(map[string]any{"is_active": false})
	return result.RowsAffected, result.Error
}

func (s *Store) CleanupPlayers(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	result := s.conn.WithContext(ctx).
		Model(&PartyPlayer{}).
		Where("is_active = ? AND last_seen < ?", true, cutoff).
		Updates(map[string]any{"is_active": false})
	return result.RowsAffected, result.Error
}

func roomUpdates(update party.RoomUpdate) (map[string]any, error) {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if update.HostID != nil {
		updates["host_id"] = *update.HostID
	}
	if update.HostName != nil {
		updates["host_name"] = *update.HostName
	}
	if update.GameState != nil {
		updates["game_state"] = *update.GameState
	}
	if update.GameType != nil {
		updates["game_type"] = *update.GameType
	}
	if update.TargetColor != nil {
		updates["target_color"] = *update.TargetColor
	}
	if update.CurrentRound != nil {
		updates["current_round"] = *update.CurrentRound
	}
	if update.CurrentGuessTime != nil {
		updates["current_guess_time"] = *update.CurrentGuessTime
	}
	if update.StartTime != nil {
		updates["start_time"] = *update.StartTime
	}
	if update.EndTime != nil {
		updates["end_time"] = *update.EndTime
	}
	if update.DennerRotation != nil {
		rotation, err := json.Marshal(update.DennerRotation)
		if err != nil {
			return nil, err
		}
		updates["denner_rotation"] = datatypes.JSON(rotation)
	}
	return updates, nil
}

func roomFromRecord(record *PartyRoom) (*party.Room, error) {
	room := &party.Room{
		Code:             record.RoomID,
		HostID:           record.HostID,
		HostName:         record.HostName,
		MaxPlayers:       record.MaxPlayers,
		MaxRounds:        record.MaxRounds,
		GuessTime:        record.GuessTime,
		CurrentRound:     record.CurrentRound,
		GameState:        record.GameState,
		CurrentGuessTime: record.CurrentGuessTime,
		StartTime:        record.StartTime,
		EndTime:          record.EndTime,
		IsActive:         record.IsActive,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
	if record.GameType != nil {
		room.GameType = *record.GameType
	}
	if record.TargetColor != nil {
		room.TargetColor = *record.TargetColor
	}
	if len(record.DennerRotation) > 0 {
		if err := json.Unmarshal(record.DennerRotation, &room.DennerRotation); err != nil {
			return nil, err
		}
	}
	return room, nil
}

func playerFromRecord(record *PartyPlayer) (*party.Player, error) {
	player := &party.Player{
		RoomCode:     record.RoomID,
		ID:           record.PlayerID,
		Name:         record.PlayerName,
		Score:        record.Score,
		Attempts:     record.Attempts,
		BestScore:    record.BestScore,
		SessionScore: record.SessionScore,
		RoundScores:  []int{},
		JoinedAt:     record.JoinedAt,
		IsActive:     record.IsActive,
		LastSeen:     record.LastSeen,
	}
	if len(record.RoundScores) > 0 {
		if err := json.Unmarshal(record.RoundScores, &player.RoundScores); err != nil {
			return nil, err
		}
	}
	return player, nil
}

func roundFromRecord(record *PartyRound) (*party.Round, error) {
	round := &party.Round{
		ID:          int64(record.ID),
		RoomCode:    record.RoomID,
		Number:      record.RoundNumber,
		GameType:    record.GameType,
		DennerID:    record.DennerID,
		DennerName:  record.DennerName,
		TargetColor: record.TargetColor,
		GuessTime:   record.GuessTime,
		StartTime:   record.StartTime,
		EndTime:     record.EndTime,
		IsCompleted: record.IsCompleted,
		CreatedAt:   record.CreatedAt,
	}
	if len(record.PlayerResults) > 0 {
		if err := json.Unmarshal(record.PlayerResults, &round.PlayerResults); err != nil {
			return nil, err
		}
	}
	return round, nil
}

func scoreFromRecord(record *PartyScore) *party.Score {
	score := &party.Score{
		RoomCode:    record.RoomID,
		RoundID:     int64(record.RoundID),
		RoundNumber: record.RoundNumber,
		PlayerID:    record.PlayerID,
		PlayerName:  record.PlayerName,
		Score:       record.Score,
		TimeTaken:   record.TimeTaken,
		TargetColor: record.TargetColor,
		Similarity:  record.Similarity,
		GameType:    record.GameType,
		SubmittedAt: record.SubmittedAt,
	}
	if record.CapturedColor != nil {
		score.CapturedColor = *record.CapturedColor
	}
	return score
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
