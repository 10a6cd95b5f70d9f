package db

import (
	"context"
	"errors"
	"time"

	"shade/internal/daily"

	"gorm.io/gorm"
)

func (s *Store) InsertAttempt(ctx context.Context, attempt *daily.Attempt) error {
	record := DailyAttempt{
		UserID:        attempt.UserID,
		UserName:      attempt.UserName,
		Date:          attempt.Date,
		GameType:      attempt.GameType,
		TargetColor:   attempt.TargetColor,
		CapturedColor: attempt.CapturedColor,
		Similarity:    attempt.Similarity,
		TimeTaken:     attempt.TimeTaken,
		TimeScore:     attempt.TimeScore,
		FinalScore:    attempt.FinalScore,
		Streak:        attempt.Streak,
	}
	if err := s.conn.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return daily.ErrAlreadyPlayed
		}
		return err
	}
	attempt.CreatedAt = record.CreatedAt
	return nil
}

func (s *Store) LatestAttempt(ctx context.Context, userID string) (*daily.Attempt, error) {
	var record DailyAttempt
	err := s.conn.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, daily.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return attemptFromRecord(&record), nil
}

func (s *Store) UpsertBest(ctx context.Context, entry *daily.BestEntry) (bool, error) {
	var improved bool
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing DailyBest
		err := tx.Where("user_id = ? AND date = ? AND game_type = ?", entry.UserID, entry.Date, entry.GameType).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record := DailyBest{
				UserID:    entry.UserID,
				UserName:  entry.UserName,
				Date:      entry.Date,
				GameType:  entry.GameType,
				Score:     entry.Score,
				TimeTaken: entry.TimeTaken,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			improved = true
			return nil
		}
		if err != nil {
			return err
		}
		if entry.Score <= existing.Score {
			return nil
		}
		improved = true
		return tx.Model(&existing).Updates(map[string]any{
			"score":      entry.Score,
			"user_name":  entry.UserName,
			"time_taken": entry.TimeTaken,
			"updated_at": time.Now().UTC(),
		}).Error
	})
	return improved, err
}

func (s *Store) GetBest(ctx context.Context, date, gameType, userID string) (*daily.BestEntry, error) {
	query := s.conn.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date)
	if gameType != "" && gameType != daily.GameTypeAll {
		query = query.Where("game_type = ?", gameType)
	}
	var record DailyBest
	err := query.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, daily.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return bestFromRecord(&record), nil
}

func (s *Store) ListBest(ctx context.Context, dateFrom, dateTo, gameType string) ([]daily.BestEntry, error) {
	query := s.conn.WithContext(ctx).Where("date >= ? AND date <= ?", dateFrom, dateTo)
	if gameType != "" && gameType != daily.GameTypeAll {
		query = query.Where("game_type = ?", gameType)
	}
	var records []DailyBest
	if err := query.Order("score DESC, time_taken ASC, user_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	entries := make([]daily.BestEntry, 0, len(records))
	for i := range records {
		entries = append(entries, *bestFromRecord(&records[i]))
	}
	return entries, nil
}

func attemptFromRecord(record *DailyAttempt) *daily.Attempt {
	return &daily.Attempt{
		UserID:        record.UserID,
		UserName:      record.UserName,
		Date:          record.Date,
		GameType:      record.GameType,
		TargetColor:   record.TargetColor,
		CapturedColor: record.CapturedColor,
		Similarity:    record.Similarity,
		TimeTaken:     record.TimeTaken,
		TimeScore:     record.TimeScore,
		FinalScore:    record.FinalScore,
		Streak:        record.Streak,
		CreatedAt:     record.CreatedAt,
	}
}

func bestFromRecord(record *DailyBest) *daily.BestEntry {
	return &daily.BestEntry{
		UserID:    record.UserID,
		UserName:  record.UserName,
		Date:      record.Date,
		GameType:  record.GameType,
		Score:     record.Score,
		TimeTaken: record.TimeTaken,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
