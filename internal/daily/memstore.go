package daily

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded Store for running without a database and
// for tests.
type MemoryStore struct {
	mu       sync.Mutex
	attempts []*Attempt
	best     []*BestEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) InsertAttempt(_ context.Context, attempt *Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attempts {
		if existing.UserID == attempt.UserID && existing.Date == attempt.Date && existing.GameType == attempt.GameType {
			return ErrAlreadyPlayed
		}
	}
	stored := *attempt
	stored.CreatedAt = time.Now().UTC()
	s.attempts = append(s.attempts, &stored)
	return nil
}

func (s *MemoryStore) LatestAttempt(_ context.Context, userID string) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *Attempt
	for _, attempt := range s.attempts {
		if attempt.UserID != userID {
			continue
		}
		// >= so same-date attempts resolve to the most recent insert,
		// matching the date DESC, created_at DESC ordering of the
		// database store.
		if latest == nil || attempt.Date >= latest.Date {
			latest = attempt
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (s *MemoryStore) UpsertBest(_ context.Context, entry *BestEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, existing := range s.best {
		if existing.UserID != entry.UserID || existing.Date != entry.Date || existing.GameType != entry.GameType {
			continue
		}
		if entry.Score <= existing.Score {
			return false, nil
		}
		existing.Score = entry.Score
		existing.TimeTaken = entry.TimeTaken
		existing.UserName = entry.UserName
		existing.UpdatedAt = now
		return true, nil
	}
	stored := *entry
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.best = append(s.best, &stored)
	return true, nil
}

func (s *MemoryStore) GetBest(_ context.Context, date, gameType, userID string) (*BestEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.best {
		if entry.UserID == userID && entry.Date == date && (gameType == "" || gameType == GameTypeAll || entry.GameType == gameType) {
			clone := *entry
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListBest(_ context.Context, dateFrom, dateTo, gameType string) ([]BestEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]BestEntry, 0)
	for _, entry := range s.best {
		if entry.Date < dateFrom || entry.Date > dateTo {
			continue
		}
		if gameType != "" && gameType != GameTypeAll && entry.GameType != gameType {
			continue
		}
		list = append(list, *entry)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		if list[i].TimeTaken != list[j].TimeTaken {
			return list[i].TimeTaken < list[j].TimeTaken
		}
		return list[i].UserID < list[j].UserID
	})
	return list, nil
}
