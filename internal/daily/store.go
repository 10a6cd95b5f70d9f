package daily

import "context"

// Store is the persistence boundary for daily-challenge data. The
// (user, date, game type) pair is unique for both attempts and best
// entries.
type Store interface {
	// InsertAttempt records an attempt, returning ErrAlreadyPlayed when
	// one exists for the same user, date and game type.
	InsertAttempt(ctx context.Context, attempt *Attempt) error
	// LatestAttempt returns the user's most recent attempt by date, or
	// ErrNotFound.
	LatestAttempt(ctx context.Context, userID string) (*Attempt, error)
	// UpsertBest keeps the higher score per (user, date, game type) and
	// reports whether the entry was created or improved.
	UpsertBest(ctx context.Context, entry *BestEntry) (bool, error)
	// GetBest returns the user's entry for the day, or ErrNotFound.
	GetBest(ctx context.Context, date, gameType, userID string) (*BestEntry, error)
	// ListBest returns entries for the date range (inclusive), sorted by
	// score descending then time taken ascending. An empty gameType (or
	// "all") selects every game type.
	ListBest(ctx context.Context, dateFrom, dateTo, gameType string) ([]BestEntry, error)
}
