package daily

import (
	"context"
	"errors"
	"testing"
)

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store), store
}

func TestRecordAttemptOncePerDay(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	attempt, err := svc.RecordAttempt(ctx, Submission{
		UserID: "u1", UserName: "Uma", GameType: GameTypeColorMixing,
		FinalScore: 85, TimeTaken: 4.2,
	})
	if err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if attempt.Date != today() || attempt.Streak != 1 {
		t.Fatalf("attempt = date %s streak %d, want today with streak 1", attempt.Date, attempt.Streak)
	}

	_, err = svc.RecordAttempt(ctx, Submission{
		UserID: "u1", UserName: "Uma", GameType: GameTypeColorMixing,
		FinalScore: 90,
	})
	if !errors.Is(err, ErrAlreadyPlayed) {
		t.Fatalf("second attempt = %v, want ErrAlreadyPlayed", err)
	}

	// A different game type on the same day is a separate challenge.
	if _, err = svc.RecordAttempt(ctx, Submission{
		UserID: "u1", UserName: "Uma", GameType: GameTypeFinding,
		FinalScore: 70,
	}); err != nil {
		t.Fatalf("other game type: %v", err)
	}
}

func TestStreakContinuesFromYesterday(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	store.attempts = append(store.attempts, &Attempt{
		UserID: "u1", UserName: "Uma", Date: yesterday(),
		GameType: GameTypeColorMixing, Streak: 3,
	})

	attempt, err := svc.RecordAttempt(ctx, Submission{
		UserID: "u1", UserName: "Uma", FinalScore: 60,
	})
	if err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if attempt.Streak != 4 {
		t.Fatalf("streak = %d, want 4", attempt.Streak)
	}
}

func TestStreakSurvivesSecondGameTypeSameDay(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	store.attempts = append(store.attempts, &Attempt{
		UserID: "u1", UserName: "Uma", Date: yesterday(),
		GameType: GameTypeColorMixing, Streak: 5,
	})

	first, err := svc.RecordAttempt(ctx, Submission{
		UserID: "u1", UserName: "Uma", GameType: GameTypeColorMixing, FinalScore: 80,
	})
	if err != nil {
		t.Fatalf("record color-mixing attempt: %v", err)
	}
	if first.Streak != 6 {
		t.Fatalf("streak = %d, want 6", first.Streak)
	}

	second, err := svc.RecordAttempt(ctx, Submission{
		UserID: "u1", UserName: "Uma", GameType: GameTypeFinding, FinalScore: 70,
	})
	if err != nil {
		t.Fatalf("record finding attempt: %v", err)
	}
	if second.Streak != 6 {
		t.Fatalf("second same-day attempt streak = %d, want 6", second.Streak)
	}

	streak, err := svc.Streak(ctx, "u1")
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 6 {
		t.Fatalf("reported streak = %d, want 6 after two same-day attempts", streak)
	}
}

func TestLatestAttemptPrefersMostRecentOnSameDate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.InsertAttempt(ctx, &Attempt{
		UserID: "u1", UserName: "Uma", Date: today(),
		GameType: GameTypeColorMixing, Streak: 2,
	}); err != nil {
		t.Fatalf("insert first attempt: %v", err)
	}
	if err := store.InsertAttempt(ctx, &Attempt{
		UserID: "u1", UserName: "Uma", Date: today(),
		GameType: GameTypeFinding, Streak: 3,
	}); err != nil {
		t.Fatalf("insert second attempt: %v", err)
	}

	latest, err := store.LatestAttempt(ctx, "u1")
	if err != nil {
		t.Fatalf("latest attempt: %v", err)
	}
	if latest.GameType != GameTypeFinding {
		t.Fatalf("latest = %s, want the later-inserted finding attempt", latest.GameType)
	}
}

func TestStreakResetsAfterGap(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	store.attempts = append(store.attempts, &Attempt{
		UserID: "u1", UserName: "Uma", Date: "2020-01-01",
		GameType: GameTypeColorMixing, Streak: 7,
	})

	streak, err := svc.Streak(ctx, "u1")
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 0 {
		t.Fatalf("streak = %d, want 0 after a gap", streak)
	}

	attempt, err := svc.RecordAttempt(ctx, Submission{UserID: "u1", UserName: "Uma", FinalScore: 50})
	if err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if attempt.Streak != 1 {
		t.Fatalf("streak = %d, want 1 after a gap", attempt.Streak)
	}
}

func TestStreakNoHistory(t *testing.T) {
	svc, _ := newTestService()
	streak, err := svc.Streak(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 0 {
		t.Fatalf("streak = %d, want 0 with no history", streak)
	}
}

func TestUpsertBestKeepsHigherScore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	improved, err := store.UpsertBest(ctx, &BestEntry{UserID: "u1", UserName: "Uma", Date: today(), GameType: GameTypeColorMixing, Score: 80})
	if err != nil || !improved {
		t.Fatalf("first upsert = %t, %v, want improved", improved, err)
	}
	improved, err = store.UpsertBest(ctx, &BestEntry{UserID: "u1", UserName: "Uma", Date: today(), GameType: GameTypeColorMixing, Score: 60})
	if err != nil || improved {
		t.Fatalf("lower upsert = %t, %v, want no improvement", improved, err)
	}
	best, err := store.GetBest(ctx, today(), GameTypeColorMixing, "u1")
	if err != nil {
		t.Fatalf("get best: %v", err)
	}
	if best.Score != 80 {
		t.Fatalf("best = %d, want 80", best.Score)
	}
}

func TestLeaderboard(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	for _, user := range []struct {
		id    string
		score int
		time  float64
	}{
		{"a", 90, 3.0}, {"b", 90, 2.0}, {"c", 80, 1.0},
		{"d", 79, 1}, {"e", 78, 1}, {"f", 77, 1}, {"g", 76, 1},
		{"h", 75, 1}, {"i", 74, 1}, {"j", 73, 1}, {"k", 72, 1},
	} {
		if _, err := store.UpsertBest(ctx, &BestEntry{
			UserID: user.id, UserName: user.id, Date: today(),
			GameType: GameTypeColorMixing, Score: user.score, TimeTaken: user.time,
		}); err != nil {
			t.Fatalf("seed %s: %v", user.id, err)
		}
	}

	top, userRow, err := svc.Leaderboard(ctx, "", GameTypeColorMixing, "k")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 10 {
		t.Fatalf("top rows = %d, want 10", len(top))
	}
	// Equal scores rank the faster run first.
	if top[0].UserID != "b" || top[1].UserID != "a" {
		t.Fatalf("first two = %s, %s, want b then a", top[0].UserID, top[1].UserID)
	}
	if userRow == nil || userRow.Rank != 11 {
		t.Fatalf("user row = %+v, want rank 11 for k", userRow)
	}
}

func TestExportRanksPerDayAndGameType(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	seed := []BestEntry{
		{UserID: "a", UserName: "A", Date: "2026-08-01", GameType: GameTypeColorMixing, Score: 90},
		{UserID: "b", UserName: "B", Date: "2026-08-01", GameType: GameTypeColorMixing, Score: 95},
		{UserID: "a", UserName: "A", Date: "2026-08-02", GameType: GameTypeColorMixing, Score: 70},
		{UserID: "a", UserName: "A", Date: "2026-08-01", GameType: GameTypeFinding, Score: 50},
	}
	for i := range seed {
		if _, err := store.UpsertBest(ctx, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rows, err := svc.Export(ctx, "2026-08-01", "2026-08-02", GameTypeAll)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if rows[0].UserID != "b" || rows[0].Rank != 1 {
		t.Fatalf("first row = %+v, want b ranked 1", rows[0])
	}
	if rows[1].UserID != "a" || rows[1].Rank != 2 {
		t.Fatalf("second row = %+v, want a ranked 2", rows[1])
	}
	// Ranks restart for the finding group and the next day.
	if rows[2].GameType != GameTypeFinding || rows[2].Rank != 1 {
		t.Fatalf("third row = %+v, want finding ranked 1", rows[2])
	}
	if rows[3].Date != "2026-08-02" || rows[3].Rank != 1 {
		t.Fatalf("fourth row = %+v, want 2026-08-02 ranked 1", rows[3])
	}
}
