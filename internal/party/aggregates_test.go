package party

import (
	"reflect"
	"testing"
)

func TestComputeAggregates(t *testing.T) {
	agg := computeAggregates([]Score{
		{PlayerID: "p1", Score: 80, RoundNumber: 1},
		{PlayerID: "p1", Score: 60, RoundNumber: 2},
	})
	if agg.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", agg.Attempts)
	}
	if agg.BestScore != 80 {
		t.Fatalf("best score = %d, want 80", agg.BestScore)
	}
	if agg.SessionScore != 70.00 {
		t.Fatalf("session score = %.2f, want 70.00", agg.SessionScore)
	}
	if !reflect.DeepEqual(agg.RoundScores, []int{80, 60}) {
		t.Fatalf("round scores = %v, want [80 60]", agg.RoundScores)
	}
}

func TestComputeAggregatesEmpty(t *testing.T) {
	agg := computeAggregates(nil)
	if agg.Attempts != 0 || agg.BestScore != 0 || agg.SessionScore != 0 {
		t.Fatalf("zero history should produce zero aggregates, got %+v", agg)
	}
}

func TestComputeAggregatesRounding(t *testing.T) {
	agg := computeAggregates([]Score{
		{Score: 85}, {Score: 80}, {Score: 82},
	})
	// 247/3 = 82.333..., rounded to two decimals.
	if agg.SessionScore != 82.33 {
		t.Fatalf("session score = %v, want 82.33", agg.SessionScore)
	}
}

func TestComputeLeaderboardOrdering(t *testing.T) {
	entries := computeLeaderboard([]Score{
		{PlayerID: "alice", PlayerName: "Alice", Score: 80, TimeTaken: 5, RoundNumber: 1},
		{PlayerID: "bob", PlayerName: "Bob", Score: 90, TimeTaken: 6, RoundNumber: 1},
		{PlayerID: "alice", PlayerName: "Alice", Score: 80, TimeTaken: 5, RoundNumber: 2},
		{PlayerID: "bob", PlayerName: "Bob", Score: 75, TimeTaken: 4, RoundNumber: 2},
	})
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].PlayerID != "bob" || entries[0].AverageScore != 82.5 {
		t.Fatalf("first = %s avg %.2f, want bob 82.50", entries[0].PlayerID, entries[0].AverageScore)
	}
	if entries[1].PlayerID != "alice" || entries[1].AverageScore != 80.0 {
		t.Fatalf("second = %s avg %.2f, want alice 80.00", entries[1].PlayerID, entries[1].AverageScore)
	}
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Fatalf("ranks = %d, %d, want 1, 2", entries[0].Rank, entries[1].Rank)
	}
}

func TestComputeLeaderboardLateJoinerNotPenalized(t *testing.T) {
	// One perfect round beats two mediocre ones: the ranking uses the
	// per-round average, not the total.
	entries := computeLeaderboard([]Score{
		{PlayerID: "early", PlayerName: "Early", Score: 70, RoundNumber: 1},
		{PlayerID: "early", PlayerName: "Early", Score: 70, RoundNumber: 2},
		{PlayerID: "late", PlayerName: "Late", Score: 95, RoundNumber: 2},
	})
	if entries[0].PlayerID != "late" {
		t.Fatalf("first = %s, want late", entries[0].PlayerID)
	}
	if entries[0].TotalScore != 95 || entries[1].TotalScore != 140 {
		t.Fatalf("totals = %d, %d, want 95, 140", entries[0].TotalScore, entries[1].TotalScore)
	}
}

func TestComputeLeaderboardTieBreaks(t *testing.T) {
	entries := computeLeaderboard([]Score{
		{PlayerID: "slow", PlayerName: "Slow", Score: 80, TimeTaken: 12.5},
		{PlayerID: "fast", PlayerName: "Fast", Score: 80, TimeTaken: 3.1},
	})
	if entries[0].PlayerID != "fast" {
		t.Fatalf("equal averages should rank the faster player first, got %s", entries[0].PlayerID)
	}

	// Identical score and time falls back to player id.
	entries = computeLeaderboard([]Score{
		{PlayerID: "b", Score: 50, TimeTaken: 2},
		{PlayerID: "a", Score: 50, TimeTaken: 2},
	})
	if entries[0].PlayerID != "a" {
		t.Fatalf("full tie should rank by player id, got %s", entries[0].PlayerID)
	}
}

func TestPromoteDenner(t *testing.T) {
	got := promoteDenner([]string{"host", "b", "c"}, "host", "b")
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("promoteDenner = %v, want %v", got, want)
	}

	// Promoting a player not yet in the rotation prepends them.
	got = promoteDenner([]string{"host"}, "host", "d")
	if !reflect.DeepEqual(got, []string{"d"}) {
		t.Fatalf("promoteDenner = %v, want [d]", got)
	}
}
