package party

import (
	"math"
	"sort"
)

// PlayerAggregates is the derived per-player session state persisted onto the
// Player record after every score write.
type PlayerAggregates struct {
	Attempts     int
	BestScore    int
	SessionScore float64
	RoundScores  []int
}

// LeaderboardEntry is one ranked row of the session leaderboard.
type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	PlayerID     string  `json:"id"`
	PlayerName   string  `json:"name"`
	SessionScore float64 `json:"sessionScore"`
	AverageScore float64 `json:"averageScore"`
	TotalScore   int     `json:"totalScore"`
	TotalTime    float64 `json:"totalTime"`
	RoundScores  []int   `json:"roundScores"`
}

// computeAggregates derives a player's session aggregates from their full
// score history, ordered by round sequence. It is recomputed from scratch
// after each write so concurrent submissions cannot drift the aggregates
// away from the raw rows.
func computeAggregates(scores []Score) PlayerAggregates {
	agg := PlayerAggregates{RoundScores: make([]int, 0, len(scores))}
	total := 0
	for _, s := range scores {
		agg.RoundScores = append(agg.RoundScores, s.Score)
		total += s.Score
		if s.Score > agg.BestScore {
			agg.BestScore = s.Score
		}
	}
	agg.Attempts = len(scores)
	if agg.Attempts > 0 {
		agg.SessionScore = round2(float64(total) / float64(agg.Attempts))
	}
	return agg
}

// computeLeaderboard groups a room's scores by player and ranks by average
// score descending. Ranking by average rather than total is deliberate:
// players who joined late are not penalized for having fewer rounds. Ties
// break on total time taken ascending, then player id.
func computeLeaderboard(scores []Score) []LeaderboardEntry {
	byPlayer := make(map[string]*LeaderboardEntry)
	order := make([]string, 0)
	for _, s := range scores {
		entry, ok := byPlayer[s.PlayerID]
		if !ok {
			entry = &LeaderboardEntry{
				PlayerID:   s.PlayerID,
				PlayerName: s.PlayerName,
			}
			byPlayer[s.PlayerID] = entry
			order = append(order, s.PlayerID)
		}
		entry.TotalScore += s.Score
		entry.TotalTime += s.TimeTaken
		entry.RoundScores = append(entry.RoundScores, s.Score)
	}

	entries := make([]LeaderboardEntry, 0, len(byPlayer))
	for _, id := range order {
		entry := byPlayer[id]
		entry.AverageScore = round2(float64(entry.TotalScore) / float64(len(entry.RoundScores)))
		entry.SessionScore = entry.AverageScore
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AverageScore != entries[j].AverageScore {
			return entries[i].AverageScore > entries[j].AverageScore
		}
		if entries[i].TotalTime != entries[j].TotalTime {
			return entries[i].TotalTime < entries[j].TotalTime
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
