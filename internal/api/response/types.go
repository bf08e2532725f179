package response

import (
	"time"

	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/services/auth"
)

// Health is the response for the health check
type Health struct {
	Status string `json:"status"`
}

// Session is the response for login
type Session struct {
	Identity     string    `json:"identity"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionFromAuth converts an auth.Session
func SessionFromAuth(s *auth.Session) Session {
	return Session{
		Identity:     s.Identity.String(),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Ledger describes the ledger as a whole
type Ledger struct {
	Owner       string `json:"owner"`
	PlayerCount uint64 `json:"player_count"`
}

// Balance is a player's current balance
type Balance struct {
	Player  string `json:"player"`
	Balance uint64 `json:"balance"`
}

// PlayerScore represents a player's score in API responses
type PlayerScore struct {
	Player    string `json:"player"`
	Points    uint64 `json:"points"`
	GameID    uint32 `json:"game_id"`
	Timestamp uint64 `json:"timestamp"`
}

// PlayerScoreFromModel converts model.PlayerScore
func PlayerScoreFromModel(s model.PlayerScore) PlayerScore {
	return PlayerScore{
		Player:    s.Player.String(),
		Points:    s.Points,
		GameID:    s.GameID,
		Timestamp: s.Timestamp,
	}
}

// Leaderboard is the response for the leaderboard query
type Leaderboard struct {
	Limit   uint32        `json:"limit"`
	Entries []PlayerScore `json:"entries"`
}

// LeaderboardFromModel converts a slice of model.PlayerScore. Entries is
// never nil so it encodes as [].
func LeaderboardFromModel(limit uint32, scores []model.PlayerScore) Leaderboard {
	entries := make([]PlayerScore, len(scores))
	for i, s := range scores {
		entries[i] = PlayerScoreFromModel(s)
	}
	return Leaderboard{Limit: limit, Entries: entries}
}

// HistoryRecord represents a single scoring event
type HistoryRecord struct {
	Player        string `json:"player"`
	PointsAwarded uint64 `json:"points_awarded"`
	GameID        uint32 `json:"game_id"`
	Timestamp     uint64 `json:"timestamp"`
}

// HistoryRecordFromModel converts model.HistoryRecord
func HistoryRecordFromModel(r *model.HistoryRecord) HistoryRecord {
	return HistoryRecord{
		Player:        r.Player.String(),
		PointsAwarded: r.PointsAwarded,
		GameID:        r.GameID,
		Timestamp:     r.Timestamp,
	}
}

// Award is the response after awarding points
type Award struct {
	Player  string `json:"player"`
	Awarded uint64 `json:"awarded"`
	GameID  uint32 `json:"game_id"`
	Balance uint64 `json:"balance"`
}

// Reset is the response after resetting a player
type Reset struct {
	Player          string `json:"player"`
	PreviousBalance uint64 `json:"previous_balance"`
}
