package model

// GenericGameID is the game id reported by projections that are not tied to
// a specific scoring event
const GenericGameID uint32 = 0

// HistoryRecord is an immutable entry describing one scoring event
type HistoryRecord struct {
	Player        Identity `json:"player"`
	PointsAwarded uint64   `json:"points_awarded"`
	GameID        uint32   `json:"game_id"`
	Timestamp     uint64   `json:"timestamp"` // unix seconds
}

// PlayerScore is a computed view of a player's balance at query time
type PlayerScore struct {
	Player    Identity
	Points    uint64
	GameID    uint32
	Timestamp uint64
}
