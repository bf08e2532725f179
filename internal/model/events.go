package model

// EventType identifies the type of event
type EventType string

// EventCategoryPoints is the fixed category every ledger notification carries
const EventCategoryPoints = "POINTS"

const (
	EventPointsAwarded EventType = "points.awarded"
	EventPointsReset   EventType = "points.reset"
)

// Event is a notification emitted after a ledger mutation commits.
// It is observable by monitors but never stored by the ledger.
type Event struct {
	Category  string    `json:"category"`
	Type      EventType `json:"type"`
	Player    Identity  `json:"player"`
	Points    uint64    `json:"points"` // awarded amount, or prior balance for resets
	Balance   uint64    `json:"balance"`
	GameID    uint32    `json:"game_id,omitempty"`
	Timestamp uint64    `json:"timestamp"`
}

// NewResetEvent builds the notification for a reset of player whose prior balance was old
func NewResetEvent(player Identity, old uint64, timestamp uint64) Event {
	return Event{
		Category:  EventCategoryPoints,
		Type:      EventPointsReset,
		Player:    player,
		Points:    old,
		Balance:   0,
		Timestamp: timestamp,
	}
}

// NewAwardEvent builds the notification for an award that moved player to balance
func NewAwardEvent(record HistoryRecord, balance uint64) Event {
	return Event{
		Category:  EventCategoryPoints,
		Type:      EventPointsAwarded,
		Player:    record.Player,
		Points:    record.PointsAwarded,
		Balance:   balance,
		GameID:    record.GameID,
		Timestamp: record.Timestamp,
	}
}
