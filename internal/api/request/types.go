package request

import "encoding/json"

// LoginRequest is the request body for opening a session
type LoginRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

// AwardRequest is the request body for awarding points.
// Points is kept as a json.Number so values above 2^53 and negative
// numbers can be told apart from malformed input.
type AwardRequest struct {
	Points json.Number `json:"points"`
	GameID uint32      `json:"game_id"`
}
