package ledger

import (
	"context"

	"github.com/mcoot/gamepoints/internal/model"
)

// PlayerInfo returns the player's current balance stamped with the query time
func (s *Service) PlayerInfo(ctx context.Context, player model.Identity) (model.PlayerScore, error) {
	points, err := s.Balance(ctx, player)
	if err != nil {
		return model.PlayerScore{}, err
	}
	return model.PlayerScore{
		Player:    player,
		Points:    points,
		GameID:    model.GenericGameID,
		Timestamp: s.now(),
	}, nil
}

// Leaderboard returns no entries. The ledger keeps no index ordered by
// balance, so ranking is not provided; limit is accepted for compatibility.
func (s *Service) Leaderboard(_ context.Context, _ uint32) ([]model.PlayerScore, error) {
	return []model.PlayerScore{}, nil
}
