package ledger

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mcoot/gamepoints/internal/keyspace"
	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/storage"
)

// appendHistory stores a scoring event. Records are never modified or
// removed; a second record with the same (player, timestamp, game) key
// replaces the first.
func appendHistory(tx storage.Tx, key []byte, record model.HistoryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return tx.Set(key, data)
}

// Record returns the history record for (player, timestamp, gameID)
func (s *Service) Record(ctx context.Context, player model.Identity, timestamp uint64, gameID uint32) (*model.HistoryRecord, error) {
	var record model.HistoryRecord
	err := s.store.View(ctx, func(tx storage.Tx) error {
		data, err := tx.Get(keyspace.History(player, timestamp, gameID))
		if errors.Is(err, storage.ErrNotFound) {
			return model.ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}
