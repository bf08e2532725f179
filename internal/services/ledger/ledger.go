// Package ledger implements the owner-gated points ledger: player balances,
// the player counter, the scoring history and their read-only projections.
package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/mcoot/gamepoints/internal/dependencies/clock"
	"github.com/mcoot/gamepoints/internal/keyspace"
	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/notify"
	"github.com/mcoot/gamepoints/internal/storage"
)

// ErrCorruptValue is returned when a stored integer has an unexpected encoding
var ErrCorruptValue = errors.New("stored value is malformed")

// Service owns every read and write of ledger state.
// Balances and the player counter are only mutated by Award and Reset.
type Service struct {
	store    storage.Store
	clock    clock.Clock
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates a new ledger Service
func New(store storage.Store, clock clock.Clock, notifier notify.Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop
	}
	return &Service{
		store:    store,
		clock:    clock,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "ledger")),
	}
}

// Balance returns the player's points, or 0 if the player has none
func (s *Service) Balance(ctx context.Context, player model.Identity) (uint64, error) {
	var balance uint64
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		balance, err = readUint(tx, keyspace.Balance(player))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// PlayerCount returns the number of players holding a nonzero balance
func (s *Service) PlayerCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		count, err = readUint(tx, keyspace.Counter())
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read player count: %w", err)
	}
	return count, nil
}

// Award adds points to a player's balance on behalf of caller, records the
// scoring event in the history and returns the new balance.
// Only the owner may award; points must be positive and the balance must not overflow.
func (s *Service) Award(ctx context.Context, caller, player model.Identity, points uint64, gameID uint32) (uint64, error) {
	record := model.HistoryRecord{
		Player:        player,
		PointsAwarded: points,
		GameID:        gameID,
		Timestamp:     s.now(),
	}
	balanceKey := keyspace.Balance(player)
	historyKey := keyspace.History(player, record.Timestamp, gameID)
	// The counter is only read, and so only watched, when the player is new
	watch := [][]byte{keyspace.Owner(), balanceKey, historyKey}

	var balance uint64
	err := s.store.Update(ctx, watch, func(tx storage.Tx) error {
		if err := requireOwner(tx, caller); err != nil {
			return err
		}
		if points == 0 {
			return model.ErrInvalidAmount
		}

		current, err := readUint(tx, balanceKey)
		if err != nil {
			return err
		}
		next, carry := bits.Add64(current, points, 0)
		if carry != 0 {
			return model.ErrOverflow
		}

		if err := tx.Set(balanceKey, encodeUint(next)); err != nil {
			return err
		}
		if current == 0 {
			if err := adjustCounter(tx, 1); err != nil {
				return err
			}
		}
		if err := appendHistory(tx, historyKey, record); err != nil {
			return err
		}

		balance = next
		return nil
	})
	if err != nil {
		s.logger.Warn("award rejected",
			slog.String("caller", caller.String()),
			slog.String("player", player.String()),
			slog.Uint64("points", points),
			slog.Any("error", err))
		return 0, err
	}

	s.logger.Info("points awarded",
		slog.String("player", player.String()),
		slog.Uint64("points", points),
		slog.Uint64("balance", balance),
		slog.Uint64("game_id", uint64(gameID)))
	s.notifier.Notify(ctx, model.NewAwardEvent(record, balance))

	return balance, nil
}

// Reset removes a player's balance on behalf of caller and returns the prior
// balance. Resetting a player without points succeeds and returns 0.
// A reset notification is emitted in both cases.
func (s *Service) Reset(ctx context.Context, caller, player model.Identity) (uint64, error) {
	balanceKey := keyspace.Balance(player)
	watch := [][]byte{keyspace.Owner(), balanceKey}

	var old uint64
	err := s.store.Update(ctx, watch, func(tx storage.Tx) error {
		if err := requireOwner(tx, caller); err != nil {
			return err
		}

		var err error
		old, err = readUint(tx, balanceKey)
		if err != nil {
			return err
		}
		if old == 0 {
			return nil
		}

		if err := tx.Delete(balanceKey); err != nil {
			return err
		}
		return adjustCounter(tx, -1)
	})
	if err != nil {
		s.logger.Warn("reset rejected",
			slog.String("caller", caller.String()),
			slog.String("player", player.String()),
			slog.Any("error", err))
		return 0, err
	}

	s.logger.Info("points reset",
		slog.String("player", player.String()),
		slog.Uint64("previous", old))
	s.notifier.Notify(ctx, model.NewResetEvent(player, old, s.now()))

	return old, nil
}

func (s *Service) now() uint64 {
	return clock.UnixSeconds(s.clock)
}

// adjustCounter moves the player counter by delta, never below zero
func adjustCounter(tx storage.Tx, delta int) error {
	count, err := readUint(tx, keyspace.Counter())
	if err != nil {
		return err
	}

	switch {
	case delta > 0:
		count++
	case delta < 0 && count > 0:
		count--
	default:
		return nil
	}
	return tx.Set(keyspace.Counter(), encodeUint(count))
}

// readUint decodes an 8-byte big-endian integer; a missing key reads as 0
func readUint(tx storage.Tx, key []byte) (uint64, error) {
	data, err := tx.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: %s key holds %d bytes", ErrCorruptValue, keyspace.KindOf(key), len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

func encodeUint(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}
