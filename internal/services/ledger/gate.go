package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/mcoot/gamepoints/internal/keyspace"
	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/storage"
)

// Owner returns the stored owner identity
func (s *Service) Owner(ctx context.Context) (model.Identity, error) {
	var owner model.Identity
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		owner, err = readOwner(tx)
		return err
	})
	if err != nil {
		return "", err
	}
	return owner, nil
}

// SetOwner records the ledger owner. It may succeed at most once over the
// lifetime of the store; later calls fail with ErrOwnerAlreadySet.
func (s *Service) SetOwner(ctx context.Context, owner model.Identity) error {
	if owner.IsZero() {
		return model.ErrInvalidIdentity
	}

	return s.store.Update(ctx, [][]byte{keyspace.Owner()}, func(tx storage.Tx) error {
		_, err := readOwner(tx)
		if err == nil {
			return model.ErrOwnerAlreadySet
		}
		if !errors.Is(err, model.ErrOwnerNotSet) {
			return err
		}
		return tx.Set(keyspace.Owner(), []byte(owner))
	})
}

// EnsureOwner sets the owner when none is stored and accepts an identical
// existing owner, so deployments can restart against a durable store.
// A different stored owner is never replaced.
func (s *Service) EnsureOwner(ctx context.Context, owner model.Identity) error {
	if owner.IsZero() {
		return model.ErrInvalidIdentity
	}

	return s.store.Update(ctx, [][]byte{keyspace.Owner()}, func(tx storage.Tx) error {
		existing, err := readOwner(tx)
		switch {
		case err == nil && existing == owner:
			return nil
		case err == nil:
			return fmt.Errorf("%w: stored owner is %q", model.ErrOwnerAlreadySet, existing)
		case errors.Is(err, model.ErrOwnerNotSet):
			return tx.Set(keyspace.Owner(), []byte(owner))
		default:
			return err
		}
	})
}

// RequireOwner fails with ErrUnauthorized unless caller is the stored owner
func (s *Service) RequireOwner(ctx context.Context, caller model.Identity) error {
	return s.store.View(ctx, func(tx storage.Tx) error {
		return requireOwner(tx, caller)
	})
}

// requireOwner is the gate every mutating operation calls first, inside its
// own transaction so the owner cannot change between check and write
func requireOwner(tx storage.Tx, caller model.Identity) error {
	owner, err := tx.Get(keyspace.Owner())
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", model.ErrUnauthorized, model.ErrOwnerNotSet)
	}
	if err != nil {
		return err
	}
	if caller.IsZero() || !bytes.Equal(owner, []byte(caller)) {
		return model.ErrUnauthorized
	}
	return nil
}

func readOwner(tx storage.Tx) (model.Identity, error) {
	data, err := tx.Get(keyspace.Owner())
	if errors.Is(err, storage.ErrNotFound) {
		return "", model.ErrOwnerNotSet
	}
	if err != nil {
		return "", err
	}
	return model.Identity(data), nil
}
