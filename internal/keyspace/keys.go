// Package keyspace maps ledger entities to storage keys.
//
// Every key starts with a single tag byte naming the entity kind, followed by
// the serialized parameters of that entity. Keys of different kinds therefore
// never collide, whatever their parameters.
package keyspace

import (
	"encoding/binary"

	"github.com/mcoot/gamepoints/internal/model"
)

// Kind identifies the entity a key addresses
type Kind byte

const (
	KindUnknown Kind = 0x00
	KindOwner   Kind = 0x01
	KindBalance Kind = 0x02
	KindCounter Kind = 0x03
	KindHistory Kind = 0x04
)

func (k Kind) String() string {
	switch k {
	case KindOwner:
		return "owner"
	case KindBalance:
		return "balance"
	case KindCounter:
		return "counter"
	case KindHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Owner returns the key of the owner record
func Owner() []byte {
	return []byte{byte(KindOwner)}
}

// Counter returns the key of the player counter
func Counter() []byte {
	return []byte{byte(KindCounter)}
}

// Balance returns the key of a player's balance
func Balance(player model.Identity) []byte {
	key := make([]byte, 0, 1+len(player))
	key = append(key, byte(KindBalance))
	return append(key, player...)
}

// History returns the key of the history record for (player, timestamp, gameID).
// The player is length-prefixed so the tuple encoding is injective.
func History(player model.Identity, timestamp uint64, gameID uint32) []byte {
	key := make([]byte, 0, 1+binary.MaxVarintLen64+len(player)+8+4)
	key = append(key, byte(KindHistory))
	key = binary.AppendUvarint(key, uint64(len(player)))
	key = append(key, player...)
	key = binary.BigEndian.AppendUint64(key, timestamp)
	return binary.BigEndian.AppendUint32(key, gameID)
}

// KindOf returns the entity kind a key addresses
func KindOf(key []byte) Kind {
	if len(key) == 0 {
		return KindUnknown
	}
	switch k := Kind(key[0]); k {
	case KindOwner, KindBalance, KindCounter, KindHistory:
		return k
	default:
		return KindUnknown
	}
}
