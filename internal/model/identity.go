package model

// Identity identifies a caller or a player account. The ledger treats it as
// an opaque value; the same space is used for the owner and for players.
type Identity string

// IsZero reports whether the identity is empty
func (i Identity) IsZero() bool {
	return i == ""
}

func (i Identity) String() string {
	return string(i)
}
