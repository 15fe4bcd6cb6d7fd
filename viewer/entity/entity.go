// Package entity classifies raw user input into chain-scoped entity
// references. Classification is purely syntactic; existence on chain is
// confirmed only by the subsequent explorer fetch.
package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Hash lengths including the 0x prefix: 20 raw bytes for an address,
// 32 for a transaction.
const (
	AddressHashLen     = 42
	TransactionHashLen = 66
)

// ErrInvalidInput marks a raw identifier that is neither an address nor a
// transaction hash. It is user-correctable.
var ErrInvalidInput = errors.New("invalid entity input")

// Kind distinguishes the two entity types an explorer can resolve.
type Kind int

const (
	KindAddress Kind = iota + 1
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Ref is a fully routed entity reference: which network, which kind of
// entity, and its hash. It is never persisted.
type Ref struct {
	NetworkID int64
	Kind      Kind
	Hash      string
}

// Classify routes a raw string to an entity kind on the given network.
// The rule: strip surrounding whitespace, require a 0x prefix, then length 42
// is an address and length 66 is a transaction.
func Classify(networkID int64, input string) (Ref, error) {
	hash := strings.TrimSpace(input)
	if !strings.HasPrefix(hash, "0x") {
		return Ref{}, fmt.Errorf("%w: missing 0x prefix", ErrInvalidInput)
	}

	kind, err := KindForHash(hash)
	if err != nil {
		return Ref{}, err
	}

	return Ref{NetworkID: networkID, Kind: kind, Hash: hash}, nil
}

// KindForHash derives the entity kind from the hash length alone. The share
// backend returns bare hashes, so resolution re-derives the kind this way.
func KindForHash(hash string) (Kind, error) {
	switch len(hash) {
	case AddressHashLen:
		return KindAddress, nil
	case TransactionHashLen:
		return KindTransaction, nil
	default:
		return 0, fmt.Errorf("%w: length %d is neither an address nor a transaction hash", ErrInvalidInput, len(hash))
	}
}
