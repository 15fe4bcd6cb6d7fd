package share

import (
	"context"
	"fmt"
	"sync"

	"github.com/chainlens-app/chainlens/viewer/entity"
)

// State is the deep-link resolution state. Every token reaches a terminal
// state in one pass; terminal outcomes are cached and never re-fetched.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateResolvedAddress
	StateResolvedTransaction
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateResolvedAddress:
		return "resolved_address"
	case StateResolvedTransaction:
		return "resolved_transaction"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ResolveClient is the slice of the backend client the resolver needs.
type ResolveClient interface {
	Resolve(ctx context.Context, token string, sess Session) (Resolution, error)
}

// Resolver turns inbound opaque share tokens into entity references. It is
// the dual of Client.Generate. Resolution is idempotent per token: the
// terminal outcome is cached, so invoking Resolve twice with the same token
// issues exactly one backend call. Failed outcomes are terminal too; they
// are not retried automatically.
type Resolver struct {
	client ResolveClient

	mu       sync.Mutex
	outcomes map[string]*resolution
}

type resolution struct {
	once  sync.Once
	state State
	ref   entity.Ref
	err   error
}

// maxCachedOutcomes bounds the outcome cache. Tokens arrive from callers,
// so an unbounded map would let arbitrary inputs grow process memory; at
// capacity the cache resets, trading a re-fetch for a bound.
const maxCachedOutcomes = 4096

// NewResolver creates a resolver over the given backend client.
func NewResolver(client ResolveClient) *Resolver {
	return &Resolver{
		client:   client,
		outcomes: make(map[string]*resolution),
	}
}

// Resolve exchanges the opaque token for a routed entity reference. The
// caller is expected to bound the call with a context timeout; on expiry the
// outcome is Failed. An empty token never leaves Idle.
func (r *Resolver) Resolve(ctx context.Context, token string, sess Session) (entity.Ref, State, error) {
	if token == "" {
		return entity.Ref{}, StateIdle, fmt.Errorf("%w: empty share token", entity.ErrInvalidInput)
	}

	r.mu.Lock()
	res, ok := r.outcomes[token]
	if !ok {
		if len(r.outcomes) >= maxCachedOutcomes {
			r.outcomes = make(map[string]*resolution)
		}
		res = &resolution{state: StateResolving}
		r.outcomes[token] = res
	}
	r.mu.Unlock()

	res.once.Do(func() {
		res.ref, res.state, res.err = r.resolveOnce(ctx, token, sess)
	})

	return res.ref, res.state, res.err
}

func (r *Resolver) resolveOnce(ctx context.Context, token string, sess Session) (entity.Ref, State, error) {
	resolved, err := r.client.Resolve(ctx, token, sess)
	if err != nil {
		log.Warn().Err(err).Msg("Deep link resolution failed")
		return entity.Ref{}, StateFailed, err
	}

	kind, err := entity.KindForHash(resolved.Hash)
	if err != nil {
		log.Warn().Str("hash", resolved.Hash).Msg("Share backend returned a hash of unexpected shape")
		return entity.Ref{}, StateFailed, err
	}

	ref := entity.Ref{NetworkID: resolved.ChainID, Kind: kind, Hash: resolved.Hash}

	state := StateResolvedAddress
	if kind == entity.KindTransaction {
		state = StateResolvedTransaction
	}

	log.Info().
		Int64("network", ref.NetworkID).
		Str("kind", kind.String()).
		Msg("Resolved deep link")
	return ref, state, nil
}
