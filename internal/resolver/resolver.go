// Package resolver holds the counterparty lookup that gates cross-user
// transfers. A transfer may only reference an account number the user has
// looked up and confirmed; any edit to the number text discards the prior
// result, so a confirmed counterparty can never silently drift from what is
// submitted.
package resolver

import (
	"context"
	"log/slog"
	"sync"

	"github.com/finch-bank/finchctl/internal/domain"
)

// State is the resolver's position in its lookup machine.
type State int

const (
	// StateIdle means no lookup has run for the current number text.
	StateIdle State = iota
	// StateLookingUp means a lookup is in flight.
	StateLookingUp
	// StateFound means the counterparty resolved and is awaiting confirmation.
	StateFound
	// StateNotFound means the lookup completed with no match. A miss is
	// expected user behavior, not a system error.
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateLookingUp:
		return "looking_up"
	case StateFound:
		return "found"
	case StateNotFound:
		return "not_found"
	default:
		return "idle"
	}
}

// AccountLookup resolves an account number to its owner.
type AccountLookup interface {
	LookupAccountNumber(ctx context.Context, accountNumber string) (*domain.LookupResult, error)
}

// Resolver drives one cross-user-transfer form session.
type Resolver struct {
	lookup AccountLookup
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	number     string
	result     *domain.LookupResult
	generation uint64
}

// New creates an idle resolver.
func New(lookup AccountLookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// State returns the current machine position.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetNumber records the counterparty account-number text. Any change
// invalidates a prior lookup: the machine drops back to idle and a lookup
// still in flight is ignored when it arrives.
func (r *Resolver) SetNumber(number string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if number == r.number {
		return
	}
	r.number = number
	r.result = nil
	r.state = StateIdle
	r.generation++
}

// Lookup resolves the current number. A not-found response settles the
// machine on StateNotFound and returns nil; other failures reset to idle and
// surface the classified error.
func (r *Resolver) Lookup(ctx context.Context) (*domain.LookupResult, error) {
	r.mu.Lock()
	number := r.number
	if number == "" {
		r.mu.Unlock()
		return nil, domain.ErrLookupNotConfirmed
	}
	r.state = StateLookingUp
	gen := r.generation
	r.mu.Unlock()

	result, err := r.lookup.LookupAccountNumber(ctx, number)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen {
		// The number changed while the lookup was in flight; the result no
		// longer describes what the user typed.
		r.logger.Debug("stale lookup result discarded", "number", number)
		return nil, nil
	}

	if err != nil {
		if domain.ErrorKindOf(err) == domain.ErrKindNotFound {
			r.state = StateNotFound
			return nil, nil
		}
		r.state = StateIdle
		return nil, err
	}

	r.result = result
	r.state = StateFound
	return result, nil
}

// Confirmed returns the resolved counterparty, which is the only account
// number a cross-user transfer is allowed to reference. It fails unless the
// machine is in StateFound for the current number text.
func (r *Resolver) Confirmed() (*domain.LookupResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateFound || r.result == nil {
		return nil, domain.ErrLookupNotConfirmed
	}
	return r.result, nil
}

// Reset clears the session, as when the transfer form is dismissed.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.number = ""
	r.result = nil
	r.state = StateIdle
	r.generation++
}
