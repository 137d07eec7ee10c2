package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Store persists sessions by actor key. Get returns ErrNotStarted when the
// key holds nothing; Delete on a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (*Session, error)
	Put(ctx context.Context, key string, s *Session) error
	Delete(ctx context.Context, key string) error
}

// Machine drives sessions kept in a Store. Each key is expected to be used
// by one actor at a time, so Machine does not serialise calls per key.
type Machine struct {
	store Store
	size  int

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Machine)

// WithSize overrides DefaultSize.
func WithSize(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.size = n
		}
	}
}

// WithRand makes sampling deterministic, mostly for tests.
func WithRand(r *rand.Rand) Option {
	return func(m *Machine) { m.rng = r }
}

func NewMachine(store Store, opts ...Option) *Machine {
	now := uint64(time.Now().UnixNano())
	m := &Machine{
		store: store,
		size:  DefaultSize,
		rng:   rand.New(rand.NewPCG(now, now>>1|1)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin replaces whatever the key held with a fresh session drawn from ids.
// An empty ids slice yields an empty, already terminal session.
func (m *Machine) Begin(ctx context.Context, key string, ids []QuestionID) (*Session, error) {
	m.mu.Lock()
	s := NewSession(ids, m.size, m.rng)
	m.mu.Unlock()

	if err := m.store.Put(ctx, key, s); err != nil {
		return nil, fmt.Errorf("save quiz session: %w", err)
	}
	return s.Clone(), nil
}

// Status returns the state of the key and a copy of its session, if any.
func (m *Machine) Status(ctx context.Context, key string) (State, *Session, error) {
	s, err := m.store.Get(ctx, key)
	if errors.Is(err, ErrNotStarted) {
		return NotStarted, nil, nil
	}
	if err != nil {
		return NotStarted, nil, err
	}
	return s.State(), s, nil
}

func (m *Machine) Current(ctx context.Context, key string) (QuestionID, error) {
	s, err := m.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return s.Current()
}

// Reveal looks up the same question as Current. It exists as its own step
// so front-ends can show the answer without touching the counters.
func (m *Machine) Reveal(ctx context.Context, key string) (QuestionID, error) {
	return m.Current(ctx, key)
}

// Step returns the question at position n, which must be the cursor.
func (m *Machine) Step(ctx context.Context, key string, n int) (QuestionID, error) {
	s, err := m.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return s.At(n)
}

func (m *Machine) Mark(ctx context.Context, key string, answered bool) (Transition, error) {
	s, err := m.store.Get(ctx, key)
	if err != nil {
		return Transition{}, err
	}
	return m.mark(ctx, key, s, answered)
}

// MarkAt is Mark guarded by a position check, so a replayed request for an
// index that was already marked fails instead of counting twice.
func (m *Machine) MarkAt(ctx context.Context, key string, n int, answered bool) (Transition, error) {
	s, err := m.store.Get(ctx, key)
	if err != nil {
		return Transition{}, err
	}
	if s.State() == Finished && len(s.OrderedIDs) > 0 {
		return Transition{}, ErrFinished
	}
	if _, err := s.At(n); err != nil {
		return Transition{}, err
	}
	return m.mark(ctx, key, s, answered)
}

func (m *Machine) mark(ctx context.Context, key string, s *Session, answered bool) (Transition, error) {
	t, err := s.Mark(answered)
	if err != nil {
		return Transition{}, err
	}
	if err := m.store.Put(ctx, key, s); err != nil {
		return Transition{}, fmt.Errorf("save quiz session: %w", err)
	}
	return t, nil
}

// Finish drains a terminal session: it returns the result and forgets the key.
func (m *Machine) Finish(ctx context.Context, key string) (Result, error) {
	s, err := m.store.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if s.State() != Finished {
		return Result{}, ErrNotFinished
	}
	if err := m.store.Delete(ctx, key); err != nil {
		return Result{}, fmt.Errorf("delete quiz session: %w", err)
	}
	return s.Result(), nil
}

// Reset forgets the key. Resetting a key with no session is a no-op.
func (m *Machine) Reset(ctx context.Context, key string) error {
	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete quiz session: %w", err)
	}
	return nil
}
