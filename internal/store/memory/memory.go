package memory

import (
	"context"
	"sync"
	"time"

	"finplan/internal/core"
	"finplan/internal/store"
)

// Store keeps custom records in process memory.
type Store struct {
	mu          sync.Mutex
	team        []core.TeamMember
	opex        []core.OpexExpense
	deals       []core.WholesaleDeal
	assumptions *core.Assumptions
	updated     map[store.Kind]time.Time
	now         func() time.Time
}

var _ store.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{updated: make(map[store.Kind]time.Time), now: time.Now}
}

func (s *Store) touch(k store.Kind) {
	s.updated[k] = s.now().UTC()
}

func (s *Store) ListTeamMembers(_ context.Context) ([]core.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TeamMember(nil), s.team...), nil
}

func (s *Store) SaveTeamMember(_ context.Context, m core.TeamMember) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.team = store.Upsert(s.team, m)
	s.touch(store.KindTeam)
	return nil
}

func (s *Store) ListOpexExpenses(_ context.Context) ([]core.OpexExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.OpexExpense(nil), s.opex...), nil
}

func (s *Store) SaveOpexExpense(_ context.Context, e core.OpexExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opex = store.Upsert(s.opex, e)
	s.touch(store.KindOpex)
	return nil
}

func (s *Store) ListWholesaleDeals(_ context.Context) ([]core.WholesaleDeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.WholesaleDeal(nil), s.deals...), nil
}

func (s *Store) SaveWholesaleDeal(_ context.Context, d core.WholesaleDeal) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals = store.Upsert(s.deals, d)
	s.touch(store.KindWholesale)
	return nil
}

func (s *Store) LoadAssumptions(_ context.Context) (core.Assumptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assumptions == nil {
		return core.Assumptions{}, store.ErrNotFound
	}
	return *s.assumptions, nil
}

func (s *Store) SaveAssumptions(_ context.Context, a core.Assumptions) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assumptions = &a
	s.touch(store.KindAssumptions)
	return nil
}

func (s *Store) ClearCustom(_ context.Context, kind store.Kind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	switch kind {
	case store.KindTeam:
		n, s.team = len(s.team), nil
	case store.KindOpex:
		n, s.opex = len(s.opex), nil
	case store.KindWholesale:
		n, s.deals = len(s.deals), nil
	case store.KindAssumptions:
		if s.assumptions != nil {
			n = 1
		}
		s.assumptions = nil
	default:
		return 0, store.ErrUnknownKind
	}
	s.touch(kind)
	return n, nil
}

func (s *Store) LastUpdated(_ context.Context, kind store.Kind) (time.Time, error) {
	if !kind.IsValid() {
		return time.Time{}, store.ErrUnknownKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated[kind], nil
}
