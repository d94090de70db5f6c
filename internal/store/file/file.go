// Package file stores custom records as JSON documents in a directory, one
// file per collection, each wrapped in an envelope with a last_updated
// timestamp.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"finplan/internal/core"
	"finplan/internal/store"

	json "github.com/goccy/go-json"
)

var fileNames = map[store.Kind]string{
	store.KindTeam:        "custom_team_members.json",
	store.KindOpex:        "custom_opex_expenses.json",
	store.KindWholesale:   "custom_wholesale_deals.json",
	store.KindAssumptions: "model_assumptions.json",
}

type (
	teamDoc struct {
		Members     []core.TeamMember `json:"custom_team_members"`
		LastUpdated time.Time         `json:"last_updated"`
	}
	opexDoc struct {
		Expenses    []core.OpexExpense `json:"custom_expenses"`
		LastUpdated time.Time          `json:"last_updated"`
	}
	wholesaleDoc struct {
		Deals       []core.WholesaleDeal `json:"custom_deals"`
		LastUpdated time.Time            `json:"last_updated"`
	}
	assumptionsDoc struct {
		Assumptions *core.Assumptions `json:"assumptions"`
		LastUpdated time.Time         `json:"last_updated"`
	}
)

// Store is a directory of JSON documents. A single mutex serialises all
// reads and writes from this process.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

var _ store.RecordStore = (*Store)(nil)

// New creates dir if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

func (s *Store) path(k store.Kind) string {
	return filepath.Join(s.dir, fileNames[k])
}

// read decodes the document for k into v. A missing file leaves v untouched.
func (s *Store) read(k store.Kind, v any) error {
	b, err := os.ReadFile(s.path(k))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", fileNames[k], err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", fileNames[k], err)
	}
	return nil
}

// write replaces the document for k atomically.
func (s *Store) write(k store.Kind, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", fileNames[k], err)
	}
	tmp, err := os.CreateTemp(s.dir, fileNames[k]+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", fileNames[k], err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", fileNames[k], err)
	}
	return os.Rename(tmp.Name(), s.path(k))
}

func (s *Store) ListTeamMembers(_ context.Context) ([]core.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc teamDoc
	err := s.read(store.KindTeam, &doc)
	return doc.Members, err
}

func (s *Store) SaveTeamMember(_ context.Context, m core.TeamMember) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc teamDoc
	if err := s.read(store.KindTeam, &doc); err != nil {
		return err
	}
	doc.Members = store.Upsert(doc.Members, m)
	doc.LastUpdated = s.now().UTC()
	return s.write(store.KindTeam, doc)
}

func (s *Store) ListOpexExpenses(_ context.Context) ([]core.OpexExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc opexDoc
	err := s.read(store.KindOpex, &doc)
	return doc.Expenses, err
}

func (s *Store) SaveOpexExpense(_ context.Context, e core.OpexExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc opexDoc
	if err := s.read(store.KindOpex, &doc); err != nil {
		return err
	}
	doc.Expenses = store.Upsert(doc.Expenses, e)
	doc.LastUpdated = s.now().UTC()
	return s.write(store.KindOpex, doc)
}

func (s *Store) ListWholesaleDeals(_ context.Context) ([]core.WholesaleDeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc wholesaleDoc
	err := s.read(store.KindWholesale, &doc)
	return doc.Deals, err
}

func (s *Store) SaveWholesaleDeal(_ context.Context, d core.WholesaleDeal) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc wholesaleDoc
	if err := s.read(store.KindWholesale, &doc); err != nil {
		return err
	}
	doc.Deals = store.Upsert(doc.Deals, d)
	doc.LastUpdated = s.now().UTC()
	return s.write(store.KindWholesale, doc)
}

func (s *Store) LoadAssumptions(_ context.Context) (core.Assumptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc assumptionsDoc
	if err := s.read(store.KindAssumptions, &doc); err != nil {
		return core.Assumptions{}, err
	}
	if doc.Assumptions == nil {
		return core.Assumptions{}, store.ErrNotFound
	}
	return *doc.Assumptions, nil
}

func (s *Store) SaveAssumptions(_ context.Context, a core.Assumptions) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(store.KindAssumptions, assumptionsDoc{Assumptions: &a, LastUpdated: s.now().UTC()})
}

// ClearCustom deletes the collection's file.
func (s *Store) ClearCustom(ctx context.Context, kind store.Kind) (int, error) {
	if !kind.IsValid() {
		return 0, store.ErrUnknownKind
	}
	var n int
	switch kind {
	case store.KindTeam:
		list, err := s.ListTeamMembers(ctx)
		if err != nil {
			return 0, err
		}
		n = len(list)
	case store.KindOpex:
		list, err := s.ListOpexExpenses(ctx)
		if err != nil {
			return 0, err
		}
		n = len(list)
	case store.KindWholesale:
		list, err := s.ListWholesaleDeals(ctx)
		if err != nil {
			return 0, err
		}
		n = len(list)
	case store.KindAssumptions:
		if _, err := s.LoadAssumptions(ctx); err == nil {
			n = 1
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(kind)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("remove %s: %w", fileNames[kind], err)
	}
	return n, nil
}

// LastUpdated reads the envelope timestamp. A missing file is never written.
func (s *Store) LastUpdated(_ context.Context, kind store.Kind) (time.Time, error) {
	if !kind.IsValid() {
		return time.Time{}, store.ErrUnknownKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var env struct {
		LastUpdated time.Time `json:"last_updated"`
	}
	if err := s.read(kind, &env); err != nil {
		return time.Time{}, err
	}
	return env.LastUpdated, nil
}
