// Package adapters layers the baseline dataset over a custom record store.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finplan/internal/baseline"
	"finplan/internal/core"
	"finplan/internal/store"
)

// BaselineStore presents baseline plus custom records as one store.
// Lists return baseline records first, then custom records. Writes go to
// the wrapped store and are refused when they would shadow a baseline
// record.
type BaselineStore struct {
	custom      store.RecordStore
	base        baseline.Dataset
	assumptions core.Assumptions
	keys        map[store.Kind]map[string]bool
	ids         map[string]bool
}

var _ store.RecordStore = (*BaselineStore)(nil)

func NewBaselineStore(custom store.RecordStore, base baseline.Dataset) *BaselineStore {
	b := &BaselineStore{
		custom:      custom,
		base:        base,
		assumptions: baseline.DefaultAssumptions(),
		keys: map[store.Kind]map[string]bool{
			store.KindTeam:      {},
			store.KindOpex:      {},
			store.KindWholesale: {},
		},
		ids: map[string]bool{},
	}
	for _, m := range base.Team {
		b.keys[store.KindTeam][m.Key()] = true
		b.ids[m.ID] = true
	}
	for _, e := range base.Opex {
		b.keys[store.KindOpex][e.Key()] = true
		b.ids[e.ID] = true
	}
	for _, d := range base.Wholesale {
		b.keys[store.KindWholesale][d.Key()] = true
		b.ids[d.ID] = true
	}
	return b
}

// Custom returns the wrapped store.
func (b *BaselineStore) Custom() store.RecordStore {
	return b.custom
}

func (b *BaselineStore) shadows(kind store.Kind, key string) error {
	if b.keys[kind][key] {
		return fmt.Errorf("%s %q is a baseline record: %w", kind, key, store.ErrDuplicate)
	}
	return nil
}

type record interface {
	RecordID() string
	IsBaseline() bool
}

// merge appends the custom records to the baseline, skipping copies of
// baseline records that a store may hold from an earlier export.
func merge[T record](base, custom []T, ids map[string]bool) []T {
	out := make([]T, 0, len(base)+len(custom))
	out = append(out, base...)
	for _, c := range custom {
		if c.IsBaseline() || ids[c.RecordID()] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (b *BaselineStore) ListTeamMembers(ctx context.Context) ([]core.TeamMember, error) {
	custom, err := b.custom.ListTeamMembers(ctx)
	if err != nil {
		return nil, err
	}
	return merge(b.base.Team, custom, b.ids), nil
}

func (b *BaselineStore) SaveTeamMember(ctx context.Context, m core.TeamMember) error {
	if err := b.shadows(store.KindTeam, m.Key()); err != nil {
		return err
	}
	return b.custom.SaveTeamMember(ctx, m)
}

func (b *BaselineStore) ListOpexExpenses(ctx context.Context) ([]core.OpexExpense, error) {
	custom, err := b.custom.ListOpexExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return merge(b.base.Opex, custom, b.ids), nil
}

func (b *BaselineStore) SaveOpexExpense(ctx context.Context, e core.OpexExpense) error {
	if err := b.shadows(store.KindOpex, e.Key()); err != nil {
		return err
	}
	return b.custom.SaveOpexExpense(ctx, e)
}

func (b *BaselineStore) ListWholesaleDeals(ctx context.Context) ([]core.WholesaleDeal, error) {
	custom, err := b.custom.ListWholesaleDeals(ctx)
	if err != nil {
		return nil, err
	}
	return merge(b.base.Wholesale, custom, b.ids), nil
}

func (b *BaselineStore) SaveWholesaleDeal(ctx context.Context, d core.WholesaleDeal) error {
	if err := b.shadows(store.KindWholesale, d.Key()); err != nil {
		return err
	}
	return b.custom.SaveWholesaleDeal(ctx, d)
}

// LoadAssumptions falls back to the default assumptions when none are saved.
func (b *BaselineStore) LoadAssumptions(ctx context.Context) (core.Assumptions, error) {
	a, err := b.custom.LoadAssumptions(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return b.assumptions, nil
	}
	return a, err
}

func (b *BaselineStore) SaveAssumptions(ctx context.Context, a core.Assumptions) error {
	return b.custom.SaveAssumptions(ctx, a)
}

func (b *BaselineStore) ClearCustom(ctx context.Context, kind store.Kind) (int, error) {
	return b.custom.ClearCustom(ctx, kind)
}

func (b *BaselineStore) LastUpdated(ctx context.Context, kind store.Kind) (time.Time, error) {
	return b.custom.LastUpdated(ctx, kind)
}
