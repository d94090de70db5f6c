// Package store defines the record store ports used by the planning
// service. Stores persist custom records only; the baseline dataset is
// merged in by the service layer.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finplan/internal/core"
)

var (
	// ErrNotFound is returned when a record or saved document does not exist.
	ErrNotFound    = errors.New("not found")
	ErrUnknownKind = errors.New("unknown record kind")
	// ErrDuplicate is returned when a custom record reuses a baseline natural key.
	ErrDuplicate = errors.New("record already exists")
	// ErrMissingID is returned by stores that key rows on the record ID.
	ErrMissingID = errors.New("record has no id")
)

// Kind names a record collection.
type Kind string

const (
	KindTeam        Kind = "team"
	KindOpex        Kind = "opex"
	KindWholesale   Kind = "wholesale"
	KindAssumptions Kind = "assumptions"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindTeam, KindOpex, KindWholesale, KindAssumptions:
		return true
	}
	return false
}

// ParseKind validates a kind read from user input.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Kinds lists every collection in a stable order.
func Kinds() []Kind {
	return []Kind{KindTeam, KindOpex, KindWholesale, KindAssumptions}
}

// Ports for outbound adapters. Save operations replace the stored record
// with the same ID; records sharing a natural key are kept side by side.
type (
	TeamStore interface {
		ListTeamMembers(ctx context.Context) ([]core.TeamMember, error)
		SaveTeamMember(ctx context.Context, m core.TeamMember) error
	}

	OpexStore interface {
		ListOpexExpenses(ctx context.Context) ([]core.OpexExpense, error)
		SaveOpexExpense(ctx context.Context, e core.OpexExpense) error
	}

	WholesaleStore interface {
		ListWholesaleDeals(ctx context.Context) ([]core.WholesaleDeal, error)
		SaveWholesaleDeal(ctx context.Context, d core.WholesaleDeal) error
	}

	AssumptionsStore interface {
		// LoadAssumptions returns ErrNotFound when nothing was saved.
		LoadAssumptions(ctx context.Context) (core.Assumptions, error)
		SaveAssumptions(ctx context.Context, a core.Assumptions) error
	}

	// RecordStore is the full persistence port.
	RecordStore interface {
		TeamStore
		OpexStore
		WholesaleStore
		AssumptionsStore

		// ClearCustom removes every stored record of kind and reports how
		// many were removed.
		ClearCustom(ctx context.Context, kind Kind) (int, error)
		// LastUpdated returns the zero time when kind was never written.
		LastUpdated(ctx context.Context, kind Kind) (time.Time, error)
	}
)

// Identified is a record carrying a storage ID.
type Identified interface {
	RecordID() string
}

// Upsert replaces the element of list sharing v's ID, or appends v.
// Records without an ID are always appended.
func Upsert[T Identified](list []T, v T) []T {
	id := v.RecordID()
	if id == "" {
		return append(list, v)
	}
	for i, item := range list {
		if item.RecordID() == id {
			list[i] = v
			return list
		}
	}
	return append(list, v)
}
