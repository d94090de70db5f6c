// Package baseline holds the seed records that every plan starts from.
//
// Baseline records carry deterministic IDs derived from their natural keys,
// so the same record has the same ID across restarts and backends.
package baseline

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finplan/internal/core"
)

// Version identifies the seed set. Bump it whenever a record changes.
const Version = "2026.1"

// PlanYear is the year the seed set was built for.
const PlanYear = 2026

// idNamespace scopes the name-based UUIDs of baseline records.
var idNamespace = uuid.MustParse("6f1c1d2e-3b8a-4c55-9d0e-7a2f4b9c1e30")

var seededAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Dataset is a complete, independent copy of the seed records.
type Dataset struct {
	Version   string
	Team      []core.TeamMember
	Opex      []core.OpexExpense
	Wholesale []core.WholesaleDeal
	Burden    core.BurdenRateTable
}

// Load returns a fresh copy; callers may modify it freely.
func Load() Dataset {
	return Dataset{
		Version:   Version,
		Team:      Team(),
		Opex:      Opex(),
		Wholesale: Wholesale(),
		Burden:    Burden(),
	}
}

func meta(kind, key string) core.Meta {
	return core.Meta{
		ID:        uuid.NewSHA1(idNamespace, []byte(kind+"|"+key)).String(),
		Origin:    core.OriginBaseline,
		CreatedAt: seededAt,
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(s string) core.Date { return core.ParseOptionalDate(s) }

// DefaultAssumptions are the model inputs used until a plan saves its own.
func DefaultAssumptions() core.Assumptions {
	return core.Assumptions{
		BetaAOV:            d("250"),
		AlphaAOV:           d("450"),
		GammaAOV:           d("188"),
		DTCDiscountRate:    d("0.10"),
		DTCReturnRate:      d("0.20"),
		ApplyReturnsYear:   2027,
		Cogs:               core.DefaultCogsRates,
		Burden:             Burden().Simplified,
		CACImprovementRate: d("0.15"),
		CACFloor:           d("30"),
		Position: core.CashPosition{
			StartingCash:       d("41422"),
			AccountsReceivable: decimal.Zero,
			AccountsPayable:    d("8414"),
		},
	}
}
