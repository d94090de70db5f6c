package baseline

import (
	"testing"

	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

func TestDatasetCounts(t *testing.T) {
	ds := Load()
	if len(ds.Team) != 7 {
		t.Fatalf("expected 7 team members, got %d", len(ds.Team))
	}
	if len(ds.Opex) != 14 {
		t.Fatalf("expected 14 opex items, got %d", len(ds.Opex))
	}
	if len(ds.Wholesale) != 2 {
		t.Fatalf("expected 2 wholesale deals, got %d", len(ds.Wholesale))
	}
	if ds.Version != Version {
		t.Fatalf("unexpected version %q", ds.Version)
	}
}

func TestRecordsAreValidAndTagged(t *testing.T) {
	ds := Load()
	seen := map[string]bool{}
	check := func(m core.Meta, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("baseline record %s invalid: %v", m.ID, err)
		}
		if m.Origin != core.OriginBaseline {
			t.Fatalf("record %s has origin %q", m.ID, m.Origin)
		}
		if seen[m.ID] {
			t.Fatalf("duplicate id %s", m.ID)
		}
		seen[m.ID] = true
	}
	for _, m := range ds.Team {
		check(m.Meta, m.Validate())
	}
	for _, o := range ds.Opex {
		check(o.Meta, o.Validate())
	}
	for _, w := range ds.Wholesale {
		check(w.Meta, w.Validate())
	}
	if err := ds.Burden.Validate(); err != nil {
		t.Fatalf("burden table invalid: %v", err)
	}
}

func TestIDsAreStable(t *testing.T) {
	a, b := Load(), Load()
	for i := range a.Team {
		if a.Team[i].ID != b.Team[i].ID {
			t.Fatalf("team id changed between loads: %s vs %s", a.Team[i].ID, b.Team[i].ID)
		}
	}
}

func TestLoadReturnsCopies(t *testing.T) {
	a := Load()
	a.Team[0].FirstName = "Changed"
	a.Opex = a.Opex[:1]
	b := Load()
	if b.Team[0].FirstName != "Ryan" || len(b.Opex) != 14 {
		t.Fatalf("Load must not share state between callers")
	}
}

func TestActualsProfitAndLoss(t *testing.T) {
	pl := Actuals().ProfitAndLoss()
	jan := pl.Rows[0]
	if !jan.TotalRevenue.Equal(decimal.RequireFromString("6702.90")) {
		t.Fatalf("january revenue: got %s", jan.TotalRevenue)
	}
	if !jan.TotalOpex.Equal(decimal.RequireFromString("1901.07")) {
		t.Fatalf("january opex: got %s", jan.TotalOpex)
	}
	if pl.Rows[11].Month != 12 {
		t.Fatalf("rows must be in calendar order")
	}
}
