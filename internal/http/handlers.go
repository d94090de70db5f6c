package http

import (
	"net/http"
	"time"

	"finplan/internal/baseline"
	"finplan/internal/core"
	"finplan/internal/store"
)

// maxProjectionYears bounds /api/pl/years.
const maxProjectionYears = 10

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

func (s *Server) handleProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r, s.defaultYear)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	rt, err := rates(r)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	pl, err := s.planner.ProfitAndLoss(r.Context(), year, rt)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(pl).Write(w, r)
}

func (s *Server) handleProjectYears(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r, s.defaultYear)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	count, err := parseIntParam(r, "count", 2, maxProjectionYears)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	pls, err := s.planner.ProjectYears(r.Context(), year, count)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(newList(pls)).Write(w, r)
}

func (s *Server) handleRunway(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r, s.defaultYear)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	pos, err := s.position(r)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	report, err := s.planner.Runway(r.Context(), year, pos)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(report).Write(w, r)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r, s.defaultYear)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	b, err := s.planner.Breakdown(r.Context(), year)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(b).Write(w, r)
}

func (s *Server) handleDealMetrics(w http.ResponseWriter, r *http.Request) {
	deal, metrics, err := s.planner.DealMetrics(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(struct {
		Deal    core.WholesaleDeal `json:"deal"`
		Metrics core.DealMetrics   `json:"metrics"`
	}{deal, metrics}).Write(w, r)
}

func (s *Server) handleListTeam(w http.ResponseWriter, r *http.Request) {
	items, err := s.planner.TeamMembers(r.Context())
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(newList(items)).Write(w, r)
}

func (s *Server) handleCreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var m core.TeamMember
	if err := decodeJSON(w, r, &m); err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	m.FirstName = sanitizeInput(m.FirstName)
	m.LastName = sanitizeInput(m.LastName)
	m.Title = sanitizeInput(m.Title)
	m.Location = sanitizeInput(m.Location)
	m.Notes = sanitizeInput(m.Notes)

	saved, err := s.planner.AddTeamMember(r.Context(), m)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(saved).Write(w, r)
}

func (s *Server) handleListOpex(w http.ResponseWriter, r *http.Request) {
	items, err := s.planner.OpexExpenses(r.Context())
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(newList(items)).Write(w, r)
}

func (s *Server) handleCreateOpexExpense(w http.ResponseWriter, r *http.Request) {
	var e core.OpexExpense
	if err := decodeJSON(w, r, &e); err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	e.Name = sanitizeInput(e.Name)
	e.Category = sanitizeInput(e.Category)
	e.Vendor = sanitizeInput(e.Vendor)
	e.Notes = sanitizeInput(e.Notes)

	saved, err := s.planner.AddOpexExpense(r.Context(), e)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(saved).Write(w, r)
}

func (s *Server) handleListWholesale(w http.ResponseWriter, r *http.Request) {
	items, err := s.planner.WholesaleDeals(r.Context())
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(newList(items)).Write(w, r)
}

func (s *Server) handleCreateWholesaleDeal(w http.ResponseWriter, r *http.Request) {
	var d core.WholesaleDeal
	if err := decodeJSON(w, r, &d); err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	d.CustomerName = sanitizeInput(d.CustomerName)
	d.Notes = sanitizeInput(d.Notes)

	saved, err := s.planner.AddWholesaleDeal(r.Context(), d)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(saved).Write(w, r)
}

func (s *Server) handleClearCustom(w http.ResponseWriter, r *http.Request) {
	kind, err := store.ParseKind(r.PathValue("kind"))
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	n, err := s.planner.ClearCustom(r.Context(), kind)
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(map[string]any{"kind": kind, "removed": n}).Write(w, r)
}

func (s *Server) handleGetAssumptions(w http.ResponseWriter, r *http.Request) {
	a, err := s.planner.Assumptions(r.Context())
	if err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(a).Write(w, r)
}

func (s *Server) handlePutAssumptions(w http.ResponseWriter, r *http.Request) {
	var a core.Assumptions
	if err := decodeJSON(w, r, &a); err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	if err := s.planner.SaveAssumptions(r.Context(), a); err != nil {
		ErrorFrom(r, err).Write(w, r)
		return
	}
	NewResponse().Data(a).Write(w, r)
}

// handleStatus reports when each collection was last written.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	updated := make(map[store.Kind]*time.Time, len(store.Kinds()))
	for _, kind := range store.Kinds() {
		at, err := s.planner.LastUpdated(r.Context(), kind)
		if err != nil {
			ErrorFrom(r, err).Write(w, r)
			return
		}
		if !at.IsZero() {
			updated[kind] = &at
		} else {
			updated[kind] = nil
		}
	}
	NewResponse().Data(map[string]any{
		"baseline_version": baseline.Version,
		"last_updated":     updated,
	}).Write(w, r)
}

func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	ds := baseline.Load()
	NewResponse().Data(struct {
		Version   string               `json:"version"`
		PlanYear  int                  `json:"plan_year"`
		Team      []core.TeamMember    `json:"team"`
		Opex      []core.OpexExpense   `json:"opex"`
		Wholesale []core.WholesaleDeal `json:"wholesale"`
		Burden    core.BurdenRateTable `json:"burden"`
		Defaults  core.Assumptions     `json:"default_assumptions"`
	}{
		Version:   ds.Version,
		PlanYear:  baseline.PlanYear,
		Team:      ds.Team,
		Opex:      ds.Opex,
		Wholesale: ds.Wholesale,
		Burden:    ds.Burden,
		Defaults:  baseline.DefaultAssumptions(),
	}).Write(w, r)
}

func (s *Server) handleActuals(w http.ResponseWriter, r *http.Request) {
	a := baseline.Actuals()
	NewResponse().Data(struct {
		Lines         baseline.MonthlyActuals `json:"lines"`
		ProfitAndLoss core.ProfitAndLoss      `json:"profit_and_loss"`
	}{a, a.ProfitAndLoss()}).Write(w, r)
}
