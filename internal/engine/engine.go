// Package engine computes the monthly P&L projection.
//
// Every allocator is a pure function of its inputs: the same records and
// year always produce the same twelve months. Per-record input problems
// (missing dates, zero amounts, unknown frequencies) are logged at debug or
// warn level and the record is skipped or defaulted, never returned as an
// error.
package engine

import (
	"log/slog"

	"finplan/internal/baseline"
	"finplan/internal/core"
)

// Engine carries the configuration shared by the allocators.
type Engine struct {
	burden    core.BurdenRateTable
	cogs      core.ResolvedCogsRates
	forecasts ForecastProvider
	logger    *slog.Logger
}

type Option func(*Engine)

// WithBurden overrides the payroll burden schedule.
func WithBurden(b core.BurdenRateTable) Option {
	return func(e *Engine) { e.burden = b }
}

// WithCogsRates overrides the default wholesale COGS components.
func WithCogsRates(r core.ResolvedCogsRates) Option {
	return func(e *Engine) { e.cogs = r }
}

// WithForecasts replaces the DTC forecast provider.
func WithForecasts(p ForecastProvider) Option {
	return func(e *Engine) { e.forecasts = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine using the baseline burden table, default COGS rates
// and the built-in DTC schedules unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{
		burden:    baseline.Burden(),
		cogs:      core.DefaultCogsRates,
		forecasts: DefaultForecasts(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Burden() core.BurdenRateTable {
	return e.burden
}

func (e *Engine) CogsRates() core.ResolvedCogsRates {
	return e.cogs
}

func (e *Engine) Forecasts() ForecastProvider {
	return e.forecasts
}

// With returns a copy of e with opts applied; e is unchanged.
func (e *Engine) With(opts ...Option) *Engine {
	c := *e
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}
