// Package pipeline runs validation and the three HRV analyzers over one
// series or a batch of recording files.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/hrv.report/internal/config"
	"github.com/banshee-data/hrv.report/internal/fsutil"
	"github.com/banshee-data/hrv.report/internal/hrv"
	"github.com/banshee-data/hrv.report/internal/monitoring"
	"github.com/banshee-data/hrv.report/internal/rr"
	"github.com/banshee-data/hrv.report/internal/timeutil"
	"github.com/banshee-data/hrv.report/internal/units"
)

// Analyzer applies one AnalysisConfig to any number of series. It holds no
// per-run state and is safe for concurrent use.
type Analyzer struct {
	cfg   *config.AnalysisConfig
	clock timeutil.Clock
}

// New returns an Analyzer for cfg. A nil cfg uses the built-in defaults.
func New(cfg *config.AnalysisConfig) *Analyzer {
	if cfg == nil {
		cfg = config.EmptyAnalysisConfig()
	}
	return &Analyzer{cfg: cfg, clock: timeutil.RealClock{}}
}

// WithClock sets the clock used to time batch runs.
func (a *Analyzer) WithClock(c timeutil.Clock) *Analyzer {
	a.clock = c
	return a
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() *config.AnalysisConfig { return a.cfg }

// Analyze converts raw to milliseconds, applies the selection window,
// validates the result and runs the three analyzers. Validation failure
// returns a *rr.ValidationError and no record. Analyzer failures are kept
// on Record.Failures and never returned. raw is not modified.
func (a *Analyzer) Analyze(name string, raw []float64) (*Record, error) {
	series := rr.Series(units.SeriesToMilliseconds(raw, a.cfg.GetTimeUnit()))

	sel := a.cfg.GetSelection()
	if sel.Enabled {
		series = series.Window(sel.StartS, sel.EndS)
	}

	if res := rr.ValidateWithLimits(series, a.cfg.GetLimits()); !res.Valid {
		return nil, res.Err()
	}

	rec := &Record{
		Name:        name,
		Intervals:   len(series),
		DurationMin: series.DurationMinutes(),
		Selection:   sel,
		Series:      series,
	}

	var err error
	if rec.TimeDomain, err = hrv.ComputeTimeDomain(series); err != nil {
		rec.fail(hrv.DomainTime, err)
	}
	if rec.FrequencyDomain, rec.Spectrum, err = hrv.ComputeFrequencyDomain(series, a.cfg.GetFrequencyOptions()); err != nil {
		rec.fail(hrv.DomainFrequency, err)
	}
	if rec.DFA, rec.Curve, err = hrv.ComputeDFA(series, a.cfg.GetDFAOptions()); err != nil {
		rec.fail(hrv.DomainDFA, err)
	}
	return rec, nil
}

// AnalyzeFile loads path from fsys and analyses it under its base name.
func (a *Analyzer) AnalyzeFile(fsys fsutil.FileSystem, path string) (*Record, error) {
	raw, err := rr.LoadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(filepath.Base(path), raw)
}

func (r *Record) fail(domain string, err error) {
	// AnalysisError already names its domain.
	var aerr *hrv.AnalysisError
	if !errors.As(err, &aerr) {
		err = fmt.Errorf("%s domain: %w", domain, err)
	}
	monitoring.Logf("warning: pipeline: %s: %v", r.Name, err)
	r.Failures = append(r.Failures, Failure{Domain: domain, Err: err})
}
