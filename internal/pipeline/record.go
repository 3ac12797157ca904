package pipeline

import (
	"math"
	"strconv"
	"time"

	"github.com/banshee-data/hrv.report/internal/config"
	"github.com/banshee-data/hrv.report/internal/hrv"
	"github.com/banshee-data/hrv.report/internal/rr"
)

// Fixed leading columns of the batch table.
const (
	ColumnFilename    = "filename"
	ColumnDurationMin = "duration_min"
)

// Failure is a recoverable analyzer failure recorded on a Record.
type Failure struct {
	Domain string
	Err    error
}

// Record is the result of analysing one series. A domain that failed keeps
// its zero metrics, so Fields still returns the full key set with those
// values unavailable.
type Record struct {
	Name        string
	Intervals   int
	DurationMin float64
	Selection   config.Selection

	// Series is the analysed tachogram after unit conversion and selection.
	Series rr.Series

	TimeDomain      hrv.TimeDomainMetrics
	FrequencyDomain hrv.FrequencyDomainMetrics
	Spectrum        hrv.Spectrum
	DFA             hrv.DFAMetrics
	Curve           hrv.FluctuationCurve

	Failures []Failure
}

// Fields flattens the three metric domains in column order.
func (r *Record) Fields() []hrv.Field {
	fields := make([]hrv.Field, 0, len(hrv.AllKeys()))
	fields = append(fields, r.TimeDomain.Fields()...)
	fields = append(fields, r.FrequencyDomain.Fields()...)
	return append(fields, r.DFA.Fields()...)
}

// Failed reports whether the named domain failed.
func (r *Record) Failed(domain string) bool {
	for _, f := range r.Failures {
		if f.Domain == domain {
			return true
		}
	}
	return false
}

// Row is one accepted input in the batch table.
type Row struct {
	Name        string
	DurationMin float64
	Fields      []hrv.Field
}

// Values renders the row in Columns order.
func (r Row) Values() []string {
	out := make([]string, 0, len(r.Fields)+2)
	out = append(out, r.Name, strconv.FormatFloat(roundDuration(r.DurationMin), 'f', -1, 64))
	for _, f := range r.Fields {
		out = append(out, f.String())
	}
	return out
}

// Warning names a batch input excluded from the table and why.
type Warning struct {
	Name   string
	Reason string
}

// Table is the aggregate result of a batch run.
type Table struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration

	Rows     []Row
	Warnings []Warning

	// Records holds the full results behind Rows, in the same order.
	Records []*Record
}

// Columns returns the stable table header.
func (t *Table) Columns() []string {
	return Columns()
}

// Columns returns the table header: filename, duration, then every metric
// key in output order.
func Columns() []string {
	keys := hrv.AllKeys()
	cols := make([]string, 0, len(keys)+2)
	cols = append(cols, ColumnFilename, ColumnDurationMin)
	return append(cols, keys...)
}

func rowFromRecord(r *Record) Row {
	return Row{Name: r.Name, DurationMin: r.DurationMin, Fields: r.Fields()}
}

func roundDuration(v float64) float64 {
	return math.Round(v*100) / 100
}
