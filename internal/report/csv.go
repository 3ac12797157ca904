// Package report renders pipeline results as CSV tables, an HTML chart page
// and PNG plots.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/hrv.report/internal/hrv"
	"github.com/banshee-data/hrv.report/internal/pipeline"
)

// CSVWriter wraps csv.Writer with methods for analysis output.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a CSVWriter on w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// WriteTable writes the batch table: a header row from Columns, then one
// row per accepted recording.
func (c *CSVWriter) WriteTable(t *pipeline.Table) error {
	if err := c.w.Write(t.Columns()); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}
	for _, row := range t.Rows {
		if err := c.w.Write(row.Values()); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.Name, err)
		}
	}
	return c.flush()
}

// WriteRecord writes a single record as Parameter,Value pairs.
func (c *CSVWriter) WriteRecord(r *pipeline.Record) error {
	rows := [][]string{
		{"parameter", "value"},
		{pipeline.ColumnFilename, r.Name},
		{"intervals", strconv.Itoa(r.Intervals)},
		{pipeline.ColumnDurationMin, formatFloat(r.DurationMin, 2)},
	}
	if r.Selection.Enabled {
		rows = append(rows,
			[]string{"selection_start_s", formatFloat(r.Selection.StartS, 2)},
			[]string{"selection_end_s", formatFloat(r.Selection.EndS, 2)},
		)
	}
	for _, f := range r.Fields() {
		rows = append(rows, []string{f.Key, f.String()})
	}
	if err := c.w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write record %s: %w", r.Name, err)
	}
	return nil
}

// WriteSpectrum writes the PSD as frequency,density rows.
func (c *CSVWriter) WriteSpectrum(s hrv.Spectrum) error {
	if err := c.w.Write([]string{"frequency_hz", "psd_ms2_per_hz"}); err != nil {
		return err
	}
	for i, f := range s.Frequencies {
		if err := c.w.Write([]string{formatFloat(f, 6), formatFloat(s.Density[i], 6)}); err != nil {
			return err
		}
	}
	return c.flush()
}

// WriteCurve writes the DFA fluctuation curve.
func (c *CSVWriter) WriteCurve(curve hrv.FluctuationCurve) error {
	if err := c.w.Write([]string{"scale", "log10_n", "log10_f"}); err != nil {
		return err
	}
	for i, n := range curve.Scales {
		row := []string{strconv.Itoa(n), formatFloat(curve.LogScales[i], 6), formatFloat(curve.LogFluctuations[i], 6)}
		if err := c.w.Write(row); err != nil {
			return err
		}
	}
	return c.flush()
}

func (c *CSVWriter) flush() error {
	c.w.Flush()
	return c.w.Error()
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
