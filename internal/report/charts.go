package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/hrv.report/internal/hrv"
	"github.com/banshee-data/hrv.report/internal/pipeline"
)

const chartWidth, chartHeight = "900px", "420px"

var paramsTemplate = template.Must(template.New("params").Parse(`
<div class="hrv-params" style="width:900px;margin:20px auto;font-family:sans-serif">
{{range .}}<h3>{{.Title}}</h3>
<table style="border-collapse:collapse;min-width:320px">
<tr><th style="text-align:left;padding:2px 12px">parameter</th><th style="text-align:right;padding:2px 12px">value</th></tr>
{{range .Rows}}<tr><td style="padding:2px 12px">{{.Key}}</td><td style="text-align:right;padding:2px 12px">{{.Value}}</td></tr>
{{end}}</table>
{{end}}</div>
`))

type paramRow struct {
	Key   string
	Value string
}

type paramTable struct {
	Title string
	Rows  []paramRow
}

// paramTables groups rec's parameters the way the single-file CSV lists
// them: recording, then one table per analysis domain.
func paramTables(rec *pipeline.Record) []paramTable {
	recording := paramTable{Title: "Recording", Rows: []paramRow{
		{pipeline.ColumnFilename, rec.Name},
		{"intervals", fmt.Sprint(rec.Intervals)},
		{pipeline.ColumnDurationMin, formatFloat(rec.DurationMin, 2)},
	}}
	if rec.Selection.Enabled {
		recording.Rows = append(recording.Rows,
			paramRow{"selection_start_s", formatFloat(rec.Selection.StartS, 2)},
			paramRow{"selection_end_s", formatFloat(rec.Selection.EndS, 2)})
	}

	domain := func(title string, fields []hrv.Field) paramTable {
		t := paramTable{Title: title}
		for _, f := range fields {
			t.Rows = append(t.Rows, paramRow{f.Key, f.String()})
		}
		return t
	}
	return []paramTable{
		recording,
		domain("Time domain", rec.TimeDomain.Fields()),
		domain("Frequency domain", rec.FrequencyDomain.Fields()),
		domain("DFA", rec.DFA.Fields()),
	}
}

// RenderCharts writes a standalone HTML page with the tachogram, the PSD,
// the band powers and the DFA curve of rec, followed by the parameter
// tables. Failed domains have no chart and list their keys as unavailable.
func RenderCharts(w io.Writer, rec *pipeline.Record) error {
	page := components.NewPage()
	page.PageTitle = "HRV: " + rec.Name
	page.AddCharts(tachogramChart(rec))
	if rec.Spectrum.Len() > 0 {
		page.AddCharts(spectrumChart(rec), bandChart(rec))
	}
	if rec.Curve.Len() > 0 {
		page.AddCharts(dfaChart(rec))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	var params bytes.Buffer
	if err := paramsTemplate.Execute(&params, paramTables(rec)); err != nil {
		return fmt.Errorf("render error: %w", err)
	}

	out := buf.Bytes()
	at := bytes.LastIndex(out, []byte("</body>"))
	if at < 0 {
		at = len(out)
	}
	for _, chunk := range [][]byte{out[:at], params.Bytes(), out[at:]} {
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
	}
	return nil
}

func tachogramChart(rec *pipeline.Record) *charts.Scatter {
	times := rec.Series.BeatTimes()
	data := make([]opts.ScatterData, 0, len(rec.Series))
	for i, v := range rec.Series {
		data = append(data, opts.ScatterData{Value: []interface{}{times[i], v}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Tachogram", Subtitle: fmt.Sprintf("%s intervals=%d duration=%.2f min", rec.Name, rec.Intervals, rec.DurationMin)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "RR (ms)", NameLocation: "middle", NameGap: 40, Min: "dataMin", Max: "dataMax"}),
	)
	scatter.AddSeries("rr", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return scatter
}

func spectrumChart(rec *pipeline.Record) *charts.Scatter {
	s := rec.Spectrum
	data := make([]opts.ScatterData, 0, s.Len())
	for i, f := range s.Frequencies {
		if f > 0.5 {
			break
		}
		data = append(data, opts.ScatterData{Value: []interface{}{f, s.Density[i]}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Power spectral density", Subtitle: fmt.Sprintf("bins=%d", s.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Frequency (Hz)", NameLocation: "middle", NameGap: 25, Min: 0, Max: 0.5}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "PSD (ms²/Hz)", NameLocation: "middle", NameGap: 50}),
	)
	scatter.AddSeries("psd", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return scatter
}

func bandChart(rec *pipeline.Record) *charts.Bar {
	m := rec.FrequencyDomain
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Band power", Subtitle: fmt.Sprintf("LF/HF=%.2f", m.LFHF)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"VLF", "LF", "HF"}).
		AddSeries("ms²", []opts.BarData{
			{Value: m.VLF},
			{Value: m.LF},
			{Value: m.HF},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func dfaChart(rec *pipeline.Record) *charts.Scatter {
	c := rec.Curve
	data := make([]opts.ScatterData, 0, c.Len())
	for i := range c.Scales {
		data = append(data, opts.ScatterData{Value: []interface{}{c.LogScales[i], c.LogFluctuations[i]}})
	}

	subtitle := fmt.Sprintf("alpha1=%s alpha2=%s", alphaText(rec.DFA.Alpha1), alphaText(rec.DFA.Alpha2))
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "DFA", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "log10 n", NameLocation: "middle", NameGap: 25, Min: "dataMin", Max: "dataMax"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "log10 F(n)", NameLocation: "middle", NameGap: 40, Min: "dataMin", Max: "dataMax"}),
	)
	scatter.AddSeries("F(n)", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

func alphaText(o hrv.Optional) string {
	if !o.Valid {
		return hrv.NotAvailable
	}
	return fmt.Sprintf("%.3f", o.Value)
}
