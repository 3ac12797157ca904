package report

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/hrv.report/internal/fsutil"
	"github.com/banshee-data/hrv.report/internal/hrv"
	"github.com/banshee-data/hrv.report/internal/monitoring"
	"github.com/banshee-data/hrv.report/internal/pipeline"
)

const plotWidth, plotHeight = 10 * vg.Inch, 4 * vg.Inch

// psdMaxHz limits the PSD plot to the physiological range.
const psdMaxHz = 0.5

var (
	colorRR  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorVLF = color.RGBA{R: 127, G: 127, B: 127, A: 255}
	colorLF  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	colorHF  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Plotter writes per-record PNG plots and the auxiliary series as CSV into
// a directory.
type Plotter struct {
	fs     fsutil.FileSystem
	outDir string
	bands  hrv.Bands

	mu    sync.Mutex
	stems map[string]bool
}

// NewPlotter returns a Plotter writing to outDir on fsys. bands colour the
// PSD plot.
func NewPlotter(fsys fsutil.FileSystem, outDir string, bands hrv.Bands) *Plotter {
	return &Plotter{fs: fsys, outDir: outDir, bands: bands, stems: map[string]bool{}}
}

// WriteRecord writes <name>_tachogram.png and, when the domains succeeded,
// <name>_psd.png, <name>_psd.csv, <name>_dfa.png and <name>_dfa.csv. It
// returns the paths written. Records sharing a name on the same Plotter
// get <name>-2, <name>-3 and so on, so batch inputs from different
// directories never overwrite each other.
func (p *Plotter) WriteRecord(rec *pipeline.Record) ([]string, error) {
	if err := p.fs.MkdirAll(p.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}
	base := p.claimStem(rec.Name)

	var written []string
	save := func(suffix string, pl *plot.Plot) error {
		name := filepath.Join(p.outDir, base+suffix)
		if err := p.savePNG(name, pl); err != nil {
			return err
		}
		written = append(written, name)
		return nil
	}

	tach, err := tachogramPlot(rec)
	if err != nil {
		return written, err
	}
	if err := save("_tachogram.png", tach); err != nil {
		return written, err
	}

	if rec.Spectrum.Len() > 0 {
		psd, err := p.spectrumPlot(rec)
		if err != nil {
			return written, err
		}
		if err := save("_psd.png", psd); err != nil {
			return written, err
		}
		name := filepath.Join(p.outDir, base+"_psd.csv")
		if err := p.writeCSV(name, func(c *CSVWriter) error { return c.WriteSpectrum(rec.Spectrum) }); err != nil {
			return written, err
		}
		written = append(written, name)
	}

	if rec.Curve.Len() > 0 {
		dfa, err := dfaPlot(rec)
		if err != nil {
			return written, err
		}
		if err := save("_dfa.png", dfa); err != nil {
			return written, err
		}
		name := filepath.Join(p.outDir, base+"_dfa.csv")
		if err := p.writeCSV(name, func(c *CSVWriter) error { return c.WriteCurve(rec.Curve) }); err != nil {
			return written, err
		}
		written = append(written, name)
	}

	monitoring.Logf("report: wrote %d plot files for %s", len(written), rec.Name)
	return written, nil
}

func (p *Plotter) savePNG(name string, pl *plot.Plot) error {
	wt, err := pl.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	f, err := p.fs.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return f.Close()
}

func (p *Plotter) writeCSV(name string, write func(*CSVWriter) error) error {
	f, err := p.fs.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := write(NewCSVWriter(f)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return f.Close()
}

func tachogramPlot(rec *pipeline.Record) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - Tachogram", rec.Name)
	pl.X.Label.Text = "Time (s)"
	pl.Y.Label.Text = "RR (ms)"

	times := rec.Series.BeatTimes()
	pts := make(plotter.XYs, len(rec.Series))
	for i, v := range rec.Series {
		pts[i] = plotter.XY{X: times[i], Y: v}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = colorRR
	line.Width = vg.Points(1)
	pl.Add(line)
	return pl, nil
}

func (p *Plotter) spectrumPlot(rec *pipeline.Record) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - Power Spectral Density", rec.Name)
	pl.X.Label.Text = "Frequency (Hz)"
	pl.Y.Label.Text = "PSD (ms²/Hz)"
	pl.X.Min, pl.X.Max = 0, psdMaxHz

	s := rec.Spectrum
	all := make(plotter.XYs, 0, s.Len())
	for i, f := range s.Frequencies {
		if f > psdMaxHz {
			break
		}
		all = append(all, plotter.XY{X: f, Y: s.Density[i]})
	}
	if len(all) == 0 {
		return pl, nil
	}
	line, err := plotter.NewLine(all)
	if err != nil {
		return nil, err
	}
	line.Color = color.Black
	line.Width = vg.Points(0.5)
	pl.Add(line)

	bands := []struct {
		label string
		band  hrv.Band
		c     color.Color
	}{
		{"VLF", p.bands.VLF, colorVLF},
		{"LF", p.bands.LF, colorLF},
		{"HF", p.bands.HF, colorHF},
	}
	for _, b := range bands {
		var pts plotter.XYs
		for _, xy := range all {
			if b.band.Contains(xy.X) {
				pts = append(pts, xy)
			}
		}
		if len(pts) < 2 {
			continue
		}
		bl, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		bl.Color = b.c
		bl.Width = vg.Points(2)
		pl.Add(bl)
		pl.Legend.Add(fmt.Sprintf("%s %s", b.label, b.band), bl)
	}
	pl.Legend.Top = true
	pl.Legend.Left = false
	pl.Legend.XOffs = -10
	pl.Legend.YOffs = -10
	return pl, nil
}

func dfaPlot(rec *pipeline.Record) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - DFA (alpha1=%s, alpha2=%s)", rec.Name, alphaText(rec.DFA.Alpha1), alphaText(rec.DFA.Alpha2))
	pl.X.Label.Text = "log10 n"
	pl.Y.Label.Text = "log10 F(n)"

	c := rec.Curve
	pts := make(plotter.XYs, c.Len())
	for i := range c.Scales {
		pts[i] = plotter.XY{X: c.LogScales[i], Y: c.LogFluctuations[i]}
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = colorRR
	sc.GlyphStyle.Radius = vg.Points(2.5)
	pl.Add(sc)
	return pl, nil
}

// claimStem returns fileStem(name), suffixed when an earlier record on p
// already used it.
func (p *Plotter) claimStem(name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	base := fileStem(name)
	stem := base
	for i := 2; p.stems[stem]; i++ {
		stem = fmt.Sprintf("%s-%d", base, i)
	}
	p.stems[stem] = true
	return stem
}

func fileStem(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "record"
	}
	return base
}
