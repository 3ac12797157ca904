// Command hrv computes heart rate variability metrics from RR interval
// files. One file produces a parameter/value CSV; several produce the
// aggregate table with one row per accepted recording.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/hrv.report/internal/config"
	"github.com/banshee-data/hrv.report/internal/fsutil"
	"github.com/banshee-data/hrv.report/internal/monitoring"
	"github.com/banshee-data/hrv.report/internal/pipeline"
	"github.com/banshee-data/hrv.report/internal/report"
	"github.com/banshee-data/hrv.report/internal/units"
	"github.com/banshee-data/hrv.report/internal/version"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	unit        string
	start       float64
	end         float64
	workers     int
	outPath     string
	htmlPath    string
	plotsDir    string
	logLevel    string
	logFormat   string
	showVersion bool

	set   map[string]bool
	files []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, fsutil.OSFileSystem{}))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("hrv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Analysis config file (.json, .yaml or .yml)")
	fs.StringVar(&o.unit, "unit", "", "Input time unit ("+units.GetValidUnitsString()+"); overrides the config")
	fs.Float64Var(&o.start, "start", 0, "Selection window start in seconds of cumulative beat time")
	fs.Float64Var(&o.end, "end", 0, "Selection window end in seconds of cumulative beat time")
	fs.IntVar(&o.workers, "workers", 0, "Concurrent files in batch mode (default from config)")
	fs.StringVar(&o.outPath, "out", "", "CSV output path (default stdout)")
	fs.StringVar(&o.htmlPath, "html", "", "Write an HTML chart page (single-file mode)")
	fs.StringVar(&o.plotsDir, "plots", "", "Directory for PNG plots and PSD/DFA series")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", monitoring.FormatConsole, "Log format (console or json)")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: hrv [flags] FILE...\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	o.files = fs.Args()
	return o, nil
}

// loadConfig reads the config file, if any, and applies flag overrides. The
// result starts from the tag defaults, so every field is concrete.
func (o *options) loadConfig(fsys fsutil.FileSystem) (*config.AnalysisConfig, error) {
	cfg := config.DefaultAnalysisConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadAnalysisConfig(fsys, o.configPath); err != nil {
			return nil, err
		}
	}

	if o.set["unit"] {
		cfg.TimeUnit = config.PtrString(o.unit)
	}
	if o.set["start"] {
		cfg.SelectionStartS = config.PtrFloat64(o.start)
	}
	if o.set["end"] {
		cfg.SelectionEndS = config.PtrFloat64(o.end)
	}
	if o.set["workers"] {
		cfg.Workers = config.PtrInt(o.workers)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, fsys fsutil.FileSystem) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	zl, err := monitoring.NewZerolog(stderr, o.logLevel, o.logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "hrv: %v\n", err)
		return 1
	}
	monitoring.SetLogger(monitoring.ZerologLogf(zl))

	if len(o.files) == 0 {
		zl.Error().Msg("at least one RR file is required")
		return 1
	}

	cfg, err := o.loadConfig(fsys)
	if err != nil {
		zl.Error().Err(err).Msg("configuration error")
		return 1
	}

	analyzer := pipeline.New(cfg)
	table, err := analyzer.RunBatch(ctx, fsys, o.files)
	if err != nil {
		zl.Error().Err(err).Msg("analysis interrupted")
		return 1
	}
	if len(table.Rows) == 0 {
		zl.Error().Int("skipped", len(table.Warnings)).Msg("no recording could be analysed")
		return 1
	}

	single := len(o.files) == 1
	if err := writeCSV(fsys, stdout, o.outPath, func(w *report.CSVWriter) error {
		if single {
			return w.WriteRecord(table.Records[0])
		}
		return w.WriteTable(table)
	}); err != nil {
		zl.Error().Err(err).Msg("failed to write CSV")
		return 1
	}

	if o.htmlPath != "" {
		if !single {
			zl.Warn().Msg("-html is only supported for a single file; skipped")
		} else if err := writeHTML(fsys, o.htmlPath, table.Records[0]); err != nil {
			zl.Error().Err(err).Msg("failed to write chart page")
			return 1
		}
	}

	if o.plotsDir != "" {
		p := report.NewPlotter(fsys, o.plotsDir, analyzer.Config().GetBands())
		for _, rec := range table.Records {
			if _, err := p.WriteRecord(rec); err != nil {
				zl.Error().Err(err).Str("record", rec.Name).Msg("failed to write plots")
				return 1
			}
		}
	}

	zl.Info().
		Str("run_id", table.RunID).
		Int("analysed", len(table.Rows)).
		Int("skipped", len(table.Warnings)).
		Dur("elapsed", table.Elapsed).
		Interface("config", analyzer.Config()).
		Msg("done")
	return 0
}

// writeCSV writes to path on fsys, or to stdout when path is empty.
func writeCSV(fsys fsutil.FileSystem, stdout io.Writer, path string, write func(*report.CSVWriter) error) error {
	if path == "" {
		return write(report.NewCSVWriter(stdout))
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create output: %w", err)
	}
	if err := write(report.NewCSVWriter(f)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeHTML(fsys fsutil.FileSystem, path string, rec *pipeline.Record) error {
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := report.RenderCharts(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
