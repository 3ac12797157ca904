// Package config loads the analysis configuration: input units, spectral
// bands, DFA scales, validation limits, selection window and batch
// concurrency.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/hrv.report/internal/fsutil"
	"github.com/banshee-data/hrv.report/internal/hrv"
	"github.com/banshee-data/hrv.report/internal/rr"
	"github.com/banshee-data/hrv.report/internal/units"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/hrv.defaults.json"

// maxFileSize caps configuration files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// AnalysisConfig is the root analysis configuration. Fields are pointers so
// a partial file only overrides what it names. Loaded configs start from the
// default tags; the Get* methods still fall back for hand-built configs.
type AnalysisConfig struct {
	// Input
	TimeUnit *string `json:"time_unit,omitempty" yaml:"time_unit,omitempty" default:"ms" validate:"omitempty,oneof=ms s"`

	// Frequency domain
	SamplingRateHz     *float64 `json:"sampling_rate_hz,omitempty" yaml:"sampling_rate_hz,omitempty" default:"4" validate:"omitempty,gt=0"`
	VLFLowHz           *float64 `json:"vlf_low_hz,omitempty" yaml:"vlf_low_hz,omitempty" default:"0.003" validate:"omitempty,gte=0"`
	VLFHighHz          *float64 `json:"vlf_high_hz,omitempty" yaml:"vlf_high_hz,omitempty" default:"0.04" validate:"omitempty,gt=0"`
	LFLowHz            *float64 `json:"lf_low_hz,omitempty" yaml:"lf_low_hz,omitempty" default:"0.04" validate:"omitempty,gte=0"`
	LFHighHz           *float64 `json:"lf_high_hz,omitempty" yaml:"lf_high_hz,omitempty" default:"0.15" validate:"omitempty,gt=0"`
	HFLowHz            *float64 `json:"hf_low_hz,omitempty" yaml:"hf_low_hz,omitempty" default:"0.15" validate:"omitempty,gte=0"`
	HFHighHz           *float64 `json:"hf_high_hz,omitempty" yaml:"hf_high_hz,omitempty" default:"0.4" validate:"omitempty,gt=0"`
	WelchSegmentLength *int     `json:"welch_segment_length,omitempty" yaml:"welch_segment_length,omitempty" default:"0" validate:"omitempty,gte=0"`

	// DFA
	DFAScaleMin   *int `json:"dfa_scale_min,omitempty" yaml:"dfa_scale_min,omitempty" default:"4" validate:"omitempty,gte=3"`
	DFAScaleMax   *int `json:"dfa_scale_max,omitempty" yaml:"dfa_scale_max,omitempty" default:"64" validate:"omitempty,gte=4"`
	DFABreakpoint *int `json:"dfa_breakpoint,omitempty" yaml:"dfa_breakpoint,omitempty" default:"16" validate:"omitempty,gte=3"`
	DFAScaleCount *int `json:"dfa_scale_count,omitempty" yaml:"dfa_scale_count,omitempty" default:"20" validate:"omitempty,gte=2,lte=200"`

	// Validation limits
	MinIntervals *int     `json:"min_intervals,omitempty" yaml:"min_intervals,omitempty" default:"100" validate:"omitempty,gte=2"`
	MinRRMs      *float64 `json:"min_rr_ms,omitempty" yaml:"min_rr_ms,omitempty" default:"300" validate:"omitempty,gt=0"`
	MaxRRMs      *float64 `json:"max_rr_ms,omitempty" yaml:"max_rr_ms,omitempty" default:"2000" validate:"omitempty,gt=0"`

	// Selection window in seconds of cumulative beat time; unset means the
	// whole recording.
	SelectionStartS *float64 `json:"selection_start_s,omitempty" yaml:"selection_start_s,omitempty" validate:"omitempty,gte=0"`
	SelectionEndS   *float64 `json:"selection_end_s,omitempty" yaml:"selection_end_s,omitempty" validate:"omitempty,gt=0"`

	// Batch
	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty" default:"4" validate:"omitempty,gte=1,lte=256"`
}

// Selection is a time window over the cumulative beat times.
type Selection struct {
	StartS  float64
	EndS    float64
	Enabled bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report the file key rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every defaulted field
// populated from its struct tag.
func DefaultAnalysisConfig() *AnalysisConfig {
	cfg := EmptyAnalysisConfig()
	if err := defaults.Set(cfg); err != nil {
		// Tags are static; a failure here is a programming error.
		panic(fmt.Sprintf("config: invalid default tags: %v", err))
	}
	return cfg
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON or YAML file on
// fsys. The file is decoded over DefaultAnalysisConfig, so fields it omits
// carry their tag defaults and the returned config is fully populated.
func LoadAnalysisConfig(fsys fsutil.FileSystem, path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	if !fsys.Exists(cleanPath) {
		return nil, fmt.Errorf("config file not found: %s", cleanPath)
	}
	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", len(data), maxFileSize)
	}

	cfg := DefaultAnalysisConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	fsys := fsutil.OSFileSystem{}
	for _, prefix := range []string{"", "../", "../../", "../../../"} {
		path := prefix + DefaultConfigPath
		if !fsys.Exists(path) {
			continue
		}
		cfg, err := LoadAnalysisConfig(fsys, path)
		if err != nil {
			panic(fmt.Sprintf("config: %s: %v", path, err))
		}
		return cfg
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks field ranges and the cross-field constraints between
// bands, DFA scales, RR limits and the selection window.
func (c *AnalysisConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if err := c.GetBands().Validate(); err != nil {
		return err
	}
	if hf := c.GetBands().HF.High; hf > c.GetSamplingRate()/2 {
		return fmt.Errorf("hf_high_hz %g exceeds the Nyquist frequency %g", hf, c.GetSamplingRate()/2)
	}

	dfa := c.GetDFAOptions()
	if dfa.ScaleMin >= dfa.ScaleMax {
		return fmt.Errorf("dfa_scale_min must be less than dfa_scale_max, got %d >= %d", dfa.ScaleMin, dfa.ScaleMax)
	}

	lim := c.GetLimits()
	if lim.MinMs >= lim.MaxMs {
		return fmt.Errorf("min_rr_ms must be less than max_rr_ms, got %g >= %g", lim.MinMs, lim.MaxMs)
	}

	if c.SelectionStartS != nil && c.SelectionEndS != nil && *c.SelectionStartS >= *c.SelectionEndS {
		return fmt.Errorf("selection_start_s must be less than selection_end_s, got %g >= %g",
			*c.SelectionStartS, *c.SelectionEndS)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// GetTimeUnit returns the input time unit or milliseconds.
func (c *AnalysisConfig) GetTimeUnit() string {
	if c.TimeUnit == nil || !units.IsValid(*c.TimeUnit) {
		return units.Milliseconds
	}
	return *c.TimeUnit
}

// GetSamplingRate returns the resampling rate in Hz.
func (c *AnalysisConfig) GetSamplingRate() float64 {
	return getFloat(c.SamplingRateHz, hrv.DefaultSamplingRate)
}

// GetBands returns the configured spectral bands over the defaults.
func (c *AnalysisConfig) GetBands() hrv.Bands {
	d := hrv.DefaultBands()
	return hrv.Bands{
		VLF: hrv.Band{Low: getFloat(c.VLFLowHz, d.VLF.Low), High: getFloat(c.VLFHighHz, d.VLF.High)},
		LF:  hrv.Band{Low: getFloat(c.LFLowHz, d.LF.Low), High: getFloat(c.LFHighHz, d.LF.High)},
		HF:  hrv.Band{Low: getFloat(c.HFLowHz, d.HF.Low), High: getFloat(c.HFHighHz, d.HF.High)},
	}
}

// GetFrequencyOptions assembles the frequency analyzer options.
func (c *AnalysisConfig) GetFrequencyOptions() hrv.FrequencyOptions {
	return hrv.FrequencyOptions{
		SamplingRate:  c.GetSamplingRate(),
		Bands:         c.GetBands(),
		SegmentLength: getInt(c.WelchSegmentLength, 0),
	}
}

// GetDFAOptions assembles the DFA analyzer options.
func (c *AnalysisConfig) GetDFAOptions() hrv.DFAOptions {
	return hrv.DFAOptions{
		ScaleMin:   getInt(c.DFAScaleMin, hrv.DefaultDFAScaleMin),
		ScaleMax:   getInt(c.DFAScaleMax, hrv.DefaultDFAScaleMax),
		Breakpoint: getInt(c.DFABreakpoint, hrv.DefaultDFABreakpoint),
		ScaleCount: getInt(c.DFAScaleCount, hrv.DefaultDFAScaleCount),
	}
}

// GetLimits returns the validation thresholds.
func (c *AnalysisConfig) GetLimits() rr.Limits {
	return rr.Limits{
		MinIntervals: getInt(c.MinIntervals, rr.DefaultMinIntervals),
		MinMs:        getFloat(c.MinRRMs, rr.DefaultMinMs),
		MaxMs:        getFloat(c.MaxRRMs, rr.DefaultMaxMs),
	}
}

// GetSelection returns the selection window. It is enabled when either
// bound is set; a missing start is 0 and a missing end is unbounded.
func (c *AnalysisConfig) GetSelection() Selection {
	if c.SelectionStartS == nil && c.SelectionEndS == nil {
		return Selection{}
	}
	return Selection{
		StartS:  getFloat(c.SelectionStartS, 0),
		EndS:    getFloat(c.SelectionEndS, math.Inf(1)),
		Enabled: true,
	}
}

// GetWorkers returns the batch worker count, or GOMAXPROCS when unset.
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return *c.Workers
}

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// PtrFloat64 returns a pointer to v, for building configs in code.
func PtrFloat64(v float64) *float64 { return &v }

// PtrInt returns a pointer to v.
func PtrInt(v int) *int { return &v }

// PtrString returns a pointer to v.
func PtrString(v string) *string { return &v }
