package rr

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/hrv.report/internal/fsutil"
	"github.com/banshee-data/hrv.report/internal/monitoring"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 64 * 1024

// ParseResult is the outcome of reading an RR text resource.
type ParseResult struct {
	Values  []float64
	Skipped int // blank or non-numeric lines
}

// Parse reads one interval per line. Blank lines and lines whose first
// comma-separated field is not a finite number are skipped. Only I/O
// failures are returned as errors; the minimum length is enforced later by
// Validate.
func Parse(r io.Reader) (ParseResult, error) {
	var res ParseResult

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			res.Skipped++
			continue
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			res.Skipped++
			continue
		}
		res.Values = append(res.Values, v)
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("failed to read RR data: %w", err)
	}
	return res, nil
}

// LoadFile parses the RR text file at path from fsys.
func LoadFile(fsys fsutil.FileSystem, path string) ([]float64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	res, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if res.Skipped > 0 {
		monitoring.Logf("rr: %s: skipped %d blank or non-numeric lines", path, res.Skipped)
	}
	return res.Values, nil
}
