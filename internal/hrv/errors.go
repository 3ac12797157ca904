package hrv

import (
	"errors"
	"fmt"
)

// Analysis domains, used in AnalysisError and record failures.
const (
	DomainTime      = "time"
	DomainFrequency = "frequency"
	DomainDFA       = "dfa"
)

var (
	// ErrInsufficientData means the series is too short for the computation.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidSamplingRate means the resampling rate is not positive.
	ErrInvalidSamplingRate = errors.New("sampling rate must be positive")
	// ErrInvalidScaleRange means scale_min >= scale_max.
	ErrInvalidScaleRange = errors.New("dfa scale_min must be less than scale_max")
	// ErrNumeric wraps a numeric failure raised inside a numeric library.
	ErrNumeric = errors.New("numeric failure")
)

// AnalysisError is a recoverable failure of one analysis domain.
type AnalysisError struct {
	Domain string
	Err    error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s domain: %v", e.Domain, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func domainError(domain string, err error) error {
	return &AnalysisError{Domain: domain, Err: err}
}

// recoverNumeric converts a panic raised by a numeric routine into an
// AnalysisError stored in *errp.
func recoverNumeric(domain string, errp *error) {
	if r := recover(); r != nil {
		*errp = domainError(domain, fmt.Errorf("%w: %v", ErrNumeric, r))
	}
}
