package monitoring

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log output formats accepted by NewZerolog.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// NewZerolog builds a zerolog.Logger writing to w in the given format
// ("console" or "json") at the given level ("debug", "info", ...).
func NewZerolog(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}

	switch format {
	case FormatConsole, "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (want %s or %s)", format, FormatConsole, FormatJSON)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// ZerologLogf adapts zl to the Logf signature. Messages are emitted at info
// level; those starting with "warning:" are emitted at warn level.
func ZerologLogf(zl zerolog.Logger) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		if rest, ok := strings.CutPrefix(msg, "warning: "); ok {
			zl.Warn().Msg(rest)
			return
		}
		zl.Info().Msg(msg)
	}
}
