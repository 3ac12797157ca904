package monitoring

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZerolog_JSON(t *testing.T) {
	var buf bytes.Buffer
	zl, err := NewZerolog(&buf, "info", FormatJSON)
	require.NoError(t, err)

	logf := ZerologLogf(zl)
	logf("analysed %s in %d ms", "subject1.txt", 12)
	logf("warning: %s rejected", "subject2.txt")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "analysed subject1.txt in 12 ms", first["message"])
	assert.Equal(t, "warn", second["level"])
	assert.Equal(t, "subject2.txt rejected", second["message"])
}

func TestNewZerolog_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	zl, err := NewZerolog(&buf, "warn", FormatJSON)
	require.NoError(t, err)

	logf := ZerologLogf(zl)
	logf("hidden")
	logf("warning: shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNewZerolog_Console(t *testing.T) {
	var buf bytes.Buffer
	zl, err := NewZerolog(&buf, "debug", FormatConsole)
	require.NoError(t, err)

	ZerologLogf(zl)("batch complete")
	assert.Contains(t, buf.String(), "batch complete")
}

func TestNewZerolog_Invalid(t *testing.T) {
	_, err := NewZerolog(&bytes.Buffer{}, "loud", FormatJSON)
	assert.Error(t, err)

	_, err = NewZerolog(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
