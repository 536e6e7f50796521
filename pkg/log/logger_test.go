package log

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3} (.*)$`)

func lines(buf *bytes.Buffer) []string {
	s := strings.TrimRight(buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	_, err = ParseLevel("trace")
	assert.Error(t, err)
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "loud"})
	assert.Error(t, err)
}

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{})
	require.NoError(t, err)

	logger.Info("Reconnection succeeded.")
	logger.Info("Reconnect to Home...", "bssid", "aa:01", "signal_dbm", -40)

	got := lines(&buf)
	require.Len(t, got, 2)

	m := linePattern.FindStringSubmatch(got[0])
	require.NotNil(t, m, "line %q", got[0])
	assert.Equal(t, "Reconnection succeeded.", m[1])

	m = linePattern.FindStringSubmatch(got[1])
	require.NotNil(t, m, "line %q", got[1])
	assert.Equal(t, "Reconnect to Home... bssid=aa:01 signal_dbm=-40", m[1])
}

func TestErrorLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{})
	require.NoError(t, err)

	logger.Error(errors.New("nmcli exited 1"), "Exception thrown")

	got := lines(&buf)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Exception thrown")
	assert.Contains(t, got[0], "nmcli exited 1")
}

func TestVerbosity(t *testing.T) {
	t.Run("InfoHidesDebug", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, Options{Level: "info"})
		require.NoError(t, err)

		logger.V(1).Info("Woke up")
		assert.Empty(t, lines(&buf))
	})

	t.Run("DebugShowsV1", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, Options{Level: "debug"})
		require.NoError(t, err)

		logger.V(1).Info("Woke up")
		got := lines(&buf)
		require.Len(t, got, 1)
		assert.Contains(t, got[0], "Woke up")
		assert.NotContains(t, got[0], "v=")
	})
}

func TestConsoleTee(t *testing.T) {
	var file, console bytes.Buffer
	logger, err := New(&file, Options{Console: &console})
	require.NoError(t, err)

	logger.Info("Waiting for network status changes")

	assert.Len(t, lines(&file), 1)
	assert.Len(t, lines(&console), 1)
	assert.Contains(t, console.String(), "Waiting for network status changes")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestLogUnhandled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{})
	require.NoError(t, err)

	assert.PanicsWithValue(t, "boom", func() {
		defer LogUnhandled(logger)
		panic("boom")
	})

	got := lines(&buf)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Unhandled exception thrown:")
	assert.Contains(t, got[0], "boom")
}

func TestLogUnhandledNoPanic(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{})
	require.NoError(t, err)

	func() {
		defer LogUnhandled(logger)
	}()
	assert.Empty(t, lines(&buf))

	var discard logr.Logger
	assert.NotPanics(t, func() {
		defer LogUnhandled(discard)
	})
}
