package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tt := map[string]struct {
		in       string
		expected slog.Level
		err      bool
	}{
		"empty":   {in: "", expected: slog.LevelDebug},
		"info":    {in: "info", expected: slog.LevelInfo},
		"upper":   {in: "WARN", expected: slog.LevelWarn},
		"padded":  {in: " error ", expected: slog.LevelError},
		"unknown": {in: "loud", expected: slog.LevelDebug, err: true},
	}

	for name, tc := range tt {
		t.Run(name, func(t *testing.T) {
			lvl, err := ParseLevel(tc.in)
			if tc.err {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expected, lvl)
		})
	}
}

func TestInitSlogFallsBackToDebug(t *testing.T) {
	err := InitSlog("nonsense")
	require.Error(t, err)
	assert.Equal(t, slog.LevelDebug, LogLevel.Level())

	require.NoError(t, InitSlog("info"))
	assert.Equal(t, slog.LevelInfo, LogLevel.Level())
}
