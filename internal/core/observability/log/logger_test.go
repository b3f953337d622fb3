package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		" warn ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"fatal":   LevelFatal,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestLevelSharedWithDerivedLoggers(t *testing.T) {
	logger := NewWithOptions(Options{Level: LevelInfo, OutputPaths: []string{filepath.Join(t.TempDir(), "out.log")}})
	child := logger.With(String("component", "test"))

	logger.SetLevel(LevelError)
	assert.Equal(t, LevelError, logger.GetLevel())
	assert.Equal(t, LevelError, child.GetLevel())
}

func TestWritesJSONWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger := NewWithOptions(Options{Level: LevelDebug, OutputPaths: []string{path}})

	logger.With(String("component", "picker")).Warn("invalid geometry",
		String("object_id", "abc"),
		Int("candidates", 3),
		Error(errors.New("nan vertex")))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"msg":"invalid geometry"`), line)
	assert.True(t, strings.Contains(line, `"component":"picker"`), line)
	assert.True(t, strings.Contains(line, `"object_id":"abc"`), line)
	assert.True(t, strings.Contains(line, `"error":"nan vertex"`), line)
}

func TestLogRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger := NewWithOptions(Options{Level: LevelWarn, OutputPaths: []string{path}})

	logger.Log(LevelInfo, "dropped")
	logger.Log(LevelError, "kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Info("nothing")
	logger.With(Bool("x", true)).Error("still nothing")
}
