package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/bloc/pkg/behavior_encoder"
)

func applied(t *testing.T, opts []behavior_encoder.Option) behavior_encoder.Config {
	t.Helper()
	cfg := behavior_encoder.DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func clearBlocEnv(t *testing.T) {
	for _, key := range []string{
		"BLOC_BLANK_MARK", "BLOC_MINUTE_MARK", "BLOC_DIMENSIONS", "BLOC_SEGMENTATION",
		"BLOC_DAYS_PER_SEGMENT", "BLOC_FOLD_THRESHOLD", "BLOC_TIME_REFERENCE", "BLOC_TIMEZONE",
		"BLOC_SORT_ACTION_WORDS", "BLOC_CHANGE_ON_ALL_EVENTS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("FOO", "")
	require.Equal(t, "bar", GetEnv("FOO", "bar"))
	t.Setenv("FOO", "baz")
	require.Equal(t, "baz", GetEnv("FOO", "bar"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("NUM", "")
	require.Equal(t, 42, GetEnvInt("NUM", 42))
	t.Setenv("NUM", "100")
	require.Equal(t, 100, GetEnvInt("NUM", 42))
	t.Setenv("NUM", "notint")
	require.Equal(t, 7, GetEnvInt("NUM", 7))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG", "")
	require.True(t, GetEnvBool("FLAG", true))
	t.Setenv("FLAG", "false")
	require.False(t, GetEnvBool("FLAG", true))
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	require.Equal(t, logrus.DebugLevel, GetLogLevel())
	t.Setenv("LOG_LEVEL", "warn")
	require.Equal(t, logrus.WarnLevel, GetLogLevel())
	t.Setenv("LOG_LEVEL", "")
	require.Equal(t, logrus.InfoLevel, GetLogLevel())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BLOC_MODEL_DB=from-env-file.db\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("BLOC_MODEL_DB", "")

	LoadEnv(logrus.New())
	require.Equal(t, "from-env-file.db", StorePath())
}

func TestLoadEnv_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	LoadEnv(nil)
	LoadEnv(logrus.New())
}

func TestStorePath_Default(t *testing.T) {
	t.Setenv("BLOC_MODEL_DB", "")
	require.Equal(t, DefaultStorePath, StorePath())
}

func TestEncoderOptionsFromEnv_Unset(t *testing.T) {
	clearBlocEnv(t)
	opts, err := EncoderOptionsFromEnv()
	require.NoError(t, err)
	require.Empty(t, opts)
}

func TestEncoderOptionsFromEnv(t *testing.T) {
	clearBlocEnv(t)
	t.Setenv("BLOC_BLANK_MARK", "30")
	t.Setenv("BLOC_MINUTE_MARK", "10m")
	t.Setenv("BLOC_DIMENSIONS", "action, change,time")
	t.Setenv("BLOC_DAYS_PER_SEGMENT", "7")
	t.Setenv("BLOC_FOLD_THRESHOLD", "3")
	t.Setenv("BLOC_TIME_REFERENCE", "reference")
	t.Setenv("BLOC_TIMEZONE", "UTC")
	t.Setenv("BLOC_SORT_ACTION_WORDS", "true")
	t.Setenv("BLOC_CHANGE_ON_ALL_EVENTS", "1")

	opts, err := EncoderOptionsFromEnv()
	require.NoError(t, err)
	cfg := applied(t, opts)

	require.Equal(t, 30*time.Second, cfg.BlankMark)
	require.Equal(t, 10*time.Minute, cfg.MinuteMark)
	require.Equal(t, []string{"action", "change", "time"}, cfg.Dimensions)
	require.Equal(t, behavior_encoder.SegmentByDayOfYearBin, cfg.Segmentation)
	require.Equal(t, 7, cfg.DaysPerSegment)
	require.Equal(t, 3, cfg.FoldThreshold)
	require.Equal(t, behavior_encoder.ReferenceSourceEvent, cfg.TimeReference)
	require.Equal(t, time.UTC, cfg.Location)
	require.True(t, cfg.SortActionWords)
	require.True(t, cfg.ChangeOnAllEvents)
	require.NoError(t, cfg.Validate())
}

func TestEncoderOptionsFromEnv_ReportsEveryProblem(t *testing.T) {
	clearBlocEnv(t)
	t.Setenv("BLOC_BLANK_MARK", "soon")
	t.Setenv("BLOC_DIMENSIONS", "action,mood")
	t.Setenv("BLOC_SEGMENTATION", "fortnight")
	t.Setenv("BLOC_TIMEZONE", "Mars/Olympus_Mons")

	_, err := EncoderOptionsFromEnv()
	require.Error(t, err)
	require.ErrorIs(t, err, behavior_encoder.ErrUnknownDimension)
	require.ErrorIs(t, err, behavior_encoder.ErrUnknownSegmentation)
	require.Contains(t, err.Error(), "BLOC_BLANK_MARK")
	require.Contains(t, err.Error(), "BLOC_TIMEZONE")
}

func TestParseDimensions(t *testing.T) {
	all, err := ParseDimensions("all")
	require.NoError(t, err)
	require.Equal(t, behavior_encoder.AllDimensions, all)

	dims, err := ParseDimensions("action,,content_syntactic")
	require.NoError(t, err)
	require.Equal(t, []string{"action", "content_syntactic"}, dims)
}

func TestParseSeconds(t *testing.T) {
	d, err := ParseSeconds("1.5")
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, d)

	d, err = ParseSeconds("2h")
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, d)

	_, err = ParseSeconds("later")
	require.Error(t, err)
}
