package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithComponent(t *testing.T) {
	l := NewLoggerWithComponent("encoder")
	entry := l.WithField("k", "v")
	require.NotNil(t, entry)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	require.Equal(t, logrus.WarnLevel, ParseLevel(" WARN "))
	require.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	require.Equal(t, logrus.InfoLevel, ParseLevel(""))
	require.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}

func TestDiscard(t *testing.T) {
	l := Discard()
	require.False(t, l.IsLevelEnabled(logrus.ErrorLevel))
}
