package bloc_analysis

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/bloc/pkg/behavior_encoder"
)

func actionResult(account, bloc string) behavior_encoder.Result {
	return behavior_encoder.Result{
		Account: account,
		Bloc:    map[string]string{action: bloc},
	}
}

type recordingListener struct {
	matches []DriftMatch
}

func (l *recordingListener) OnDrift(m DriftMatch) {
	l.matches = append(l.matches, m)
}

/*
========================
Drift watcher
========================
*/

func TestDriftWatcher_FirstObservationIsBaseline(t *testing.T) {
	w := NewDriftWatcher(nil, DriftConfig{Threshold: -1})
	obs, err := w.Observe(actionResult("1", "T⚀T⚀T⚀T⚀T⚀T"))
	require.NoError(t, err)
	require.True(t, obs.Baseline)

	base, ok := w.Baseline("1")
	require.True(t, ok)
	require.Equal(t, "T⚀T⚀T⚀T⚀T⚀T", base.Models[action].Training)
}

func TestDriftWatcher_FiresOnDrift(t *testing.T) {
	l := &recordingListener{}
	w := NewDriftWatcher(nil, DriftConfig{Threshold: -1, DriftListener: l})

	_, err := w.Observe(actionResult("1", "T⚀T⚀T⚀T⚀T⚀T"))
	require.NoError(t, err)

	similar, err := w.Observe(actionResult("1", "T⚀T⚀T⚀T⚀T"))
	require.NoError(t, err)
	require.False(t, similar.Drifted)
	require.Greater(t, similar.Divergence, -1.0)
	require.Empty(t, l.matches)

	bot, err := w.Observe(actionResult("1", "r□r□r□r□r"))
	require.NoError(t, err)
	require.True(t, bot.Drifted)
	require.Less(t, bot.Divergence, -1.0)
	require.Len(t, l.matches, 1)
	require.Equal(t, "1", l.matches[0].Account)
	require.Equal(t, 1, l.matches[0].Occurrence)
	require.Equal(t, []string{action}, l.matches[0].Dimensions)

	again, err := w.Observe(actionResult("1", "r□r□r□r"))
	require.NoError(t, err)
	require.Equal(t, 2, again.Occurrence)
	require.Len(t, l.matches, 2)
}

func TestDriftWatcher_MinCountAndReset(t *testing.T) {
	l := &recordingListener{}
	w := NewDriftWatcher(nil, DriftConfig{Threshold: -1, MinCount: 2, DriftListener: l})
	w.SetBaseline(profile(t, "1", map[string][]string{action: {"T⚀T⚀T⚀T⚀T⚀T"}}))

	obs, err := w.Observe(actionResult("1", "r□r□r□r□r"))
	require.NoError(t, err)
	require.True(t, obs.Drifted)
	require.Empty(t, l.matches)

	obs, err = w.Observe(actionResult("1", "T⚀T⚀T⚀T"))
	require.NoError(t, err)
	require.False(t, obs.Drifted)
	require.Zero(t, obs.Occurrence)

	_, err = w.Observe(actionResult("1", "r□r□r□r□r"))
	require.NoError(t, err)
	require.Empty(t, l.matches)
	_, err = w.Observe(actionResult("1", "r□r□r□r□r"))
	require.NoError(t, err)
	require.Len(t, l.matches, 1)
	require.Equal(t, 2, l.matches[0].Occurrence)
}

func TestDriftWatcher_SpecAndAccounts(t *testing.T) {
	var got []DriftMatch
	w := NewDriftWatcher(nil, DriftConfig{
		Threshold:     -1,
		Spec:          DriftSpec{Dimensions: map[string]struct{}{content: {}}},
		DriftListener: DriftListenerFunc(func(m DriftMatch) { got = append(got, m) }),
	})
	two := func(account, a, c string) behavior_encoder.Result {
		return behavior_encoder.Result{Account: account, Bloc: map[string]string{action: a, content: c}}
	}

	_, err := w.Observe(two("1", "T⚀T⚀T⚀T", "(t)(t)(t)(t)"))
	require.NoError(t, err)
	_, err = w.Observe(two("2", "T⚀T⚀T⚀T", "(t)(t)(t)(t)"))
	require.NoError(t, err)

	// action changes completely but only content is watched
	obs, err := w.Observe(two("1", "r□r□r□r", "(t)(t)(t)"))
	require.NoError(t, err)
	require.False(t, obs.Drifted)
	require.Empty(t, got)

	_, err = w.Observe(two("1", "T⚀T⚀T⚀T", "(HU)(HU)(HU)(HU)"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, []string{content}, got[0].Dimensions)

	_, err = w.Observe(behavior_encoder.Result{Account: "2", Bloc: map[string]string{content: ""}})
	require.ErrorIs(t, err, ErrNoSequences)
}

func TestDriftWatcher_NoSharedDimension(t *testing.T) {
	w := NewDriftWatcher(nil, DriftConfig{Threshold: -1})
	w.SetBaseline(profile(t, "1", map[string][]string{action: {"T⚀T"}}))
	_, err := w.Observe(behavior_encoder.Result{Account: "1", Bloc: map[string]string{content: "(t)(H)"}})
	require.ErrorIs(t, err, ErrNoSharedDimensions)
}

func TestLogDriftListener(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	LogDriftListener{Log: log}.OnDrift(DriftMatch{Account: "1", Divergence: -2.5, Threshold: -1, Occurrence: 1})
	require.Contains(t, buf.String(), `"account":"1"`)
	require.Contains(t, buf.String(), `"divergence":-2.5`)
	require.Contains(t, buf.String(), "drifted from baseline")
}
