package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/bloc/pkg/markov_chain"
)

const timelinesFixture = `{"account":"1","events":[` +
	`{"id":"101","created_at":"2021-01-04T10:00:00Z","account":{"id":"1","handle":"alice"},"text":"morning"},` +
	`{"id":"102","created_at":"2021-01-04T10:30:00Z","account":{"id":"1","handle":"alice"},"text":"again"},` +
	`{"id":"103","created_at":"2021-01-04T12:00:00Z","account":{"id":"1","handle":"alice"},"text":"@bob yes","reply_to":{"event_id":"900","account_id":"2"},"relationship":"non_friend"}]}
{"account":"2","events":[` +
	`{"id":"201","created_at":"2021-01-04T09:00:00Z","account":{"id":"2","handle":"bob"},"text":"hello"},` +
	`{"id":"202","created_at":"2021-01-06T09:00:00Z","account":{"id":"2","handle":"bob"},"reshared":{"id":"901","created_at":"2021-01-05T09:00:00Z","account":{"id":"3","handle":"carol"},"text":"news"},"relationship":"non_friend"}]}
`

func writeFixture(t *testing.T) (timelines, db string) {
	t.Helper()
	dir := t.TempDir()
	timelines = filepath.Join(dir, "timelines.jsonl")
	require.NoError(t, os.WriteFile(timelines, []byte(timelinesFixture), 0o600))
	return timelines, filepath.Join(dir, "models.db")
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), errOut.String())
	return out.String()
}

func TestEncode_Text(t *testing.T) {
	timelines, _ := writeFixture(t)
	out := run(t, "encode", "--dimensions", "action", timelines)
	require.Contains(t, out, "T⚀T⚁p")
	require.Contains(t, out, "T⚂r")
}

func TestEncode_ColorFollowsTerminal(t *testing.T) {
	timelines, _ := writeFixture(t)
	out := run(t, "encode", "--color", "--dimensions", "action", timelines)
	// Test output is not a terminal, so styling degrades to plain text.
	require.Contains(t, out, "action: T⚀T⚁p\n")
	require.NotContains(t, out, "\x1b[")
}

func TestEncode_JSON(t *testing.T) {
	timelines, _ := writeFixture(t)
	out := run(t, "encode", "-o", "json", "--dimensions", "action,time", timelines)

	var entries []struct {
		Account     string `json:"account"`
		Fingerprint string `json:"fingerprint"`
		Result      struct {
			Bloc map[string]string `json:"bloc"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	require.Equal(t, "1", entries[0].Account)
	require.Equal(t, "T⚀T⚁p", entries[0].Result.Bloc["action"])
	require.Equal(t, "⚀⚁", entries[0].Result.Bloc["time"])
	require.Equal(t, "T⚂r", entries[1].Result.Bloc["action"])
	require.Len(t, entries[0].Fingerprint, 16)
}

func TestEncode_SocialFingerprint(t *testing.T) {
	timelines, _ := writeFixture(t)
	out := run(t, "encode", "--dimensions", "action", "--social-fingerprint", timelines)
	require.Contains(t, out, ": AAC\n")
	require.Contains(t, out, ": AT\n")
}

func TestEncode_RejectsBadFlags(t *testing.T) {
	timelines, _ := writeFixture(t)
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"encode", "--segmentation", "fortnight", timelines})
	require.Error(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"encode", "-o", "yaml", timelines})
	require.Error(t, cmd.Execute())
}

func TestTrainScoreAndModels(t *testing.T) {
	timelines, db := writeFixture(t)

	out := run(t, "train", "--db", db, "--dimensions", "action", "-o", "json", timelines)
	var trained []struct {
		ID        string `json:"id"`
		Account   string `json:"account"`
		Dimension string `json:"dimension"`
		States    int    `json:"states"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &trained))
	require.Len(t, trained, 2)
	require.Equal(t, "1", trained[0].Account)
	require.Equal(t, 4, trained[0].States)
	require.NotEmpty(t, trained[0].ID)

	list := run(t, "models", "list", "--db", db, "-o", "json")
	require.Contains(t, list, trained[0].ID)
	require.Contains(t, list, trained[1].ID)

	out = run(t, "score", "--db", db, "--account", "1", "--dimension", "action", "-o", "json", "T⚀T", "")
	var scored []struct {
		Sequence    string   `json:"sequence"`
		Probability *float64 `json:"probability"`
		Error       string   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &scored))
	require.Len(t, scored, 2)
	require.NotNil(t, scored[0].Probability)
	require.Less(t, *scored[0].Probability, 0.0)
	require.Nil(t, scored[1].Probability)
	require.Contains(t, scored[1].Error, "empty sequence")

	show := run(t, "models", "show", "--db", db, trained[0].ID)
	require.Contains(t, show, "1/action")
	require.Contains(t, show, "*")

	exported := filepath.Join(t.TempDir(), "alice.json.gz")
	run(t, "models", "export", "--db", db, trained[0].ID, exported)
	m, err := markov_chain.LoadFile(exported)
	require.NoError(t, err)
	require.Equal(t, "1/action", m.Label)

	run(t, "models", "delete", "--db", db, trained[1].ID)
	list = run(t, "models", "list", "--db", db, "-o", "json")
	require.NotContains(t, list, trained[1].ID)
}

func TestTrain_OutFileThenScore(t *testing.T) {
	_, db := writeFixture(t)
	dir := t.TempDir()
	single := filepath.Join(dir, "alice.jsonl")
	first := strings.SplitN(timelinesFixture, "\n", 2)[0] + "\n"
	require.NoError(t, os.WriteFile(single, []byte(first), 0o600))
	modelPath := filepath.Join(dir, "alice.json")

	run(t, "train", "--db", db, "--save=false", "--dimensions", "action", "--out", modelPath, single)

	stateless := run(t, "score", "--model", modelPath, "T⚀TX", "T⚀T")
	stateful := run(t, "score", "--model", modelPath, "--stateful", "T⚀TX", "T⚀T")
	lines := strings.Split(strings.TrimSpace(stateless), "\n")
	require.Len(t, lines, 2)
	// the first call is identical on both paths; the second differs once the
	// stateful chain has absorbed X
	require.Equal(t, lines[0], strings.Split(strings.TrimSpace(stateful), "\n")[0])
	require.NotEqual(t, lines[1], strings.Split(strings.TrimSpace(stateful), "\n")[1])
}

func TestCompare_JSON(t *testing.T) {
	timelines, _ := writeFixture(t)
	out := run(t, "compare", "--dimensions", "action", "-o", "json", timelines)

	var res struct {
		Accounts   []string    `json:"accounts"`
		Divergence [][]float64 `json:"divergence"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, []string{"1", "2"}, res.Accounts)
	require.Len(t, res.Divergence, 2)
	require.Equal(t, res.Divergence[0][1], res.Divergence[1][0])
	require.Greater(t, res.Divergence[0][0], res.Divergence[0][1])
}

func TestRenderMatrix(t *testing.T) {
	m, err := markov_chain.Train([]string{"ab"}, "tiny")
	require.NoError(t, err)
	out := renderMatrix(m)
	require.Contains(t, out, "tiny")
	require.Contains(t, out, "0*")
	require.Contains(t, out, "1")
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}
