package activity

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func account(id string) *Account {
	return &Account{ID: id, Handle: "h_" + id}
}

/*
========================
Classification
========================
*/

func TestEvent_Kind(t *testing.T) {
	post := Event{ID: "1", Account: account("a")}
	require.Equal(t, KindPost, post.Kind())

	reply := Event{ID: "2", Account: account("a"), ReplyTo: &Reference{EventID: "9", AccountID: "b"}}
	require.Equal(t, KindReply, reply.Kind())

	reshare := Event{ID: "3", Account: account("a"), Reshared: &Event{ID: "8", Account: account("b")}}
	require.Equal(t, KindReshare, reshare.Kind())

	both := reshare
	both.ReplyTo = reply.ReplyTo
	require.Equal(t, KindReply, both.Kind())
}

func TestEvent_IsSelfTargeted(t *testing.T) {
	selfReply := Event{Account: account("a"), ReplyTo: &Reference{AccountID: "a"}}
	require.True(t, selfReply.IsSelfTargeted())

	otherReply := Event{Account: account("a"), ReplyTo: &Reference{AccountID: "b"}}
	require.False(t, otherReply.IsSelfTargeted())

	flagged := Event{Account: account("a"), ReplyTo: &Reference{AccountID: "b"}, Relationship: RelationshipSelf}
	require.True(t, flagged.IsSelfTargeted())

	selfReshare := Event{Account: account("a"), Reshared: &Event{Account: account("a")}}
	require.True(t, selfReshare.IsSelfTargeted())

	noAccount := Event{ReplyTo: &Reference{AccountID: ""}}
	require.False(t, noAccount.IsSelfTargeted())

	post := Event{Account: account("a")}
	require.False(t, post.IsSelfTargeted())
}

func TestEvent_Promoted(t *testing.T) {
	ents := &Entities{Hashtags: []Tag{{Text: "go"}}}
	e := Event{ID: "1", Text: "short…", Extended: &Extended{Text: "the full text #go", Entities: ents}}

	p := e.Promoted()
	require.Equal(t, "the full text #go", p.Text)
	require.Same(t, ents, p.Entities)
	require.Nil(t, p.Extended)

	// original untouched
	require.Equal(t, "short…", e.Text)
	require.NotNil(t, e.Extended)

	plain := Event{ID: "2", Text: "x"}
	require.Equal(t, plain, plain.Promoted())
}

func TestEntities_Spans(t *testing.T) {
	var nilEntities *Entities
	require.Nil(t, nilEntities.Spans())

	ents := &Entities{
		Hashtags: []Tag{{Text: "a", Span: &Span{0, 2}}, {Text: "b"}},
		URLs:     []Link{{ExpandedURL: "u", Span: &Span{5, 10}}},
		Media:    []MediaItem{{Span: &Span{11, 20}}},
	}
	require.ElementsMatch(t, []Span{{0, 2}, {5, 10}, {11, 20}}, ents.Spans())
}

/*
========================
Time helpers
========================
*/

func TestSnowflakeTime(t *testing.T) {
	// 1288834974657 + (id >> 22) ms
	id := uint64(1000) << 22
	got, ok := SnowflakeTime(strconv.FormatUint(id, 10))
	require.True(t, ok)
	require.Equal(t, int64(1288834975657), got.UnixMilli())

	_, ok = SnowflakeTime("not-a-number")
	require.False(t, ok)
	_, ok = SnowflakeTime("12")
	require.False(t, ok)
}

func TestEvent_ReferenceTime(t *testing.T) {
	at := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

	reply := Event{ReplyTo: &Reference{EventID: "x", CreatedAt: at}}
	got, ok := reply.ReferenceTime()
	require.True(t, ok)
	require.Equal(t, at, got)

	recovered := Event{ReplyTo: &Reference{EventID: strconv.FormatUint(uint64(5)<<22, 10)}}
	got, ok = recovered.ReferenceTime()
	require.True(t, ok)
	require.Equal(t, int64(1288834974662), got.UnixMilli())

	reshare := Event{Reshared: &Event{ID: "abc", CreatedAt: at}}
	got, ok = reshare.ReferenceTime()
	require.True(t, ok)
	require.Equal(t, at, got)

	post := Event{}
	_, ok = post.ReferenceTime()
	require.False(t, ok)
}

func TestLocalTime(t *testing.T) {
	at := time.Date(2021, 1, 1, 23, 30, 15, 999, time.UTC)
	require.Equal(t, time.Date(2021, 1, 1, 23, 30, 15, 0, time.UTC), LocalTime(at, nil))

	loc := time.FixedZone("plus2", 2*3600)
	local := LocalTime(at, loc)
	require.Equal(t, 2, local.Day())
	require.Equal(t, 1, local.Hour())
}

func TestAnnotation(t *testing.T) {
	e := &Event{ID: "42", CreatedAt: time.Unix(100, 0)}
	a := NewAnnotation(e, time.UTC)
	require.Equal(t, "42", a.EventID)
	require.Equal(t, float64(-1), a.PauseSeconds)
	a.Emit("action", "T")
	require.Equal(t, "T", a.Emissions["action"])
}

/*
========================
Decoding
========================
*/

const lineTimelines = `{"account":"a","events":[{"id":"1","created_at":"2021-01-01T00:00:00Z","account":{"id":"a","handle":"alice","name":"Alice"},"text":"hi"}]}

{"events":[{"id":"2","created_at":"2021-01-02T00:00:00Z","account":{"id":"b","handle":"bob","name":"Bob","followers_count":3}}]}
`

func TestDecodeTimelines_Lines(t *testing.T) {
	tls, err := DecodeTimelines(strings.NewReader(lineTimelines))
	require.NoError(t, err)
	require.Len(t, tls, 2)
	require.Equal(t, "a", tls[0].Account)
	require.Equal(t, "hi", tls[0].Events[0].Text)
	require.Equal(t, "b", tls[1].Account)
	require.NotNil(t, tls[1].Events[0].Account.FollowersCount)
	require.Equal(t, 3, *tls[1].Events[0].Account.FollowersCount)
	require.Nil(t, tls[1].Events[0].Account.FollowingCount)
}

func TestDecodeTimelines_Array(t *testing.T) {
	doc := `  [{"id":"1","created_at":"2021-01-01T00:00:00Z","account":{"id":"z","handle":"z","name":"Z"}}]`
	tls, err := DecodeTimelines(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, tls, 1)
	require.Equal(t, "z", tls[0].Account)

	_, err = DecodeTimelines(strings.NewReader("[]"))
	require.ErrorIs(t, err, ErrEmptyTimeline)

	tls, err = DecodeTimelines(strings.NewReader("   "))
	require.NoError(t, err)
	require.Empty(t, tls)

	_, err = DecodeTimelines(strings.NewReader("{not json"))
	require.Error(t, err)
}

func TestReadTimelinesFile_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timelines.jsonl.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(lineTimelines))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	tls, err := ReadTimelinesFile(path)
	require.NoError(t, err)
	require.Len(t, tls, 2)
}

func TestTimeline_Sorted(t *testing.T) {
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	tl := Timeline{Events: []Event{
		{ID: "c", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base.Add(time.Hour)},
		{ID: "a2", CreatedAt: base},
	}}
	sorted := tl.Sorted()
	var ids []string
	for _, e := range sorted {
		ids = append(ids, e.ID)
	}
	require.Equal(t, []string{"a", "a2", "b", "c"}, ids)
	require.Equal(t, "c", tl.Events[0].ID)
}
