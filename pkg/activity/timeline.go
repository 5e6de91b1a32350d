package activity

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

var ErrEmptyTimeline = errors.New("timeline has no events")

// Timeline is the event history of one account.
type Timeline struct {
	Account AccountID `json:"account"`
	Events  []Event   `json:"events"`
}

// Sorted returns the events ordered by creation time. Ties keep their input order.
// The receiver is not modified.
func (t Timeline) Sorted() []Event {
	out := make([]Event, len(t.Events))
	copy(out, t.Events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// DecodeTimelines reads timelines from r. Two layouts are accepted: a JSON array
// of events (one timeline, account taken from the first event), or one Timeline
// object per line.
func DecodeTimelines(r io.Reader) ([]Timeline, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	if first == '[' {
		var events []Event
		if err := json.NewDecoder(br).Decode(&events); err != nil {
			return nil, fmt.Errorf("decode event array: %w", err)
		}
		if len(events) == 0 {
			return nil, ErrEmptyTimeline
		}
		return []Timeline{{Account: events[0].AccountID(), Events: events}}, nil
	}

	var out []Timeline
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var tl Timeline
		if err := json.Unmarshal(raw, &tl); err != nil {
			return nil, fmt.Errorf("decode timeline on line %d: %w", line, err)
		}
		if tl.Account == "" && len(tl.Events) > 0 {
			tl.Account = tl.Events[0].AccountID()
		}
		out = append(out, tl)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read timelines: %w", err)
	}
	return out, nil
}

// ReadTimelinesFile opens path, transparently gunzipping *.gz files.
func ReadTimelinesFile(path string) ([]Timeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open timelines: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip timelines: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return DecodeTimelines(r)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b, br.UnreadByte()
	}
}
