package behavior_encoder

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SegmentDelimiter separates segments in an aggregate BLOC string.
const SegmentDelimiter = " | "

// SegmentID buckets a local timestamp. Week ids use the ISO year and week, so
// the last days of December can land in week 1 of the next year.
func SegmentID(local time.Time, s Segmentation, daysPerSegment int) string {
	switch s {
	case SegmentByDate:
		return local.Format("2006-01-02")
	case SegmentByDayOfYearBin:
		if daysPerSegment <= 0 {
			daysPerSegment = 1
		}
		return fmt.Sprintf("%04d.%03d", local.Year(), (local.YearDay()-1)/daysPerSegment)
	default:
		year, week := local.ISOWeek()
		return fmt.Sprintf("%04d.%03d", year, week)
	}
}

// Segments accumulates per-dimension emissions keyed by segment id.
type Segments map[string]map[Dimension]string

func (s Segments) appendTo(id string, dim Dimension, emission string) {
	seg, ok := s[id]
	if !ok {
		seg = make(map[Dimension]string)
		s[id] = seg
	}
	seg[dim] += emission
}

// IDs returns the segment ids in ascending order.
func (s Segments) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply rewrites one dimension of every segment with fn.
func (s Segments) Apply(dim Dimension, fn func(string) string) {
	for _, seg := range s {
		if v, ok := seg[dim]; ok {
			seg[dim] = fn(v)
		}
	}
}

// Aggregate joins the segments of each dimension in ascending id order.
// Empty slots add no delimiter and every listed dimension is present in the
// result, empty when nothing was emitted.
func Aggregate(segments Segments, dimensions []Dimension) map[Dimension]string {
	builders := make(map[Dimension]*strings.Builder, len(dimensions))
	for _, d := range dimensions {
		builders[d] = &strings.Builder{}
	}
	for _, id := range segments.IDs() {
		for _, d := range dimensions {
			v := segments[id][d]
			if v == "" {
				continue
			}
			builders[d].WriteString(v)
			builders[d].WriteString(SegmentDelimiter)
		}
	}

	out := make(map[Dimension]string, len(dimensions))
	for d, b := range builders {
		out[d] = strings.TrimSpace(strings.TrimSuffix(b.String(), SegmentDelimiter))
	}
	return out
}
