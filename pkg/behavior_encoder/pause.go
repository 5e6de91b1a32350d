package behavior_encoder

import (
	"time"

	"github.com/jtomasevic/bloc/pkg/activity"
	"github.com/jtomasevic/bloc/pkg/symbols"
)

// Fixed pause breakpoints, in seconds, above the configurable blank and minute marks.
const (
	hourSeconds  = 3600
	daySeconds   = 86400
	weekSeconds  = 604800
	monthSeconds = 2628000
	yearSeconds  = 31540000
)

// PauseBucket quantises elapsed seconds into one of the eight time categories.
func PauseBucket(seconds int64, blankMark, minuteMark time.Duration) string {
	switch {
	case seconds < int64(blankMark/time.Second):
		return symbols.BlankMark
	case seconds < int64(minuteMark/time.Second):
		return symbols.UnderMinuteMark
	case seconds < hourSeconds:
		return symbols.UnderHourMark
	case seconds < daySeconds:
		return symbols.UnderDayMark
	case seconds < weekSeconds:
		return symbols.UnderWeekMark
	case seconds < monthSeconds:
		return symbols.UnderMonthMark
	case seconds < yearSeconds:
		return symbols.UnderYearMark
	default:
		return symbols.OverYearMark
	}
}

type pause struct {
	seconds int64
	glyph   string
}

var noPause = pause{seconds: -1}

// pauseFor measures the pause before cur. prev is nil for the first event.
func (e *BlocEncoder) pauseFor(cur *activity.Event, curLocal time.Time, prev *activity.Annotation) pause {
	var from time.Time
	switch {
	case e.cfg.TimeReference == ReferenceSourceEvent:
		if ref, ok := cur.ReferenceTime(); ok {
			from = activity.LocalTime(ref, e.cfg.Location)
		} else if prev != nil {
			from = prev.LocalTime
		}
	case prev != nil:
		from = prev.LocalTime
	}
	if from.IsZero() {
		return noPause
	}

	seconds := int64(curLocal.Sub(from) / time.Second)
	bucket := PauseBucket(seconds, e.cfg.BlankMark, e.cfg.MinuteMark)
	return pause{seconds: seconds, glyph: e.catalog.Glyph(symbols.SectionTime, bucket)}
}
