package activity

import (
	"strconv"
	"time"
)

// snowflakeEpochMillis is the custom epoch of snowflake ids, in Unix milliseconds.
const snowflakeEpochMillis = 1288834974657

// LocalTime converts t to loc at second precision. A nil location means UTC.
func LocalTime(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Truncate(time.Second)
}

// SnowflakeTime recovers the creation time embedded in a numeric snowflake id.
// It reports false when the id is not numeric or predates the snowflake epoch.
func SnowflakeTime(id string) (time.Time, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n>>22 == 0 {
		return time.Time{}, false
	}
	ms := int64(n>>22) + snowflakeEpochMillis
	return time.UnixMilli(ms).UTC(), true
}

// ReferenceTime returns the time of the event e responds to: the reply target's
// time (recovered from its id when not attached) or the reshared post's time.
// Plain posts and unresolved targets report false.
func (e *Event) ReferenceTime() (time.Time, bool) {
	switch e.Kind() {
	case KindReply:
		if !e.ReplyTo.CreatedAt.IsZero() {
			return e.ReplyTo.CreatedAt, true
		}
		return SnowflakeTime(e.ReplyTo.EventID)
	case KindReshare:
		if !e.Reshared.CreatedAt.IsZero() {
			return e.Reshared.CreatedAt, true
		}
		return SnowflakeTime(e.Reshared.ID)
	default:
		return time.Time{}, false
	}
}
