package activity

import "time"

// Annotation is the side record an encoding pass keeps for one event.
// It belongs to that pass only and is never shared between passes.
type Annotation struct {
	EventID   EventID   `json:"event_id"`
	LocalTime time.Time `json:"local_time"`
	SegmentID string    `json:"segment_id"`

	// PauseSeconds is the elapsed time since the reference point, or -1 for the
	// first event of a timeline.
	PauseSeconds float64 `json:"pause_seconds"`
	PauseGlyph   string  `json:"pause_glyph,omitempty"`

	// Emissions holds the substring each dimension emitted for this event.
	Emissions map[string]string `json:"emissions,omitempty"`
}

// NewAnnotation starts an annotation for e in the given location.
func NewAnnotation(e *Event, loc *time.Location) *Annotation {
	return &Annotation{
		EventID:      e.ID,
		LocalTime:    LocalTime(e.CreatedAt, loc),
		PauseSeconds: -1,
		Emissions:    make(map[string]string),
	}
}

// Emit records the substring produced for a dimension.
func (a *Annotation) Emit(dimension, s string) {
	a.Emissions[dimension] = s
}
