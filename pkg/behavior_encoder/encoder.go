package behavior_encoder

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jtomasevic/bloc/internal/logging"
	"github.com/jtomasevic/bloc/pkg/activity"
	"github.com/jtomasevic/bloc/pkg/symbols"
)

// Skip reasons recorded in Result.Skipped.
const (
	SkipMissingTimestamp = "missing_timestamp"
	SkipMissingEntities  = "missing_entities"
	SkipSentimentFailed  = "sentiment_failed"
)

// AllDimensionsMarker is the dimension of a skip that dropped the whole event.
const AllDimensionsMarker = "*"

// Encoder turns one account's timeline into BLOC strings.
type Encoder interface {
	Encode(events []activity.Event) (Result, error)
}

// Skip records an event left out of one dimension (or all of them).
type Skip struct {
	EventID   activity.EventID `json:"event_id"`
	Dimension Dimension        `json:"dimension"`
	Reason    string           `json:"reason"`
}

// Result is the output of one encoding pass.
type Result struct {
	RunID   uuid.UUID          `json:"run_id"`
	Account activity.AccountID `json:"account"`
	Handle  string             `json:"handle"`

	// Bloc holds one aggregate string per configured dimension.
	Bloc map[Dimension]string `json:"bloc"`

	Segments       Segments     `json:"segments,omitempty"`
	SegmentCount   int          `json:"segment_count"`
	Segmentation   Segmentation `json:"segmentation"`
	DaysPerSegment int          `json:"days_per_segment,omitempty"`

	Annotations []*activity.Annotation `json:"annotations,omitempty"`
	Skipped     []Skip                 `json:"skipped,omitempty"`

	CreatedAt time.Time `json:"created_at_utc"`
}

// IsEmpty reports whether the result carries no encoding.
func (r Result) IsEmpty() bool {
	return r.Bloc == nil
}

type BlocEncoder struct {
	catalog *symbols.Catalog
	cfg     Config
	log     logrus.FieldLogger
}

// NewEncoder binds a catalog and configuration. The catalog is validated on every
// Encode call so a broken catalog never yields a partial encoding.
func NewEncoder(catalog *symbols.Catalog, opts ...Option) *BlocEncoder {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Sentiment == nil {
		cfg.Sentiment = NewLexiconAnalyzer()
	}
	if len(cfg.Dimensions) == 0 {
		cfg.Dimensions = append([]Dimension(nil), DefaultDimensions...)
	}
	return &BlocEncoder{catalog: catalog, cfg: cfg, log: cfg.Logger}
}

func (e *BlocEncoder) Config() Config {
	return e.cfg
}

// EncodeTimeline encodes tl and stamps the result with its account.
func (e *BlocEncoder) EncodeTimeline(tl activity.Timeline) (Result, error) {
	res, err := e.Encode(tl.Events)
	if err != nil {
		return res, err
	}
	if res.Account == "" {
		res.Account = tl.Account
	}
	return res, nil
}

// Encode runs one pass over events. Configuration and catalog problems abort before
// any event is read and return an empty Result. Per-event data problems only drop
// the affected dimension and are listed in Result.Skipped.
func (e *BlocEncoder) Encode(events []activity.Event) (Result, error) {
	if err := e.check(); err != nil {
		e.log.WithError(err).Error("encoder configuration rejected")
		return Result{}, err
	}

	started := time.Now()
	run := &encodeRun{
		enc:      e,
		segments: Segments{},
		pauses:   e.catalog.PauseGlyphs(),
		actions:  e.catalog.ActionGlyphs(),
	}

	for _, ev := range e.ordered(events, run) {
		run.encodeEvent(ev)
	}

	if e.cfg.wants(DimensionActionContentSyntactic) {
		run.segments.Apply(DimensionActionContentSyntactic, func(s string) string {
			return MoveContentBehindActions(s, run.pauses, run.actions)
		})
	}
	if e.cfg.wants(DimensionContentSyntacticWithPauses) {
		run.segments.Apply(DimensionContentSyntacticWithPauses, func(s string) string {
			return MoveContentBehindActions(s, run.pauses, run.actions)
		})
	}
	if e.cfg.SortActionWords {
		sortWords := func(s string) string { return SortActionWords(s, run.pauses, run.actions) }
		run.segments.Apply(DimensionAction, sortWords)
		run.segments.Apply(DimensionActionContentSyntactic, sortWords)
	}

	res := Result{
		RunID:          uuid.New(),
		Account:        run.account,
		Handle:         run.handle,
		Bloc:           Aggregate(run.segments, e.cfg.Dimensions),
		SegmentCount:   len(run.segments),
		Segmentation:   e.cfg.Segmentation,
		DaysPerSegment: e.cfg.DaysPerSegment,
		Skipped:        run.skipped,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if e.cfg.KeepSegments {
		res.Segments = run.segments
	}
	if e.cfg.KeepAnnotations {
		res.Annotations = run.annotations
	}

	e.cfg.Metrics.ObserveEncode(started, res.SegmentCount)
	e.log.WithFields(logrus.Fields{
		"account":  res.Account,
		"events":   len(events),
		"segments": res.SegmentCount,
		"skipped":  len(res.Skipped),
	}).Debug("timeline encoded")
	return res, nil
}

func (e *BlocEncoder) check() error {
	if e.catalog == nil {
		return ErrNilCatalog
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if err := e.catalog.Validate(); err != nil {
		return fmt.Errorf("encoder: %w", err)
	}
	return nil
}

type timedEvent struct {
	ev    *activity.Event
	local time.Time
}

// ordered promotes stream payloads, drops events without a timestamp and sorts
// the rest by local time. Ties keep input order.
func (e *BlocEncoder) ordered(events []activity.Event, run *encodeRun) []timedEvent {
	out := make([]timedEvent, 0, len(events))
	for i := range events {
		if events[i].CreatedAt.IsZero() {
			run.skip(events[i].ID, AllDimensionsMarker, SkipMissingTimestamp)
			continue
		}
		ev := events[i].Promoted()
		out = append(out, timedEvent{ev: &ev, local: activity.LocalTime(ev.CreatedAt, e.cfg.Location)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].local.Before(out[j].local)
	})
	return out
}

// encodeRun is the state owned by a single Encode call.
type encodeRun struct {
	enc *BlocEncoder

	segments    Segments
	annotations []*activity.Annotation
	skipped     []Skip

	pauses  []string
	actions []string

	prev    *activity.Event
	prevAnn *activity.Annotation

	account activity.AccountID
	handle  string
}

func (r *encodeRun) skip(id activity.EventID, dim Dimension, reason string) {
	r.skipped = append(r.skipped, Skip{EventID: id, Dimension: dim, Reason: reason})
	r.enc.cfg.Metrics.EventSkipped(dim, reason)
	r.enc.log.WithFields(logrus.Fields{
		"account":   r.account,
		"event_id":  id,
		"dimension": dim,
		"reason":    reason,
	}).Warn("event skipped")
}

func (r *encodeRun) encodeEvent(te timedEvent) {
	e := r.enc
	ev := te.ev
	if r.account == "" {
		r.account, r.handle = ev.AccountID(), ev.Handle()
	}

	ann := activity.NewAnnotation(ev, e.cfg.Location)
	ann.SegmentID = SegmentID(ann.LocalTime, e.cfg.Segmentation, e.cfg.DaysPerSegment)

	p := e.pauseFor(ev, ann.LocalTime, r.prevAnn)
	ann.PauseSeconds = float64(p.seconds)
	ann.PauseGlyph = p.glyph

	for _, dim := range e.cfg.Dimensions {
		emission, ok := r.emit(dim, ev, p)
		if !ok {
			continue
		}
		ann.Emit(dim, emission)
		r.segments.appendTo(ann.SegmentID, dim, emission)
		e.cfg.Metrics.EventEncoded(dim)
	}

	if e.cfg.KeepAnnotations {
		r.annotations = append(r.annotations, ann)
	}
	r.prev, r.prevAnn = ev, ann
}

// emit produces one dimension's substring for ev. It reports false when the
// event is skipped for that dimension.
func (r *encodeRun) emit(dim Dimension, ev *activity.Event, p pause) (string, bool) {
	e := r.enc
	switch dim {
	case DimensionAction:
		return p.glyph + e.catalog.Glyph(symbols.SectionAction, ActionCategory(ev)), true

	case DimensionTime:
		return p.glyph, true

	case DimensionContentSyntactic, DimensionContentSyntacticWithPauses, DimensionActionContentSyntactic:
		content := ""
		if src, ok := contentSource(ev, e.cfg.ReshareContent); ok {
			cats, err := ContentSyntacticCategories(src, e.cfg.TextGlyph)
			if err != nil {
				r.skip(ev.ID, dim, SkipMissingEntities)
				return "", false
			}
			content = e.group(symbols.SectionContentSyntactic, cats)
		}
		switch dim {
		case DimensionActionContentSyntactic:
			return p.glyph + e.catalog.Glyph(symbols.SectionAction, ActionCategory(ev)) + content, true
		case DimensionContentSyntacticWithPauses:
			if content == "" {
				return "", true
			}
			return p.glyph + content, true
		}
		return content, true

	case DimensionContentSemanticEntity:
		src, ok := contentSource(ev, e.cfg.ReshareContent)
		if !ok {
			return "", true
		}
		cats, err := SemanticEntityCategories(src)
		if err != nil {
			r.skip(ev.ID, dim, SkipMissingEntities)
			return "", false
		}
		return e.group(symbols.SectionContentSemanticEntities, cats), true

	case DimensionContentSemanticSentiment:
		if ev.Entities == nil {
			r.skip(ev.ID, dim, SkipMissingEntities)
			return "", false
		}
		blanked := blankEntities(ev.Text, ev.Entities)
		if blanked == "" {
			return "", true
		}
		// Text made only of entities still scores, as neutral.
		var polarity float64
		if text := strings.TrimSpace(blanked); text != "" {
			var err error
			polarity, err = e.cfg.Sentiment.Polarity(text)
			if err != nil {
				e.log.WithError(err).WithField("event_id", ev.ID).Warn("sentiment analysis failed")
				r.skip(ev.ID, dim, SkipSentimentFailed)
				return "", false
			}
		}
		return p.glyph + e.catalog.Glyph(symbols.SectionContentSemanticSentiment, SentimentCategory(polarity)), true

	case DimensionChange:
		if r.prev == nil || (!e.cfg.ChangeOnAllEvents && ev.Kind() != activity.KindReply) {
			return "", true
		}
		changes := DetectChanges(r.prev, ev)
		for _, ch := range changes {
			e.log.WithFields(logrus.Fields{
				"account":  r.account,
				"event_id": ev.ID,
				"check":    ch.Category,
				"previous": ch.Previous,
				"current":  ch.Current,
			}).Debug("account change detected")
		}
		group := e.changeGroup(changes)
		if group != "" && e.cfg.ChangeAddPause {
			group = p.glyph + group
		}
		return group, true
	}
	return "", false
}
