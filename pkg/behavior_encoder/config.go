package behavior_encoder

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jtomasevic/bloc/internal/logging"
	"github.com/jtomasevic/bloc/internal/metrics"
)

type Dimension = string

const (
	DimensionAction                     Dimension = "action"
	DimensionContentSyntactic           Dimension = "content_syntactic"
	DimensionContentSyntacticWithPauses Dimension = "content_syntactic_with_pauses"
	DimensionContentSemanticEntity      Dimension = "content_semantic_entity"
	DimensionContentSemanticSentiment   Dimension = "content_semantic_sentiment"
	DimensionChange                     Dimension = "change"
	DimensionTime                       Dimension = "time"
	DimensionActionContentSyntactic     Dimension = "action_content_syntactic"
)

// AllDimensions lists every dimension the encoder knows how to emit.
var AllDimensions = []Dimension{
	DimensionAction,
	DimensionContentSyntactic,
	DimensionContentSyntacticWithPauses,
	DimensionContentSemanticEntity,
	DimensionContentSemanticSentiment,
	DimensionChange,
	DimensionTime,
	DimensionActionContentSyntactic,
}

// DefaultDimensions is the set emitted when no dimensions are configured.
var DefaultDimensions = []Dimension{
	DimensionAction,
	DimensionContentSyntactic,
	DimensionContentSemanticEntity,
}

type Segmentation string

const (
	SegmentByWeek         Segmentation = "week_number"
	SegmentByDayOfYearBin Segmentation = "day_of_year_bin"
	SegmentByDate         Segmentation = "yyyy-mm-dd"
)

// TimeReference selects what a pause is measured against.
type TimeReference string

const (
	// ReferencePreviousEvent measures from the preceding event of the timeline.
	ReferencePreviousEvent TimeReference = "previous_event"
	// ReferenceSourceEvent measures replies from the replied-to event and reshares
	// from the original post. Plain posts fall back to the preceding event.
	ReferenceSourceEvent TimeReference = "reference_event"
)

var (
	ErrNilCatalog            = errors.New("encoder: symbol catalog is nil")
	ErrUnknownDimension      = errors.New("encoder: unknown dimension")
	ErrUnknownSegmentation   = errors.New("encoder: unknown segmentation")
	ErrUnknownTimeReference  = errors.New("encoder: unknown time reference")
	ErrInvalidPauseThreshold = errors.New("encoder: pause thresholds must be positive")
	ErrInvalidDaysPerSegment = errors.New("encoder: day-of-year segmentation needs a positive bin width")
)

// Config controls a BlocEncoder. Build it with DefaultConfig and adjust it with options.
type Config struct {
	BlankMark  time.Duration
	MinuteMark time.Duration

	Dimensions     []Dimension
	Segmentation   Segmentation
	DaysPerSegment int

	// FoldThreshold caps runs of repeated change glyphs. Zero disables folding.
	FoldThreshold int
	TimeReference TimeReference

	SortActionWords   bool
	ChangeAddPause    bool
	ChangeOnAllEvents bool
	ReshareContent    bool
	TextGlyph         bool

	Location  *time.Location
	Sentiment SentimentAnalyzer

	Logger  logrus.FieldLogger
	Metrics *metrics.Collector

	KeepAnnotations bool
	KeepSegments    bool
}

// Option adjusts a Config.
type Option func(*Config)

func DefaultConfig() Config {
	return Config{
		BlankMark:      60 * time.Second,
		MinuteMark:     5 * time.Minute,
		Dimensions:     append([]Dimension(nil), DefaultDimensions...),
		Segmentation:   SegmentByWeek,
		FoldThreshold:  5,
		TimeReference:  ReferencePreviousEvent,
		ReshareContent: true,
		TextGlyph:      true,
		Location:       time.UTC,
		Sentiment:      NewLexiconAnalyzer(),
		Logger:         logging.Discard(),
		KeepSegments:   true,
	}
}

func WithBlankMark(d time.Duration) Option {
	return func(c *Config) {
		c.BlankMark = d
	}
}

func WithMinuteMark(d time.Duration) Option {
	return func(c *Config) {
		c.MinuteMark = d
	}
}

func WithDimensions(dimensions ...Dimension) Option {
	return func(c *Config) {
		c.Dimensions = append([]Dimension(nil), dimensions...)
	}
}

func WithSegmentation(s Segmentation) Option {
	return func(c *Config) {
		c.Segmentation = s
	}
}

// WithDaysPerSegment bins events by day of year, n days per bin.
// A positive n switches segmentation to SegmentByDayOfYearBin.
func WithDaysPerSegment(n int) Option {
	return func(c *Config) {
		c.DaysPerSegment = n
		if n > 0 {
			c.Segmentation = SegmentByDayOfYearBin
		}
	}
}

func WithFoldThreshold(n int) Option {
	return func(c *Config) {
		c.FoldThreshold = n
	}
}

func WithTimeReference(r TimeReference) Option {
	return func(c *Config) {
		c.TimeReference = r
	}
}

func WithSortActionWords(sort bool) Option {
	return func(c *Config) {
		c.SortActionWords = sort
	}
}

// WithChangeAddPause prefixes change groups with the event's pause glyph.
func WithChangeAddPause(add bool) Option {
	return func(c *Config) {
		c.ChangeAddPause = add
	}
}

// WithChangeOnAllEvents evaluates change checks on every event instead of replies only.
func WithChangeOnAllEvents(all bool) Option {
	return func(c *Config) {
		c.ChangeOnAllEvents = all
	}
}

// WithReshareContent controls whether reshares emit the content of the reshared post.
func WithReshareContent(include bool) Option {
	return func(c *Config) {
		c.ReshareContent = include
	}
}

func WithTextGlyph(emit bool) Option {
	return func(c *Config) {
		c.TextGlyph = emit
	}
}

func WithLocation(loc *time.Location) Option {
	return func(c *Config) {
		c.Location = loc
	}
}

func WithSentiment(a SentimentAnalyzer) Option {
	return func(c *Config) {
		c.Sentiment = a
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

func WithKeepAnnotations(keep bool) Option {
	return func(c *Config) {
		c.KeepAnnotations = keep
	}
}

func WithKeepSegments(keep bool) Option {
	return func(c *Config) {
		c.KeepSegments = keep
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.BlankMark <= 0 || c.MinuteMark <= 0 {
		errs = append(errs, ErrInvalidPauseThreshold)
	}
	for _, d := range c.Dimensions {
		if !isKnownDimension(d) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDimension, d))
		}
	}
	switch c.Segmentation {
	case SegmentByWeek, SegmentByDate:
	case SegmentByDayOfYearBin:
		if c.DaysPerSegment <= 0 {
			errs = append(errs, ErrInvalidDaysPerSegment)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownSegmentation, c.Segmentation))
	}
	switch c.TimeReference {
	case ReferencePreviousEvent, ReferenceSourceEvent:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownTimeReference, c.TimeReference))
	}
	return errors.Join(errs...)
}

func (c Config) wants(d Dimension) bool {
	for _, have := range c.Dimensions {
		if have == d {
			return true
		}
	}
	return false
}

func isKnownDimension(d Dimension) bool {
	for _, known := range AllDimensions {
		if known == d {
			return true
		}
	}
	return false
}

// ParseDimension maps a name to a known dimension.
func ParseDimension(name string) (Dimension, error) {
	if !isKnownDimension(name) {
		return "", fmt.Errorf("%w: %q", ErrUnknownDimension, name)
	}
	return name, nil
}

// ParseSegmentation accepts the segmentation names plus the short forms week, day and date.
func ParseSegmentation(name string) (Segmentation, error) {
	switch name {
	case string(SegmentByWeek), "week":
		return SegmentByWeek, nil
	case string(SegmentByDayOfYearBin), "day":
		return SegmentByDayOfYearBin, nil
	case string(SegmentByDate), "date":
		return SegmentByDate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSegmentation, name)
}

// ParseTimeReference accepts previous_event/previous and reference_event/reference.
func ParseTimeReference(name string) (TimeReference, error) {
	switch name {
	case string(ReferencePreviousEvent), "previous":
		return ReferencePreviousEvent, nil
	case string(ReferenceSourceEvent), "reference":
		return ReferenceSourceEvent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeReference, name)
}
