package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Scoring paths reported on bloc_markov_* series.
const (
	PathStateful  = "stateful"
	PathStateless = "stateless"
)

// Collector bundles the encoder and Markov scoring metrics.
// A nil *Collector is valid and records nothing, so library callers that do not
// care about metrics never have to construct one.
type Collector struct {
	eventsEncoded  *prometheus.CounterVec
	eventsSkipped  *prometheus.CounterVec
	encodeDuration prometheus.Histogram
	segments       prometheus.Counter
	scores         *prometheus.CounterVec
	unseenStates   *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer for process-wide metrics, or a fresh
// prometheus.NewRegistry() in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventsEncoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bloc_events_encoded_total",
				Help: "Total number of events that produced an emission, per dimension",
			},
			[]string{"dimension"},
		),
		eventsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bloc_events_skipped_total",
				Help: "Total number of events skipped for a dimension because of missing data",
			},
			[]string{"dimension", "reason"},
		),
		encodeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bloc_encode_duration_seconds",
				Help:    "Time spent encoding one account timeline",
				Buckets: prometheus.DefBuckets,
			},
		),
		segments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bloc_segments_total",
				Help: "Total number of segments produced by encoding",
			},
		),
		scores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bloc_markov_scores_total",
				Help: "Total number of Markov sequence scorings",
			},
			[]string{"path", "outcome"},
		),
		unseenStates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bloc_markov_unseen_states_total",
				Help: "Total number of states added to a vocabulary at scoring time",
			},
			[]string{"path"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			c.eventsEncoded,
			c.eventsSkipped,
			c.encodeDuration,
			c.segments,
			c.scores,
			c.unseenStates,
		)
	}
	return c
}

func (c *Collector) EventEncoded(dimension string) {
	if c == nil {
		return
	}
	c.eventsEncoded.WithLabelValues(dimension).Inc()
}

func (c *Collector) EventSkipped(dimension, reason string) {
	if c == nil {
		return
	}
	c.eventsSkipped.WithLabelValues(dimension, reason).Inc()
}

func (c *Collector) ObserveEncode(started time.Time, segments int) {
	if c == nil {
		return
	}
	c.encodeDuration.Observe(time.Since(started).Seconds())
	c.segments.Add(float64(segments))
}

// Scored records one scoring call. ok=false means the call returned no result.
func (c *Collector) Scored(path string, ok bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.scores.WithLabelValues(path, outcome).Inc()
}

func (c *Collector) UnseenStates(path string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.unseenStates.WithLabelValues(path).Add(float64(n))
}
