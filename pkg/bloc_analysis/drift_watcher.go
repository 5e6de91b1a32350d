// drift_watcher.go
package bloc_analysis

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jtomasevic/bloc/pkg/activity"
	"github.com/jtomasevic/bloc/pkg/behavior_encoder"
)

var ErrNoSharedDimensions = errors.New("analysis: baseline and observation share no dimension")

type DriftSpec struct {
	// If empty => compare every dimension both profiles carry
	Dimensions map[behavior_encoder.Dimension]struct{}
}

func (s DriftSpec) Allows(d behavior_encoder.Dimension) bool {
	if s.Dimensions == nil {
		return true
	}
	_, ok := s.Dimensions[d]
	return ok
}

func (s DriftSpec) filter(p Profile) Profile {
	if s.Dimensions == nil {
		return p
	}
	out := Profile{Account: p.Account, Models: make(map[behavior_encoder.Dimension]DimensionModel)}
	for d, m := range p.Models {
		if s.Allows(d) {
			out.Models[d] = m
		}
	}
	return out
}

// DriftMatch is what a listener gets when an account drifted from its baseline.
type DriftMatch struct {
	Account    activity.AccountID
	Divergence float64
	Threshold  float64

	// Occurrence counts consecutive drifted observations, this one included.
	Occurrence int
	At         time.Time
	RunID      uuid.UUID
	Dimensions []behavior_encoder.Dimension
}

// DriftListener is the sink for drift matches.
type DriftListener interface {
	OnDrift(match DriftMatch)
}

// DriftListenerFunc adapts a function to DriftListener.
type DriftListenerFunc func(match DriftMatch)

func (f DriftListenerFunc) OnDrift(match DriftMatch) {
	f(match)
}

// LogDriftListener writes matches to a logger.
type LogDriftListener struct {
	Log logrus.FieldLogger
}

func (l LogDriftListener) OnDrift(m DriftMatch) {
	l.Log.WithFields(logrus.Fields{
		"account":    m.Account,
		"divergence": m.Divergence,
		"threshold":  m.Threshold,
		"occurrence": m.Occurrence,
		"run_id":     m.RunID,
	}).Warn("account behaviour drifted from baseline")
}

// DriftObservation is the outcome of one Observe call.
type DriftObservation struct {
	Account    activity.AccountID
	Baseline   bool // the observation became the baseline; nothing was compared
	Divergence float64
	Drifted    bool
	Occurrence int
}

// DriftWatcher keeps one baseline profile per account and compares later
// encodings of the account against it.
//
// Trigger policy:
//   - an observation drifts when its divergence from the baseline is below Threshold
//   - the listener fires once MinCount consecutive observations drifted, and on
//     every drifted observation after that
//   - a non-drifted observation resets the streak
type DriftWatcher struct {
	Analyzer *Analyzer

	Threshold float64
	MinCount  int

	Listener DriftListener
	Spec     DriftSpec

	mu        sync.Mutex
	baselines map[activity.AccountID]Profile
	streaks   map[activity.AccountID]int
}

type DriftConfig struct {
	Threshold     float64
	MinCount      int
	Spec          DriftSpec
	DriftListener DriftListener
}

func NewDriftWatcher(analyzer *Analyzer, cfg DriftConfig) *DriftWatcher {
	if analyzer == nil {
		analyzer = NewAnalyzer()
	}
	if cfg.MinCount < 1 {
		cfg.MinCount = 1
	}
	return &DriftWatcher{
		Analyzer:  analyzer,
		Threshold: cfg.Threshold,
		MinCount:  cfg.MinCount,
		Listener:  cfg.DriftListener,
		Spec:      cfg.Spec,
		baselines: make(map[activity.AccountID]Profile),
		streaks:   make(map[activity.AccountID]int),
	}
}

// SetListener updates the drift listener
func (w *DriftWatcher) SetListener(listener DriftListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Listener = listener
}

// SetBaseline replaces the baseline of p.Account and resets its streak.
func (w *DriftWatcher) SetBaseline(p Profile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.baselines[p.Account] = w.Spec.filter(p)
	w.streaks[p.Account] = 0
}

// Baseline returns the baseline held for account.
func (w *DriftWatcher) Baseline(account activity.AccountID) (Profile, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.baselines[account]
	return p, ok
}

// Observe compares an encoding result with its account's baseline. The first
// result seen for an account becomes the baseline.
func (w *DriftWatcher) Observe(r behavior_encoder.Result) (DriftObservation, error) {
	current, err := BuildProfile(r)
	if err != nil {
		return DriftObservation{}, err
	}
	current = w.Spec.filter(current)
	obs := DriftObservation{Account: current.Account}

	w.mu.Lock()
	baseline, ok := w.baselines[current.Account]
	if !ok {
		w.baselines[current.Account] = current
		w.streaks[current.Account] = 0
		w.mu.Unlock()
		obs.Baseline = true
		return obs, nil
	}
	w.mu.Unlock()

	d, shared, err := w.Analyzer.Divergence(baseline, current)
	if err != nil {
		return obs, err
	}
	if !shared {
		return obs, fmt.Errorf("%w: account %q", ErrNoSharedDimensions, current.Account)
	}
	obs.Divergence = d
	obs.Drifted = d < w.Threshold

	w.mu.Lock()
	if obs.Drifted {
		w.streaks[current.Account]++
	} else {
		w.streaks[current.Account] = 0
	}
	obs.Occurrence = w.streaks[current.Account]
	listener := w.Listener
	w.mu.Unlock()

	w.Analyzer.log.WithFields(logrus.Fields{
		"account":    current.Account,
		"divergence": d,
		"drifted":    obs.Drifted,
	}).Debug("drift observation")

	if !obs.Drifted || obs.Occurrence < w.MinCount || listener == nil {
		return obs, nil
	}

	var dims []behavior_encoder.Dimension
	for _, dim := range baseline.Dimensions() {
		if _, ok := current.Models[dim]; ok {
			dims = append(dims, dim)
		}
	}
	listener.OnDrift(DriftMatch{
		Account:    current.Account,
		Divergence: d,
		Threshold:  w.Threshold,
		Occurrence: obs.Occurrence,
		At:         r.CreatedAt,
		RunID:      r.RunID,
		Dimensions: dims,
	})
	return obs, nil
}
