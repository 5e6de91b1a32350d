package bloc_analysis

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jtomasevic/bloc/internal/logging"
	"github.com/jtomasevic/bloc/internal/metrics"
	"github.com/jtomasevic/bloc/pkg/markov_chain"
)

// NoSharedDimensions fills pairwise cells for accounts without a common dimension.
const NoSharedDimensions = -1000.0

type Analyzer struct {
	log     logrus.FieldLogger
	metrics *metrics.Collector
}

type Option func(*Analyzer)

func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{log: logging.Discard()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Divergence sums, over the dimensions both profiles carry, the mean of the
// length-normalised log probability of each account's training sequence under
// the other account's chain. Values closer to zero mean more similar behaviour.
// Scoring uses the stateless path, so neither profile is modified. The boolean
// is false when the profiles share no dimension.
func (a *Analyzer) Divergence(src, tgt Profile) (float64, bool, error) {
	var (
		total  float64
		shared bool
	)
	for _, d := range src.Dimensions() {
		t, ok := tgt.Models[d]
		if !ok {
			continue
		}
		s := src.Models[d]
		shared = true

		srcTgt, err := markov_chain.NewScorer(s.Model, a.metrics).ProbabilityOfSequence(t.Training, true)
		if err != nil {
			return 0, false, fmt.Errorf("score %s under %s/%s: %w", tgt.Account, src.Account, d, err)
		}
		tgtSrc, err := markov_chain.NewScorer(t.Model, a.metrics).ProbabilityOfSequence(s.Training, true)
		if err != nil {
			return 0, false, fmt.Errorf("score %s under %s/%s: %w", src.Account, tgt.Account, d, err)
		}
		total += (srcTgt/float64(t.Len()) + tgtSrc/float64(s.Len())) / 2
	}
	return total, shared, nil
}

// Pairwise computes Divergence for every ordered pair of profiles, rows in
// parallel with at most limit goroutines (no limit when limit <= 0).
func (a *Analyzer) Pairwise(ctx context.Context, profiles []Profile, limit int) ([][]float64, error) {
	out := make([][]float64, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range profiles {
		g.Go(func() error {
			row := make([]float64, len(profiles))
			for j := range profiles {
				if err := gctx.Err(); err != nil {
					return err
				}
				d, ok, err := a.Divergence(profiles[i], profiles[j])
				if err != nil {
					return err
				}
				if !ok {
					d = NoSharedDimensions
				}
				row[j] = d
			}
			out[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.log.WithField("accounts", len(profiles)).Debug("pairwise divergence computed")
	return out, nil
}
