package markov_chain

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/jtomasevic/bloc/internal/logging"
	"github.com/jtomasevic/bloc/internal/metrics"
)

// Score computes the probability of sequence under p, or its natural log when
// logProb is set. Every state of sequence must be covered by p.
func Score(p Parameters, sequence string, logProb bool) (float64, error) {
	toks := Tokenize(sequence)
	if len(toks) == 0 {
		return 0, ErrEmptySequence
	}

	pos := make([]int, len(toks))
	for i, s := range toks {
		j, ok := p.Index(s)
		if !ok {
			return 0, ErrInvalidParameters
		}
		pos[i] = j
	}

	prob := p.Start[pos[0]]
	if logProb {
		prob = math.Log(prob)
	}
	for i := 1; i < len(pos); i++ {
		t := p.Transition[pos[i-1]][pos[i]]
		if logProb {
			prob += math.Log(t)
		} else {
			prob *= t
		}
	}
	return prob, nil
}

// ProbabilityOfSequence scores sequence against a private copy of trained. The
// caller's model is never modified, so repeated calls are independent and the
// function is safe to call concurrently on a shared model.
func ProbabilityOfSequence(trained *Model, sequence string, logProb bool) (float64, error) {
	return probabilityOfSequence(trained, sequence, logProb, nil)
}

func probabilityOfSequence(trained *Model, sequence string, logProb bool, m *metrics.Collector) (float64, error) {
	if len(Tokenize(sequence)) == 0 {
		m.Scored(metrics.PathStateless, false)
		return 0, ErrEmptySequence
	}
	if err := trained.Check(); err != nil {
		m.Scored(metrics.PathStateless, false)
		return 0, err
	}
	params, added, err := DeriveParameters(trained.Clone(), sequence)
	if err == nil {
		err = ValidateParameters(params)
	}
	if err != nil {
		m.Scored(metrics.PathStateless, false)
		return 0, err
	}
	m.UnseenStates(metrics.PathStateless, added)

	prob, err := Score(params, sequence, logProb)
	m.Scored(metrics.PathStateless, err == nil)
	return prob, err
}

// Chain is the stateful scorer. It owns a copy of the trained model and keeps the
// parameters derived from it between calls. Scoring a sequence with unseen states
// extends and re-smooths that owned model, so smoothing compounds across calls.
// A Chain must not be used from several goroutines at once.
type Chain struct {
	model  *Model
	params *Parameters

	log     logrus.FieldLogger
	metrics *metrics.Collector
}

type ChainOption func(*Chain)

func WithChainLogger(l logrus.FieldLogger) ChainOption {
	return func(c *Chain) {
		c.log = l
	}
}

func WithChainMetrics(m *metrics.Collector) ChainOption {
	return func(c *Chain) {
		c.metrics = m
	}
}

// NewChain copies trained into a new stateful scorer.
func NewChain(trained *Model, opts ...ChainOption) *Chain {
	c := &Chain{log: logging.Discard()}
	if trained != nil {
		c.model = trained.Clone()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TrainChain trains a model from sequences and wraps it in a Chain.
func TrainChain(sequences []string, label string, opts ...ChainOption) (*Chain, error) {
	m, err := Train(sequences, label)
	if err != nil {
		return nil, err
	}
	c := NewChain(nil, opts...)
	c.model = m
	return c, nil
}

// Model returns the chain's own model, including any extension from scoring.
func (c *Chain) Model() *Model {
	return c.model
}

// Parameters returns the parameters in use, if any were derived yet.
func (c *Chain) Parameters() (Parameters, bool) {
	if c.params == nil {
		return Parameters{}, false
	}
	return *c.params, true
}

// ProbabilityOfSequence scores sequence, deriving and keeping new parameters
// when none exist yet or when sequence holds a state they do not cover.
func (c *Chain) ProbabilityOfSequence(sequence string, logProb bool) (float64, error) {
	if len(Tokenize(sequence)) == 0 {
		c.metrics.Scored(metrics.PathStateful, false)
		return 0, ErrEmptySequence
	}

	if c.params == nil || !c.params.Covers(sequence) {
		if c.model == nil {
			c.metrics.Scored(metrics.PathStateful, false)
			return 0, ErrUntrained
		}
		params, added, err := DeriveParameters(c.model, sequence)
		if err == nil {
			err = ValidateParameters(params)
		}
		if err != nil {
			c.log.WithError(err).WithField("label", c.model.Label).Warn("markov parameters rejected")
			c.metrics.Scored(metrics.PathStateful, false)
			return 0, err
		}
		if added > 0 {
			c.log.WithFields(logrus.Fields{
				"label":  c.model.Label,
				"added":  added,
				"states": len(params.States),
			}).Debug("vocabulary extended with unseen states")
		}
		c.metrics.UnseenStates(metrics.PathStateful, added)
		c.params = &params
	}

	prob, err := Score(*c.params, sequence, logProb)
	c.metrics.Scored(metrics.PathStateful, err == nil)
	return prob, err
}

// Scorer binds the stateless path to one trained model with metrics attached.
// It is safe for concurrent use.
type Scorer struct {
	trained *Model
	metrics *metrics.Collector
}

func NewScorer(trained *Model, m *metrics.Collector) *Scorer {
	return &Scorer{trained: trained, metrics: m}
}

func (s *Scorer) ProbabilityOfSequence(sequence string, logProb bool) (float64, error) {
	return probabilityOfSequence(s.trained, sequence, logProb, s.metrics)
}
