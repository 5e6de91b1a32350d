package markov_chain

import (
	"fmt"
	"math"
)

// Tolerance bounds how far a probability row may stray from summing to 1.
const Tolerance = 1e-9

// Parameters are the smoothed probabilities derived from a model.
type Parameters struct {
	States     []string
	Start      []float64
	Transition [][]float64

	index map[string]int
}

// Index returns the position of state s.
func (p Parameters) Index(s string) (int, bool) {
	if p.index == nil {
		for i, st := range p.States {
			if st == s {
				return i, true
			}
		}
		return 0, false
	}
	i, ok := p.index[s]
	return i, ok
}

// Covers reports whether every state of sequence is already a parameter state.
func (p Parameters) Covers(sequence string) bool {
	for _, s := range Tokenize(sequence) {
		if _, ok := p.Index(s); !ok {
			return false
		}
	}
	return true
}

// ValidateParameters checks that there is at least one state, every transition
// row and the start distribution are non-negative and sum to 1 within Tolerance.
func ValidateParameters(p Parameters) error {
	n := len(p.States)
	if n == 0 {
		return fmt.Errorf("%w: no states", ErrInvalidParameters)
	}
	if len(p.Start) != n || len(p.Transition) != n {
		return fmt.Errorf("%w: shape mismatch for %d states", ErrInvalidParameters, n)
	}
	if err := checkDistribution(p.Start); err != nil {
		return fmt.Errorf("%w: start distribution: %v", ErrInvalidParameters, err)
	}
	for i, row := range p.Transition {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d columns", ErrInvalidParameters, i, len(row))
		}
		if err := checkDistribution(row); err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrInvalidParameters, i, err)
		}
	}
	return nil
}

func checkDistribution(values []float64) error {
	var sum float64
	for j, v := range values {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("col %d is %v", j, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > Tolerance {
		return fmt.Errorf("sums to %v", sum)
	}
	return nil
}

// DeriveParameters extends m with the states of sequence it has not seen and
// derives smoothed start and transition probabilities. It mutates m: new states
// are appended in encounter order with zero start counts, the frequency matrix
// gains zero columns then zero rows, and every row holding a zero count gets one
// added to each entry. The start vector is smoothed as a whole when any state has
// a zero start count. Callers that must not see these changes pass a Clone.
//
// The second result is the number of states added.
func DeriveParameters(m *Model, sequence string) (Parameters, int, error) {
	if err := m.Check(); err != nil {
		return Parameters{}, 0, err
	}

	idx := m.index()
	var unseen []string
	for _, s := range Tokenize(sequence) {
		if _, ok := idx[s]; ok {
			continue
		}
		idx[s] = len(m.Vocabulary) + len(unseen)
		unseen = append(unseen, s)
	}
	if m.Unsmoothed == nil {
		m.Unsmoothed = cloneMatrix(m.Frequency)
	}
	m.extend(unseen)

	n := len(m.Vocabulary)
	start := make([]float64, n)
	smoothStart := false
	for i, s := range m.Vocabulary {
		start[i] = float64(m.StartCounts[s])
		if start[i] == 0 {
			smoothStart = true
		}
	}
	if smoothStart {
		for i := range start {
			start[i]++
		}
	}
	normalize(start)

	transition := make([][]float64, n)
	for i, row := range m.Frequency {
		if hasZero(row) {
			for j := range row {
				row[j]++
			}
		}
		transition[i] = append([]float64(nil), row...)
		normalize(transition[i])
	}

	return Parameters{
		States:     append([]string(nil), m.Vocabulary...),
		Start:      start,
		Transition: transition,
		index:      idx,
	}, len(unseen), nil
}

// extend appends states with zero counts. Columns are added before rows so new
// rows take the widened column count. The unsmoothed matrix grows the same way.
func (m *Model) extend(states []string) {
	if len(states) == 0 {
		return
	}
	for _, s := range states {
		m.StartCounts[s] = 0
	}
	m.Vocabulary = append(m.Vocabulary, states...)
	n := len(m.Vocabulary)

	m.Frequency = widen(m.Frequency, n)
	m.Unsmoothed = widen(m.Unsmoothed, n)
}

func widen(matrix [][]float64, n int) [][]float64 {
	for i, row := range matrix {
		matrix[i] = append(row, make([]float64, n-len(row))...)
	}
	for len(matrix) < n {
		matrix = append(matrix, make([]float64, n))
	}
	return matrix
}

func hasZero(row []float64) bool {
	for _, v := range row {
		if v == 0 {
			return true
		}
	}
	return false
}

func normalize(values []float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range values {
		values[i] /= sum
	}
}
