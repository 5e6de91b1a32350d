package markov_chain

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

var (
	ErrEmptySequence     = errors.New("markov: empty sequence")
	ErrUntrained         = errors.New("markov: model has no vocabulary or frequency matrix")
	ErrEmptyVocabulary   = errors.New("markov: training sequences contain no states")
	ErrInvalidParameters = errors.New("markov: invalid parameters")
	ErrMalformedModel    = errors.New("markov: malformed model")
)

// IsState reports whether r can be a chain state. Spaces, segment delimiters,
// group parentheses and fold markers are structure, not behaviour.
func IsState(r rune) bool {
	switch r {
	case ' ', '|', '(', ')', '*':
		return false
	}
	return true
}

// Tokenize splits a BLOC string into its state symbols.
func Tokenize(sequence string) []string {
	out := make([]string, 0, len(sequence))
	for _, r := range sequence {
		if IsState(r) {
			out = append(out, string(r))
		}
	}
	return out
}

// Model is a trained chain: vocabulary, transition counts and start counts.
// Frequency is always square with side len(Vocabulary).
type Model struct {
	Vocabulary  []string       `json:"vocabulary"`
	Frequency   [][]float64    `json:"frequencyMatrix"`
	Unsmoothed  [][]float64    `json:"unsmoothedFrequencyMatrix"`
	StartCounts map[string]int `json:"startCounts"`
	Label       string         `json:"label"`
	CreatedAt   time.Time      `json:"createdAtUtc"`
}

// Train counts start states and adjacent-state transitions over sequences.
// The vocabulary is every state seen, ordered by code point. No smoothing happens here.
func Train(sequences []string, label string) (*Model, error) {
	seen := make(map[string]struct{})
	tokenized := make([][]string, 0, len(sequences))
	for _, seq := range sequences {
		toks := Tokenize(seq)
		tokenized = append(tokenized, toks)
		for _, t := range toks {
			seen[t] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := make([]string, 0, len(seen))
	for s := range seen {
		vocab = append(vocab, s)
	}
	sort.Strings(vocab)

	m := &Model{
		Vocabulary:  vocab,
		Frequency:   zeros(len(vocab), len(vocab)),
		StartCounts: make(map[string]int, len(vocab)),
		Label:       label,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	for _, s := range vocab {
		m.StartCounts[s] = 0
	}

	idx := m.index()
	for _, toks := range tokenized {
		if len(toks) == 0 {
			continue
		}
		m.StartCounts[toks[0]]++
		for i := 1; i < len(toks); i++ {
			m.Frequency[idx[toks[i-1]]][idx[toks[i]]]++
		}
	}
	m.Unsmoothed = cloneMatrix(m.Frequency)
	return m, nil
}

func (m *Model) index() map[string]int {
	idx := make(map[string]int, len(m.Vocabulary))
	for i, s := range m.Vocabulary {
		idx[s] = i
	}
	return idx
}

// Clone deep-copies the model.
func (m *Model) Clone() *Model {
	out := &Model{
		Vocabulary:  append([]string(nil), m.Vocabulary...),
		Frequency:   cloneMatrix(m.Frequency),
		Unsmoothed:  cloneMatrix(m.Unsmoothed),
		StartCounts: make(map[string]int, len(m.StartCounts)),
		Label:       m.Label,
		CreatedAt:   m.CreatedAt,
	}
	for k, v := range m.StartCounts {
		out.StartCounts[k] = v
	}
	return out
}

// Check verifies the structural invariants of a trained or loaded model.
func (m *Model) Check() error {
	if m == nil || len(m.Vocabulary) == 0 || len(m.Frequency) == 0 {
		return ErrUntrained
	}
	n := len(m.Vocabulary)
	if len(m.Frequency) != n {
		return fmt.Errorf("%w: %d rows for %d states", ErrMalformedModel, len(m.Frequency), n)
	}
	for i, row := range m.Frequency {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrMalformedModel, i, len(row), n)
		}
		for j, v := range row {
			if v < 0 {
				return fmt.Errorf("%w: negative count at row %d col %d", ErrMalformedModel, i, j)
			}
		}
	}
	if m.Unsmoothed != nil && len(m.Unsmoothed) != n {
		return fmt.Errorf("%w: unsmoothed matrix has %d rows, want %d", ErrMalformedModel, len(m.Unsmoothed), n)
	}
	return nil
}

// Encode writes the model as JSON.
func (m *Model) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(m)
}

// Decode reads a JSON model and checks its invariants.
func Decode(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode markov model: %w", err)
	}
	if m.StartCounts == nil {
		m.StartCounts = make(map[string]int)
	}
	if err := m.Check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveFile writes the model to path, gzip-compressed when path ends in .gz.
func (m *Model) SaveFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return m.Encode(f)
	}
	gz := gzip.NewWriter(f)
	if err := m.Encode(gz); err != nil {
		return err
	}
	return gz.Close()
}

// LoadFile reads a model written by SaveFile.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip model: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return Decode(r)
}

func zeros(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}

func cloneMatrix(in [][]float64) [][]float64 {
	if in == nil {
		return nil
	}
	out := make([][]float64, len(in))
	for i, row := range in {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
