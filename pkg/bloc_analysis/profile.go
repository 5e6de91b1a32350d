// Package bloc_analysis compares accounts through Markov chains trained on their
// BLOC strings and reduces BLOC strings to social fingerprints.
package bloc_analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jtomasevic/bloc/pkg/activity"
	"github.com/jtomasevic/bloc/pkg/behavior_encoder"
	"github.com/jtomasevic/bloc/pkg/markov_chain"
)

var ErrNoSequences = errors.New("analysis: no sequences to train on")

// Strip removes everything that is not a chain state: spaces, segment
// delimiters, group parentheses and fold markers.
func Strip(s string) string {
	return strings.Map(func(r rune) rune {
		if markov_chain.IsState(r) {
			return r
		}
		return -1
	}, s)
}

// DimensionModel is the chain trained on one dimension of an account together
// with the concatenation of the sequences it was trained on.
type DimensionModel struct {
	Model    *markov_chain.Model
	Training string
}

// Len is the number of states in the training sequence.
func (d DimensionModel) Len() int {
	return utf8.RuneCountInString(d.Training)
}

// Profile holds one trained chain per dimension of an account.
type Profile struct {
	Account activity.AccountID
	Models  map[behavior_encoder.Dimension]DimensionModel
}

// Dimensions returns the profiled dimensions in sorted order.
func (p Profile) Dimensions() []behavior_encoder.Dimension {
	out := make([]behavior_encoder.Dimension, 0, len(p.Models))
	for d := range p.Models {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// SegmentSequences collects, per dimension, the stripped non-empty segment
// sequences in segment order.
func SegmentSequences(segments behavior_encoder.Segments, dims []behavior_encoder.Dimension) map[behavior_encoder.Dimension][]string {
	out := make(map[behavior_encoder.Dimension][]string)
	for _, id := range segments.IDs() {
		for _, d := range dims {
			seq := Strip(segments[id][d])
			if seq == "" {
				continue
			}
			out[d] = append(out[d], seq)
		}
	}
	return out
}

// BuildProfile trains one chain per dimension of an encoding result. Results
// encoded without kept segments fall back to splitting the aggregate strings
// on the segment delimiter.
func BuildProfile(r behavior_encoder.Result) (Profile, error) {
	dims := make([]behavior_encoder.Dimension, 0, len(r.Bloc))
	for d := range r.Bloc {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	var seqs map[behavior_encoder.Dimension][]string
	if r.Segments != nil {
		seqs = SegmentSequences(r.Segments, dims)
	} else {
		seqs = make(map[behavior_encoder.Dimension][]string)
		for _, d := range dims {
			for _, part := range strings.Split(r.Bloc[d], behavior_encoder.SegmentDelimiter) {
				if s := Strip(part); s != "" {
					seqs[d] = append(seqs[d], s)
				}
			}
		}
	}
	return TrainProfile(r.Account, seqs)
}

// TrainProfile trains a chain for every dimension that has at least one sequence.
func TrainProfile(account activity.AccountID, sequences map[behavior_encoder.Dimension][]string) (Profile, error) {
	p := Profile{Account: account, Models: make(map[behavior_encoder.Dimension]DimensionModel)}
	for d, seqs := range sequences {
		if len(seqs) == 0 {
			continue
		}
		m, err := markov_chain.Train(seqs, account+"/"+d)
		if errors.Is(err, markov_chain.ErrEmptyVocabulary) {
			continue
		}
		if err != nil {
			return Profile{}, fmt.Errorf("train %s/%s: %w", account, d, err)
		}
		p.Models[d] = DimensionModel{Model: m, Training: strings.Join(seqs, "")}
	}
	if len(p.Models) == 0 {
		return Profile{}, fmt.Errorf("%w for account %q", ErrNoSequences, account)
	}
	return p, nil
}
