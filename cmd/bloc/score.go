package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jtomasevic/bloc/pkg/markov_chain"
)

func newScoreCmd(a *app) *cobra.Command {
	var (
		modelFile string
		modelID   string
		account   string
		dimension string
		stateful  bool
		linear    bool
	)
	cmd := &cobra.Command{
		Use:   "score <sequence>...",
		Short: "Score BLOC sequences against a trained model",
		Long: "score prints the (log) probability of each sequence. By default every sequence is\n" +
			"scored against the trained model as loaded. With --stateful the sequences are scored\n" +
			"in order by one chain that keeps the vocabulary extensions of earlier calls.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel(cmd, modelFile, modelID, account, dimension)
			if err != nil {
				return err
			}
			defer a.logMetrics()

			chainLog := a.log.WithField("component", "markov_chain")
			var score func(string) (float64, error)
			if stateful {
				chain := markov_chain.NewChain(m,
					markov_chain.WithChainLogger(chainLog),
					markov_chain.WithChainMetrics(a.metrics),
				)
				score = func(seq string) (float64, error) { return chain.ProbabilityOfSequence(seq, !linear) }
			} else {
				scorer := markov_chain.NewScorer(m, a.metrics)
				score = func(seq string) (float64, error) { return scorer.ProbabilityOfSequence(seq, !linear) }
			}

			type scored struct {
				Sequence    string   `json:"sequence"`
				Probability *float64 `json:"probability"`
				Error       string   `json:"error,omitempty"`
			}
			var out []scored
			for _, seq := range args {
				p, err := score(seq)
				s := scored{Sequence: seq}
				if err != nil {
					chainLog.WithError(err).WithField("sequence", seq).Warn("sequence not scored")
					s.Error = err.Error()
				} else {
					s.Probability = &p
				}
				out = append(out, s)
			}

			if a.output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			for _, s := range out {
				if s.Probability == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.Sequence, errorStyle.Render(s.Error))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.6f\n", s.Sequence, *s.Probability)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modelFile, "model", "", "model file written by train --out")
	cmd.Flags().StringVar(&modelID, "id", "", "model id in the model database")
	cmd.Flags().StringVar(&account, "account", "", "use the latest stored model of this account")
	cmd.Flags().StringVar(&dimension, "dimension", "action", "dimension of the stored model, with --account")
	cmd.Flags().BoolVar(&stateful, "stateful", false, "score with one chain that accumulates unseen states")
	cmd.Flags().BoolVar(&linear, "linear", false, "print probabilities instead of natural logs")
	cmd.MarkFlagsMutuallyExclusive("model", "id", "account")
	return cmd
}

// loadModel resolves a model from a file, a store id or the latest stored model
// of an account and dimension.
func (a *app) loadModel(cmd *cobra.Command, file, id, account, dimension string) (*markov_chain.Model, error) {
	if file != "" {
		return markov_chain.LoadFile(file)
	}
	if id == "" && account == "" {
		return nil, errors.New("one of --model, --id or --account is required")
	}

	store, err := a.store()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("--id: %w", err)
		}
		rec, err := store.Load(cmd.Context(), parsed)
		if err != nil {
			return nil, err
		}
		return rec.Model, nil
	}
	rec, err := store.Latest(cmd.Context(), account, dimension)
	if err != nil {
		return nil, fmt.Errorf("latest %s model of %s: %w", dimension, account, err)
	}
	return rec.Model, nil
}
