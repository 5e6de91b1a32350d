package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jtomasevic/bloc/pkg/bloc_analysis"
	"github.com/jtomasevic/bloc/pkg/model_store"
)

func newTrainCmd(a *app) *cobra.Command {
	var (
		flags      encodeFlags
		out        string
		save       bool
		showMatrix bool
	)
	cmd := &cobra.Command{
		Use:   "train <timelines.json[.gz]>...",
		Short: "Train one Markov chain per account and dimension",
		Long: "train encodes the timelines, trains a chain per account and dimension on the\n" +
			"segment sequences, and stores the models in the model database and/or a file.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, _, err := a.encodeFiles(cmd, &flags, args)
			if err != nil {
				return err
			}
			defer a.logMetrics()

			var store *model_store.Store
			if save {
				if store, err = a.store(); err != nil {
					return err
				}
				defer store.Close()
			}

			type trained struct {
				ID        string `json:"id,omitempty"`
				Account   string `json:"account"`
				Dimension string `json:"dimension"`
				States    int    `json:"states"`
			}
			var summary []trained

			for _, br := range results {
				if br.Err != nil {
					a.log.WithError(br.Err).WithField("account", br.Account).Warn("skipping account")
					continue
				}
				profile, err := bloc_analysis.BuildProfile(br.Result)
				if err != nil {
					a.log.WithError(err).WithField("account", br.Account).Warn("nothing to train")
					continue
				}
				for _, d := range profile.Dimensions() {
					m := profile.Models[d].Model
					t := trained{Account: profile.Account, Dimension: d, States: len(m.Vocabulary)}
					if store != nil {
						id, err := store.Save(cmd.Context(), model_store.Record{
							Label:     m.Label,
							Account:   profile.Account,
							Dimension: d,
							Model:     m,
							Training:  profile.Models[d].Training,
						})
						if err != nil {
							return err
						}
						t.ID = id.String()
					}
					if out != "" {
						if len(results) != 1 || len(profile.Models) != 1 {
							return fmt.Errorf("--out needs exactly one account and one dimension, got %d accounts and %d dimensions", len(results), len(profile.Models))
						}
						if err := m.SaveFile(out); err != nil {
							return err
						}
					}
					if showMatrix && a.output == "text" {
						fmt.Fprintln(cmd.OutOrStdout(), renderMatrix(m))
					}
					summary = append(summary, t)
				}
			}

			if a.output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			for _, t := range summary {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s states=%d %s\n", t.Account, labelStyle.Render(t.Dimension), t.States, t.ID)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "write the model to this file (gzip when it ends in .gz)")
	cmd.Flags().BoolVar(&save, "save", true, "store models in the model database")
	cmd.Flags().BoolVar(&showMatrix, "show-matrix", false, "print each frequency matrix")
	return cmd
}
