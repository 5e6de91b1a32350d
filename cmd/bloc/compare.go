package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jtomasevic/bloc/pkg/bloc_analysis"
)

func newCompareCmd(a *app) *cobra.Command {
	var flags encodeFlags
	cmd := &cobra.Command{
		Use:   "compare <timelines.json[.gz]>...",
		Short: "Pairwise Markov divergence between accounts",
		Long: "compare trains a chain per account and dimension and prints, for every pair of\n" +
			"accounts, the summed symmetric length-normalised log probability of each account's\n" +
			"sequences under the other's chains. Values closer to zero mean more similar behaviour.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, _, err := a.encodeFiles(cmd, &flags, args)
			if err != nil {
				return err
			}
			defer a.logMetrics()

			var profiles []bloc_analysis.Profile
			for _, br := range results {
				if br.Err != nil {
					a.log.WithError(br.Err).WithField("account", br.Account).Warn("skipping account")
					continue
				}
				p, err := bloc_analysis.BuildProfile(br.Result)
				if err != nil {
					a.log.WithError(err).WithField("account", br.Account).Warn("skipping account")
					continue
				}
				profiles = append(profiles, p)
			}

			analyzer := bloc_analysis.NewAnalyzer(
				bloc_analysis.WithLogger(a.log.WithField("component", "analysis")),
				bloc_analysis.WithMetrics(a.metrics),
			)
			matrix, err := analyzer.Pairwise(cmd.Context(), profiles, flags.parallel)
			if err != nil {
				return err
			}

			accounts := make([]string, len(profiles))
			for i, p := range profiles {
				accounts[i] = p.Account
			}
			if a.output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Accounts   []string    `json:"accounts"`
					Divergence [][]float64 `json:"divergence"`
				}{accounts, matrix})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-16s", "")
			for _, acc := range accounts {
				fmt.Fprintf(w, " %12s", headerStyle.Render(truncate(acc, 12)))
			}
			fmt.Fprintln(w)
			for i, row := range matrix {
				fmt.Fprintf(w, "%-16s", headerStyle.Render(truncate(accounts[i], 16)))
				for _, v := range row {
					if v == bloc_analysis.NoSharedDimensions {
						fmt.Fprintf(w, " %12s", labelStyle.Render("-"))
						continue
					}
					fmt.Fprintf(w, " %12.4f", v)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
