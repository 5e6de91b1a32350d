package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jtomasevic/bloc/pkg/model_store"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect and manage stored models",
	}
	cmd.AddCommand(newModelsListCmd(a))
	cmd.AddCommand(newModelsShowCmd(a))
	cmd.AddCommand(newModelsDeleteCmd(a))
	cmd.AddCommand(newModelsExportCmd(a))
	return cmd
}

func newModelsListCmd(a *app) *cobra.Command {
	var f model_store.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored models, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			defer store.Close()

			models, err := store.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if a.output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(models)
			}
			for _, m := range models {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %-28s states=%-4d %s\n",
					m.ID, m.Account, labelStyle.Render(m.Dimension), m.VocabularySize, m.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Account, "account", "", "only models of this account")
	cmd.Flags().StringVar(&f.Dimension, "dimension", "", "only models of this dimension")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "at most this many models")
	return cmd
}

func newModelsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored model's frequency matrix; unobserved transitions are dimmed and marked '*'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.loadRecord(cmd, args[0])
			if err != nil {
				return err
			}
			if a.output == "json" {
				return rec.Model.Encode(cmd.OutOrStdout())
			}
			fmt.Fprint(cmd.OutOrStdout(), renderMatrix(rec.Model))
			return nil
		},
	}
}

func newModelsExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <file>",
		Short: "Write a stored model to a file (gzip when it ends in .gz)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.loadRecord(cmd, args[0])
			if err != nil {
				return err
			}
			return rec.Model.SaveFile(args[1])
		},
	}
}

func newModelsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("model id: %w", err)
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Delete(cmd.Context(), id)
		},
	}
}

func (a *app) loadRecord(cmd *cobra.Command, rawID string) (*model_store.Record, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("model id: %w", err)
	}
	store, err := a.store()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(cmd.Context(), id)
}
