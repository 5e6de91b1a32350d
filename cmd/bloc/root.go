package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jtomasevic/bloc/internal/config"
	"github.com/jtomasevic/bloc/internal/logging"
	"github.com/jtomasevic/bloc/internal/metrics"
	"github.com/jtomasevic/bloc/pkg/model_store"
	"github.com/jtomasevic/bloc/pkg/symbols"
)

// app carries what every subcommand shares: persistent flags, the logger and
// the metrics registry.
type app struct {
	catalogPath string
	dbPath      string
	output      string
	verbose     bool
	coarse      bool

	log      *logrus.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "bloc",
		Short:         "Behavioral Language for Online Classification",
		Long:          "bloc encodes account timelines into BLOC strings, trains Markov chains on them and compares accounts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "symbol catalog file, YAML or JSON (default: packaged catalog)")
	rootCmd.PersistentFlags().BoolVar(&a.coarse, "coarse-pauses", false, "collapse every non-blank pause glyph to '.'")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "model database (default: $BLOC_MODEL_DB or "+config.DefaultStorePath+")")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "output format: text|json")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newEncodeCmd(a))
	rootCmd.AddCommand(newTrainCmd(a))
	rootCmd.AddCommand(newScoreCmd(a))
	rootCmd.AddCommand(newCompareCmd(a))
	rootCmd.AddCommand(newModelsCmd(a))

	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	a.log = logging.NewLogger()
	a.log.SetOutput(cmd.ErrOrStderr())
	config.LoadEnv(a.log)
	a.log.SetLevel(config.GetLogLevel())
	if a.verbose {
		a.log.SetLevel(logrus.DebugLevel)
	}

	switch a.output {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
	if a.dbPath == "" {
		a.dbPath = config.StorePath()
	}

	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewCollector(a.registry)
	return nil
}

func (a *app) catalog() (*symbols.Catalog, error) {
	cat := symbols.Default()
	if a.catalogPath != "" {
		var err error
		if cat, err = symbols.LoadFile(a.catalogPath); err != nil {
			return nil, err
		}
	}
	if a.coarse {
		cat = cat.CoarsePauses()
	}
	return cat, nil
}

func (a *app) store() (*model_store.Store, error) {
	return model_store.NewStore(a.dbPath, model_store.WithLogger(a.log.WithField("component", "model_store")))
}

// logMetrics reports what the run recorded at debug level.
func (a *app) logMetrics() {
	families, err := a.registry.Gather()
	if err != nil {
		a.log.WithError(err).Warn("gather metrics")
		return
	}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		a.log.WithFields(logrus.Fields{"metric": mf.GetName(), "value": total}).Debug("run metrics")
	}
}
