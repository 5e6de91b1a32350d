package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jtomasevic/bloc/internal/config"
	"github.com/jtomasevic/bloc/pkg/activity"
	"github.com/jtomasevic/bloc/pkg/behavior_encoder"
	"github.com/jtomasevic/bloc/pkg/bloc_analysis"
	"github.com/jtomasevic/bloc/pkg/symbols"
)

// encodeFlags are the encoder settings a command can take on its command line.
// Flags left unset keep the value from BLOC_* variables or the encoder default.
type encodeFlags struct {
	dimensions     string
	segmentation   string
	days           int
	fold           int
	timeReference  string
	timezone       string
	blankMark      string
	minuteMark     string
	sortWords      bool
	changeAll      bool
	changePause    bool
	noReshare      bool
	parallel       int
	keepAnnotation bool
}

func (f *encodeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dimensions, "dimensions", "", "comma separated dimensions, or 'all'")
	cmd.Flags().StringVar(&f.segmentation, "segmentation", "", "week_number|day_of_year_bin|yyyy-mm-dd")
	cmd.Flags().IntVar(&f.days, "days", 0, "days per segment (implies day_of_year_bin)")
	cmd.Flags().IntVar(&f.fold, "fold", 0, "fold change glyph repetitions at this count")
	cmd.Flags().StringVar(&f.timeReference, "time-reference", "", "previous_event|reference_event")
	cmd.Flags().StringVar(&f.timezone, "tz", "", "IANA timezone for segmentation (default UTC)")
	cmd.Flags().StringVar(&f.blankMark, "blank-mark", "", "pauses shorter than this get no glyph (seconds or duration)")
	cmd.Flags().StringVar(&f.minuteMark, "minute-mark", "", "upper bound of the under-minute pause bucket")
	cmd.Flags().BoolVar(&f.sortWords, "sort-action-words", false, "sort glyphs inside action words")
	cmd.Flags().BoolVar(&f.changeAll, "change-all-events", false, "evaluate change checks on every event, not only replies")
	cmd.Flags().BoolVar(&f.changePause, "change-pause", false, "prefix change groups with the pause glyph")
	cmd.Flags().BoolVar(&f.noReshare, "no-reshare-content", false, "do not encode the content of reshared posts")
	cmd.Flags().IntVar(&f.parallel, "parallel", 4, "timelines encoded concurrently (0 = unbounded)")
	cmd.Flags().BoolVar(&f.keepAnnotation, "annotations", false, "include per-event annotations in JSON output")
}

func (f *encodeFlags) options(cmd *cobra.Command) ([]behavior_encoder.Option, error) {
	opts, err := config.EncoderOptionsFromEnv()
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed

	if changed("dimensions") {
		dims, err := config.ParseDimensions(f.dimensions)
		if err != nil {
			return nil, err
		}
		opts = append(opts, behavior_encoder.WithDimensions(dims...))
	}
	if changed("segmentation") {
		s, err := behavior_encoder.ParseSegmentation(f.segmentation)
		if err != nil {
			return nil, err
		}
		opts = append(opts, behavior_encoder.WithSegmentation(s))
	}
	if changed("days") {
		opts = append(opts, behavior_encoder.WithDaysPerSegment(f.days))
	}
	if changed("fold") {
		opts = append(opts, behavior_encoder.WithFoldThreshold(f.fold))
	}
	if changed("time-reference") {
		r, err := behavior_encoder.ParseTimeReference(f.timeReference)
		if err != nil {
			return nil, err
		}
		opts = append(opts, behavior_encoder.WithTimeReference(r))
	}
	if changed("tz") {
		loc, err := time.LoadLocation(f.timezone)
		if err != nil {
			return nil, fmt.Errorf("--tz: %w", err)
		}
		opts = append(opts, behavior_encoder.WithLocation(loc))
	}
	if changed("blank-mark") {
		d, err := config.ParseSeconds(f.blankMark)
		if err != nil {
			return nil, fmt.Errorf("--blank-mark: %w", err)
		}
		opts = append(opts, behavior_encoder.WithBlankMark(d))
	}
	if changed("minute-mark") {
		d, err := config.ParseSeconds(f.minuteMark)
		if err != nil {
			return nil, fmt.Errorf("--minute-mark: %w", err)
		}
		opts = append(opts, behavior_encoder.WithMinuteMark(d))
	}
	if changed("sort-action-words") {
		opts = append(opts, behavior_encoder.WithSortActionWords(f.sortWords))
	}
	if changed("change-all-events") {
		opts = append(opts, behavior_encoder.WithChangeOnAllEvents(f.changeAll))
	}
	if changed("change-pause") {
		opts = append(opts, behavior_encoder.WithChangeAddPause(f.changePause))
	}
	if f.noReshare {
		opts = append(opts, behavior_encoder.WithReshareContent(false))
	}
	opts = append(opts, behavior_encoder.WithKeepAnnotations(f.keepAnnotation))
	return opts, nil
}

// encodeFiles reads every timeline file and encodes all timelines as one batch.
func (a *app) encodeFiles(cmd *cobra.Command, f *encodeFlags, paths []string) ([]behavior_encoder.BatchResult, *symbols.Catalog, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, nil, err
	}
	opts, err := f.options(cmd)
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts,
		behavior_encoder.WithLogger(a.log.WithField("component", "encoder")),
		behavior_encoder.WithMetrics(a.metrics),
	)

	var timelines []activity.Timeline
	for _, path := range paths {
		tls, err := activity.ReadTimelinesFile(path)
		if err != nil {
			return nil, nil, err
		}
		timelines = append(timelines, tls...)
	}
	if len(timelines) == 0 {
		return nil, nil, activity.ErrEmptyTimeline
	}

	enc := behavior_encoder.NewEncoder(cat, opts...)
	results, err := enc.EncodeBatch(cmd.Context(), timelines, f.parallel)
	return results, cat, err
}

func newEncodeCmd(a *app) *cobra.Command {
	var (
		flags        encodeFlags
		color        bool
		fingerprints bool
	)
	cmd := &cobra.Command{
		Use:   "encode <timelines.json[.gz]>...",
		Short: "Encode account timelines into BLOC strings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, cat, err := a.encodeFiles(cmd, &flags, args)
			if err != nil {
				return err
			}
			defer a.logMetrics()

			if a.output == "json" {
				return writeResultsJSON(cmd.OutOrStdout(), results)
			}
			fp := bloc_analysis.NewFingerprinter(cat)
			for _, br := range results {
				writeResultText(cmd.OutOrStdout(), br, cat, color, fingerprints, fp)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&color, "color", false, "highlight action words")
	cmd.Flags().BoolVar(&fingerprints, "social-fingerprint", false, "also print b3/b6 social fingerprints")
	return cmd
}

func writeResultsJSON(w io.Writer, results []behavior_encoder.BatchResult) error {
	type entry struct {
		Account     string                   `json:"account"`
		Error       string                   `json:"error,omitempty"`
		Fingerprint string                   `json:"fingerprint,omitempty"`
		Result      *behavior_encoder.Result `json:"result,omitempty"`
	}
	out := make([]entry, 0, len(results))
	for _, br := range results {
		e := entry{Account: br.Account}
		if br.Err != nil {
			e.Error = br.Err.Error()
		} else {
			res := br.Result
			e.Result = &res
			e.Fingerprint = fmt.Sprintf("%016x", behavior_encoder.Fingerprint(res))
		}
		out = append(out, e)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeResultText(w io.Writer, br behavior_encoder.BatchResult, cat *symbols.Catalog, color, fingerprints bool, fp *bloc_analysis.Fingerprinter) {
	if br.Err != nil {
		fmt.Fprintf(w, "%s: %s\n", headerStyle.Render(br.Account), errorStyle.Render(br.Err.Error()))
		return
	}
	res := br.Result
	name := res.Account
	if res.Handle != "" {
		name = fmt.Sprintf("%s (@%s)", res.Account, res.Handle)
	}
	fmt.Fprintf(w, "%s  segments=%d skipped=%d\n", headerStyle.Render(name), res.SegmentCount, len(res.Skipped))
	for _, d := range behavior_encoder.AllDimensions {
		s, ok := res.Bloc[d]
		if !ok {
			continue
		}
		if color && (d == behavior_encoder.DimensionAction || d == behavior_encoder.DimensionActionContentSyntactic) {
			s = behavior_encoder.Colorize(s, cat.PauseGlyphs(), renderAction)
		}
		fmt.Fprintf(w, "  %s: %s\n", labelStyle.Render(d), s)
		if fingerprints {
			for _, sf := range fp.Fingerprints(res.Bloc[d], d) {
				fmt.Fprintf(w, "    %s: %s\n", labelStyle.Render(string(sf.Type)), sf.Text)
			}
		}
	}
}
