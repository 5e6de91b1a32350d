package behavior_encoder

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jtomasevic/bloc/pkg/activity"
)

// BatchResult is the outcome for one timeline of a batch. Err is set instead of
// Result when that timeline failed; other timelines are unaffected.
type BatchResult struct {
	Account activity.AccountID
	Result  Result
	Err     error
}

// EncodeBatch encodes timelines concurrently, at most limit at a time. A limit of
// zero or less leaves concurrency unbounded. Results keep the input order and only
// ctx cancellation stops the batch early.
func (e *BlocEncoder) EncodeBatch(ctx context.Context, timelines []activity.Timeline, limit int) ([]BatchResult, error) {
	out := make([]BatchResult, len(timelines))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := range timelines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tl := timelines[i]
			res, err := e.encodeIsolated(tl)
			out[i] = BatchResult{Account: tl.Account, Result: res, Err: err}
			if err != nil {
				e.log.WithError(err).WithField("account", tl.Account).Error("timeline encoding failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// encodeIsolated keeps a panic in one timeline from taking down the batch.
func (e *BlocEncoder) encodeIsolated(tl activity.Timeline) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("encode %s: panic: %v", tl.Account, r)
		}
	}()
	return e.EncodeTimeline(tl)
}
