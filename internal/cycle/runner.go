// Package cycle runs one fetch → compare → report → persist pass.
//
// The runner is single-shot and holds no timer state; triggering belongs to
// the caller. Every error from fetching, loading or saving ends up as exactly
// one failure notification; nothing is retried.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storewatch/internal/catalog"
	"storewatch/internal/diff"
	"storewatch/internal/report"
	logx "storewatch/pkg/logx"
)

// Fetcher returns the current catalog.
type Fetcher interface {
	Fetch(ctx context.Context) (catalog.Collection, error)
}

// Store loads and replaces the baseline snapshot.
type Store interface {
	Load(ctx context.Context) (catalog.Collection, bool, error)
	Save(ctx context.Context, items catalog.Collection) error
}

// Sink delivers one composed message to the destination chat.
type Sink interface {
	Send(ctx context.Context, msg report.Message) error
}

// Outcome summarizes one cycle.
//
// Kind is the report that was produced for the cycle's main path (Failure
// when fetch or load failed). Err is non-nil when anything went wrong,
// including a save failure reported after a successful change report.
type Outcome struct {
	ID      string
	Kind    report.Kind
	Items   int
	Added   int
	Removed int
	Saved   bool
	Err     error
	Took    time.Duration
}

type Runner struct {
	fetcher Fetcher
	store   Store
	sink    Sink
	log     logx.Logger
}

func New(fetcher Fetcher, store Store, sink Sink, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{fetcher: fetcher, store: store, sink: sink, log: log}
}

// Run executes one cycle. Callers must not run cycles concurrently against the same store.
func (r *Runner) Run(ctx context.Context) (out Outcome) {
	out.ID = uuid.NewString()
	log := r.log.With(logx.String("cycle_id", out.ID))
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("internal error: %v", p)
			log.Error("cycle panicked", logx.Any("panic", p))
			out.Kind = report.Failure
			out.Err = errors.Join(err, r.send(ctx, log, report.FailureMessage(err)))
		}
		out.Took = time.Since(start)
		r.logOutcome(log, out)
	}()

	log.Debug("cycle started")

	fresh, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return r.fail(ctx, log, out, err)
	}
	out.Items = len(fresh)

	old, ok, err := r.store.Load(ctx)
	if err != nil {
		return r.fail(ctx, log, out, err)
	}

	if !ok {
		// Nothing to compare against: establish the baseline first.
		if err := r.store.Save(ctx, fresh); err != nil {
			return r.fail(ctx, log, out, err)
		}
		out.Saved = true
		out.Kind = report.FirstRun
		out.Err = r.send(ctx, log, report.FirstRunMessage())
		return out
	}

	d := diff.Compute(old, fresh)
	msg := report.ForDiff(d)
	out.Kind = msg.Kind
	out.Added = len(d.Added)
	out.Removed = len(d.Removed)

	if err := r.send(ctx, log, msg); err != nil {
		// Keep the old baseline; the next cycle reports the same delta.
		out.Err = err
		return out
	}

	if err := r.store.Save(ctx, fresh); err != nil {
		out.Err = errors.Join(err, r.send(ctx, log, report.FailureMessage(err)))
		return out
	}
	out.Saved = true
	return out
}

func (r *Runner) fail(ctx context.Context, log logx.Logger, out Outcome, err error) Outcome {
	out.Kind = report.Failure
	out.Err = errors.Join(err, r.send(ctx, log, report.FailureMessage(err)))
	return out
}

func (r *Runner) send(ctx context.Context, log logx.Logger, msg report.Message) error {
	if r.sink == nil {
		return errors.New("no notification sink configured")
	}
	if err := r.sink.Send(ctx, msg); err != nil {
		log.Error("report send failed", logx.String("kind", msg.Kind.String()), logx.Err(err))
		return fmt.Errorf("send %s report: %w", msg.Kind, err)
	}
	return nil
}

func (r *Runner) logOutcome(log logx.Logger, out Outcome) {
	fields := []logx.Field{
		logx.String("kind", out.Kind.String()),
		logx.Int("items", out.Items),
		logx.Int("added", out.Added),
		logx.Int("removed", out.Removed),
		logx.Bool("saved", out.Saved),
		logx.Duration("took", out.Took),
	}
	if out.Err != nil {
		log.Error("cycle failed", append(fields, logx.Err(out.Err))...)
		return
	}
	log.Info("cycle finished", fields...)
}
