package evaluator

import (
	"context"
	"time"

	"pulsemon/config"
	"pulsemon/internals/modules/monitor"

	"github.com/rs/zerolog"
)

// Store is the slice of the monitor store the evaluator needs.
type Store interface {
	ListAll(ctx context.Context) ([]monitor.Monitor, error)
	EvaluateAt(ctx context.Context, slug string, now time.Time) (*monitor.Transition, error)
}

// Sink receives committed transitions for notification fan-out.
type Sink interface {
	Enqueue(tr monitor.Transition)
}

// Evaluator is the recurring background task that detects missed
// heartbeats. It is a single goroutine, cycles are strictly sequential
// and never overlap.
type Evaluator struct {
	// lifecycle
	ctx      context.Context
	interval time.Duration
	done     chan struct{}

	// collaborators
	store  Store
	alerts Sink

	// misc
	logger *zerolog.Logger
}

func New(
	ctx context.Context,
	workerCfg *config.WorkerConfig,
	store Store,
	alerts Sink,
	logger *zerolog.Logger,
) *Evaluator {

	return &Evaluator{
		ctx:      ctx,
		interval: time.Duration(workerCfg.IntervalSec) * time.Second,
		done:     make(chan struct{}),
		store:    store,
		alerts:   alerts,
		logger:   logger,
	}
}

// Run blocks until the context is cancelled.
func (e *Evaluator) Run() {
	if e.interval <= 0 {
		panic("evaluator interval must be > 0")
	}
	e.logger.Info().Dur("interval", e.interval).Msg("evaluator started")

	ticker := time.NewTicker(e.interval)
	defer func() {
		ticker.Stop()
		close(e.done)
		e.logger.Info().Msg("evaluator stopped")
	}()

	// first pass right away, a restart must not wait a full interval
	// before flagging monitors that went stale while the process was down
	e.runCycle()

	for {
		select {
		case <-e.ctx.Done():
			return

		case <-ticker.C:
			e.runCycle()
		}
	}
}

// Done is closed once Run has returned, after that no more transitions
// are enqueued from this evaluator.
func (e *Evaluator) Done() <-chan struct{} {
	return e.done
}

func (e *Evaluator) runCycle() {
	// a panic in one cycle must not kill the loop
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error().Interface("panic", rec).Msg("evaluator cycle panicked")
		}
	}()

	// all monitors in this cycle are judged against the same instant
	now := time.Now().UTC()

	monitors, err := e.store.ListAll(e.ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("evaluator failed to load monitors")
		return
	}

	for i := range monitors {
		m := &monitors[i]

		// never pinged -> no transition possible, stays UNKNOWN
		if m.LastPing == nil {
			continue
		}

		// cheap pre-check, the store re-decides under the row lock
		if _, changed := monitor.Decide(m.Status, m.LastPing, m.IntervalSec, m.GraceSec, now); !changed {
			continue
		}

		tr, err := e.store.EvaluateAt(e.ctx, m.Slug, now)
		if err != nil {
			// one broken monitor must not stop the rest of the cycle
			e.logger.Error().Err(err).Str("slug", m.Slug).Msg("monitor evaluation failed")
			continue
		}
		if tr == nil {
			// a concurrent writer got there first
			continue
		}

		e.logger.Info().
			Str("slug", m.Slug).
			Str("prev_status", string(tr.Prev)).
			Str("new_status", string(tr.New)).
			Str("note", tr.Note).
			Msg("monitor status transition")

		e.alerts.Enqueue(*tr)
	}
}
