// Package engine implements the Patrol tick loop (C8): on every interval it
// snapshots the target configuration, polls every target with a bounded
// number of retries against a shared per-tick deadline, records any content
// change in the data store, and renders a recency-colored report.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/namba3/patrol/internal/configstore"
	"github.com/namba3/patrol/internal/datastore"
	"github.com/namba3/patrol/internal/domain"
	"github.com/namba3/patrol/internal/poller"
	"github.com/namba3/patrol/internal/realtime"
)

// maxRetries bounds how many times a tick re-polls targets that errored or
// whose poll never returned before the tick's deadline.
const maxRetries = 3

// Engine owns the tick loop. It has no mutable exported state; Run and
// RunOnce are safe to call from a single goroutine only (the engine is not
// designed for concurrent ticks).
type Engine struct {
	configs     *configstore.Store
	data        datastore.Handle
	poller      poller.Poller
	broadcaster *realtime.Broadcaster

	period Duration
	limit  *uint8

	log     *slog.Logger
	metrics *Metrics
	report  io.Writer
}

// Duration is a thin alias so callers don't need to import domain just to
// construct an Engine; it is always a domain.Duration under the hood.
type Duration = domain.Duration

// Config bundles Engine's constructor arguments.
type Config struct {
	Configs     *configstore.Store
	Data        datastore.Handle
	Poller      poller.Poller
	Broadcaster *realtime.Broadcaster
	Period      Duration
	Limit       *uint8 // nil means unbounded
	Log         *slog.Logger
	Metrics     *Metrics
	Report      io.Writer // defaults to os.Stdout
}

// New returns an Engine built from cfg.
func New(cfg Config) *Engine {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	report := cfg.Report
	if report == nil {
		report = os.Stdout
	}
	return &Engine{
		configs:     cfg.Configs,
		data:        cfg.Data,
		poller:      cfg.Poller,
		broadcaster: cfg.Broadcaster,
		period:      cfg.Period,
		limit:       cfg.Limit,
		log:         log.With("component", "engine"),
		metrics:     cfg.Metrics,
		report:      report,
	}
}

// Run drives the tick loop until ctx is cancelled, firing one tick every
// e.period. It returns nil on clean shutdown.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.period.Stdlib())
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if err := e.tick(ctx, now.Add(e.period.Stdlib())); err != nil {
				return err
			}
		case <-ctx.Done():
			e.log.Info("engine shutting down")
			return nil
		}
	}
}

// RunOnce performs exactly one tick immediately and returns, for the
// --once CLI flag.
func (e *Engine) RunOnce(ctx context.Context) error {
	return e.tick(ctx, time.Now().Add(e.period.Stdlib()))
}

// tick runs one admission-check, poll, retry, and report cycle for a
// single firing of the interval timer.
func (e *Engine) tick(ctx context.Context, deadline time.Time) error {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.TickDuration.Observe(time.Since(start).Seconds())
		}
	}()

	// 1. Admission.
	if e.limit != nil {
		if *e.limit == 0 {
			return nil
		}
		*e.limit--
	}

	// 2. Snapshot.
	configs := e.configs.GetAll()

	// 3. Deadline is the caller-supplied instant.

	// 4. Fan-out with bounded retry.
	rem := make(map[domain.Id]domain.Config, len(configs))
	for id, cfg := range configs {
		rem[id] = cfg
	}

	retry := maxRetries
	for len(rem) > 0 && retry > 0 {
		e.pollRound(ctx, deadline, configs, rem)
		retry--
		if e.metrics != nil {
			e.metrics.TargetsPending.Set(float64(len(rem)))
		}
	}
	if len(rem) > 0 && e.metrics != nil {
		e.metrics.RetriesExhausted.Inc()
		e.log.Warn("retry budget exhausted, some targets unresolved this tick", "remaining", len(rem))
	}

	// 5. Report.
	data, err := e.data.GetAll(ctx)
	if err != nil {
		e.log.Warn("failed to read data store for report", "error", err)
		return nil
	}
	e.renderReport(e.report, data, configs, domain.Now())

	return nil
}

// pollRound runs one retry iteration: it starts a poll_multiple stream over
// rem (bounded by the shared tick deadline) and applies every result as it
// arrives, mutating rem in place.
func (e *Engine) pollRound(ctx context.Context, deadline time.Time, configs map[domain.Id]domain.Config, rem map[domain.Id]domain.Config) {
	roundCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	targets := make(map[domain.Id]domain.Config, len(rem))
	for id, cfg := range rem {
		targets[id] = cfg
	}

	stream := e.poller.PollMultiple(roundCtx, targets)
	for {
		select {
		case r, ok := <-stream:
			if !ok {
				return
			}
			e.applyResult(ctx, r, configs, rem)
		case <-roundCtx.Done():
			return
		}
	}
}

// applyResult folds one poll outcome into rem and the data store: it
// retries on error, drops targets whose extracted text is empty, and
// otherwise hashes the text and records it.
func (e *Engine) applyResult(ctx context.Context, r poller.Result, configs map[domain.Id]domain.Config, rem map[domain.Id]domain.Config) {
	if r.Err != nil {
		e.log.Warn("poll failed, will retry", "target_id", r.Id, "error", r.Err)
		if e.metrics != nil {
			e.metrics.PollErrors.WithLabelValues(modeOf(r.Err)).Inc()
		}
		return
	}

	text := strings.TrimSpace(r.Text)
	if text == "" {
		e.log.Warn("empty content, skipping for this tick", "target_id", r.Id)
		delete(rem, r.Id)
		return
	}

	hash := domain.NewHash([]byte(text))
	ts, err := e.data.Update(ctx, r.Id, hash)
	if err != nil {
		e.log.Warn("data store update failed, will retry", "target_id", r.Id, "error", err)
		return
	}
	delete(rem, r.Id)

	if ts != nil {
		cfg, ok := configs[r.Id]
		if !ok {
			return
		}
		e.broadcaster.Publish(realtime.DocUpdate{Id: r.Id, Url: cfg.Url, Timestamp: *ts})
	}
}

// modeOf extracts the poller.TaggedError mode from err for per-mode error
// metrics, falling back to "unknown" when err isn't tagged (e.g. a
// deadline cancellation).
func modeOf(err error) string {
	var tagged *poller.TaggedError
	if errors.As(err, &tagged) {
		return tagged.Mode
	}
	return "unknown"
}
