package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
	"github.com/couchcryptid/bom-forecast-etl/internal/observability"
)

// Fetcher downloads the bulletin and returns its local path.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Extractor renders a parsed bulletin into an excerpt.
type Extractor interface {
	Extract(b *domain.Bulletin) domain.Excerpt
}

// Saver persists excerpt text and reports whether anything was written.
type Saver interface {
	Save(ctx context.Context, text string) (bool, error)
}

// Publisher forwards a saved excerpt downstream.
type Publisher interface {
	Publish(ctx context.Context, ex domain.Excerpt) error
}

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSaved          Outcome = "saved"
	OutcomeNothingToSave  Outcome = "nothing_to_save"
	OutcomeTransferFailed Outcome = "transfer_failed"
	OutcomeParseFailed    Outcome = "parse_failed"
	OutcomeWriteFailed    Outcome = "write_failed"
)

// Result is the explicit outcome of one run. The caller decides how it maps
// to an exit status.
type Result struct {
	RunID      string
	Outcome    Outcome
	Excerpt    domain.Excerpt
	Err        error
	FinishedAt time.Time
}

// Failed reports whether the run hit a fatal error.
func (r Result) Failed() bool { return r.Err != nil }

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPublishers adds downstream publishers for saved excerpts.
func WithPublishers(pubs ...Publisher) Option {
	return func(p *Pipeline) { p.publishers = append(p.publishers, pubs...) }
}

// WithClock replaces the real clock, used by the scheduled loop.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline runs fetch, parse, extract and save strictly in sequence.
type Pipeline struct {
	fetcher    Fetcher
	extractor  Extractor
	saver      Saver
	publishers []Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	ready      atomic.Bool

	mu   sync.Mutex
	last *Result
}

// New creates a Pipeline with the given stages and observability.
func New(f Fetcher, x Extractor, s Saver, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:   f,
		extractor: x,
		saver:     s,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has completed without a fatal error,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no successful run yet")
	}
	return nil
}

// LastResult returns the most recent run result, if any.
func (p *Pipeline) LastResult() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return Result{}, false
	}
	return *p.last, true
}

// RunOnce performs one fetch-extract-save pass. Fatal errors are returned in
// the Result rather than logged and swallowed; missing bulletin content only
// shrinks the excerpt.
func (p *Pipeline) RunOnce(ctx context.Context) Result {
	res := Result{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", res.RunID)
	logger.Info("run started")

	p.execute(ctx, logger, &res)

	res.FinishedAt = p.clock.Now()
	p.metrics.Runs.WithLabelValues(string(res.Outcome)).Inc()
	if res.Failed() {
		logger.Error("run failed", "outcome", res.Outcome, "error", res.Err)
	} else {
		p.ready.Store(true)
		logger.Info("run finished", "outcome", res.Outcome, "sections", len(res.Excerpt.Rendered))
	}

	p.mu.Lock()
	p.last = &res
	p.mu.Unlock()
	return res
}

func (p *Pipeline) execute(ctx context.Context, logger *slog.Logger, res *Result) {
	path, err := p.fetcher.Fetch(ctx)
	if err != nil {
		res.Outcome, res.Err = OutcomeTransferFailed, err
		return
	}

	bulletin, err := domain.ParseBulletinFile(path)
	if err != nil {
		res.Outcome, res.Err = OutcomeParseFailed, err
		return
	}

	ex := p.extractor.Extract(bulletin)
	res.Excerpt = ex
	for _, src := range ex.Rendered {
		p.metrics.SectionsRendered.WithLabelValues(string(src)).Inc()
	}
	p.metrics.TimestampErrors.Add(float64(ex.TimestampErrors))

	saved, err := p.saver.Save(ctx, ex.Text)
	if err != nil {
		res.Outcome, res.Err = OutcomeWriteFailed, err
		return
	}
	if !saved {
		res.Outcome = OutcomeNothingToSave
		return
	}

	res.Outcome = OutcomeSaved
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	p.publish(ctx, logger, ex)
}

// publish forwards the excerpt to every publisher. Failures are logged and
// counted only; the excerpt is already on disk.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, ex domain.Excerpt) {
	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, ex); err != nil {
			p.metrics.PublishErrors.Inc()
			logger.Warn("publish failed", "error", err)
		}
	}
}

// Run executes one pass immediately and then one per interval tick until the
// context is cancelled. Passes never overlap and failed passes are not
// retried before the next tick.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("run interval must be positive")
	}
	p.logger.Info("scheduler started", "interval", interval)
	p.metrics.SchedulerRunning.Set(1)
	defer p.metrics.SchedulerRunning.Set(0)

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.RunOnce(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}
