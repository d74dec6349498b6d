package batch

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"graham/internal/domain/analysis"
	"graham/internal/metrics"
	"graham/pkg/errors"
	"graham/pkg/logger"
)

// Status is the runner's lifecycle state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Analyzer runs one ticker through one analysis stage.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string, analysisType analysis.Type) (*analysis.Result, error)
}

// Failure records one errored ticker-stage run, in the order it happened.
type Failure struct {
	Ticker string
	Stage  string
	Error  string
}

// Snapshot is the read-only progress view handed to the observer. It is a
// copy; observers must not attempt to mutate runner state through it.
type Snapshot struct {
	BatchID     uuid.UUID
	Protocol    string
	Status      Status
	Stage       string
	StageIndex  int
	TotalStages int
	TickerIndex int
	StageSize   int
	Ticker      string
	Decision    analysis.Decision
	Completed   int
	Errored     int
	Failures    []Failure
}

// Observer receives a snapshot after every finished ticker. Called
// synchronously from the runner's single execution path.
type Observer func(Snapshot)

// Runner drives tickers through a protocol's stages sequentially. All state
// is mutated by the single Run/Resume execution path; Stop only flips an
// atomic flag that is honored at ticker boundaries.
type Runner struct {
	analyzer Analyzer
	repo     analysis.Repository
	protocol Protocol
	observer Observer
	log      *logger.Logger

	batchID uuid.UUID
	status  Status
	// results[stage name][ticker], in-memory record for stage gating and
	// idempotent resume.
	results    map[string]map[string]*analysis.Result
	candidates []string
	stageIdx   int
	tickerIdx  int
	completed  int
	errored    int
	failures   []Failure

	stopRequested atomic.Bool
}

// NewRunner creates a batch runner. repo may be nil; observer may be nil.
func NewRunner(analyzer Analyzer, repo analysis.Repository, protocol Protocol, observer Observer) *Runner {
	return &Runner{
		analyzer: analyzer,
		repo:     repo,
		protocol: protocol,
		observer: observer,
		log:      logger.Get().With("component", "batch"),
		batchID:  uuid.New(),
		status:   StatusIdle,
		results:  make(map[string]map[string]*analysis.Result),
	}
}

// Status returns the runner's current lifecycle state.
func (r *Runner) Status() Status {
	return r.status
}

// BatchID returns the batch identifier.
func (r *Runner) BatchID() uuid.UUID {
	return r.batchID
}

// Results returns the per-stage results recorded so far.
func (r *Runner) Results() map[string]map[string]*analysis.Result {
	return r.results
}

// Failures returns the errored ticker-stage runs in the order they occurred.
func (r *Runner) Failures() []Failure {
	return append([]Failure(nil), r.failures...)
}

// Stop requests a pause. The request is honored at the next ticker
// boundary; the in-flight ticker always finishes and persists first.
func (r *Runner) Stop() {
	r.stopRequested.Store(true)
}

// Run starts the protocol over the given tickers. Valid only from idle.
func (r *Runner) Run(ctx context.Context, tickers []string) error {
	if r.status != StatusIdle {
		return errors.Wrapf(errors.ErrInvalidTransition, "run from %s", r.status)
	}
	if len(r.protocol.Stages) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "protocol has no stages")
	}

	r.candidates = append([]string(nil), tickers...)
	r.stageIdx = 0
	r.tickerIdx = 0
	r.status = StatusRunning

	r.log.Infow("Batch started",
		"batch_id", r.batchID,
		"protocol", r.protocol.ID,
		"tickers", len(tickers),
	)
	return r.loop(ctx)
}

// Resume continues a paused batch from the exact ticker boundary it paused
// at. Valid only from paused; ticker-stage pairs that already have results
// are skipped, so resuming never re-runs finished work.
func (r *Runner) Resume(ctx context.Context) error {
	if r.status != StatusPaused {
		return errors.Wrapf(errors.ErrInvalidTransition, "resume from %s", r.status)
	}
	r.stopRequested.Store(false)
	r.status = StatusRunning

	r.log.Infow("Batch resumed",
		"batch_id", r.batchID,
		"stage", r.protocol.Stages[r.stageIdx].Name,
		"ticker_index", r.tickerIdx,
	)
	return r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) error {
	for ; r.stageIdx < len(r.protocol.Stages); r.stageIdx++ {
		stage := r.protocol.Stages[r.stageIdx]
		stageResults := r.stageResults(stage.Name)

		for ; r.tickerIdx < len(r.candidates); r.tickerIdx++ {
			if r.stopRequested.Load() {
				r.status = StatusPaused
				r.log.Infow("Batch paused",
					"batch_id", r.batchID,
					"stage", stage.Name,
					"ticker_index", r.tickerIdx,
				)
				return nil
			}

			ticker := r.candidates[r.tickerIdx]
			if _, done := stageResults[ticker]; done {
				continue
			}

			result := r.runTicker(ctx, stage, ticker)
			stageResults[ticker] = result
			r.completed++
			if result.Decision == analysis.DecisionError {
				r.errored++
				r.failures = append(r.failures, Failure{
					Ticker: ticker,
					Stage:  stage.Name,
					Error:  result.Metadata.Error,
				})
			}
			metrics.BatchTickers.WithLabelValues(stage.Name, string(result.Decision)).Inc()

			r.notify(stage, ticker, result.Decision)
		}

		// Stage finished: derive the next stage's candidates from this
		// stage's recorded decisions, preserving order.
		if r.stageIdx+1 < len(r.protocol.Stages) {
			next := make([]string, 0, len(r.candidates))
			for _, ticker := range r.candidates {
				if res, ok := stageResults[ticker]; ok && stage.Passes(res.Decision) {
					next = append(next, ticker)
				}
			}
			r.log.Infow("Stage complete",
				"batch_id", r.batchID,
				"stage", stage.Name,
				"passed", len(next),
				"of", len(r.candidates),
			)
			r.candidates = next
			r.tickerIdx = 0
		}
	}

	r.status = StatusComplete
	r.log.Infow("Batch complete",
		"batch_id", r.batchID,
		"completed", r.completed,
		"errored", r.errored,
	)
	return nil
}

// runTicker executes one ticker-stage run with full error isolation: a
// panicking or failing analysis becomes an ERROR result, never a dead batch.
func (r *Runner) runTicker(ctx context.Context, stage Stage, ticker string) (result *analysis.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorw("Ticker analysis panicked",
				"ticker", ticker, "stage", stage.Name, "panic", rec)
			result = analysis.NewErrorResult(ticker, stage.AnalysisType, fmt.Errorf("panic: %v", rec))
			r.persist(ctx, result)
		}
	}()

	res, err := r.analyzer.Analyze(ctx, ticker, stage.AnalysisType)
	if err != nil {
		r.log.Errorw("Ticker analysis failed",
			"ticker", ticker, "stage", stage.Name, "error", err)
		if res == nil {
			res = analysis.NewErrorResult(ticker, stage.AnalysisType, err)
		}
	}
	r.persist(ctx, res)
	return res
}

func (r *Runner) persist(ctx context.Context, result *analysis.Result) {
	if r.repo == nil {
		return
	}
	if err := r.repo.Save(ctx, result); err != nil {
		// Persistence failure is recorded but does not abort the batch.
		r.log.Errorw("Result persistence failed",
			"ticker", result.Ticker, "error", err)
	}
}

func (r *Runner) stageResults(stage string) map[string]*analysis.Result {
	if r.results[stage] == nil {
		r.results[stage] = make(map[string]*analysis.Result)
	}
	return r.results[stage]
}

func (r *Runner) notify(stage Stage, ticker string, decision analysis.Decision) {
	if r.observer == nil {
		return
	}
	r.observer(Snapshot{
		BatchID:     r.batchID,
		Protocol:    r.protocol.ID,
		Status:      r.status,
		Stage:       stage.Name,
		StageIndex:  r.stageIdx,
		TotalStages: len(r.protocol.Stages),
		TickerIndex: r.tickerIdx,
		StageSize:   len(r.candidates),
		Ticker:      ticker,
		Decision:    decision,
		Completed:   r.completed,
		Errored:     r.errored,
		Failures:    append([]Failure(nil), r.failures...),
	})
}
