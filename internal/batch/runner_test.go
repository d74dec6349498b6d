package batch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graham/internal/domain/analysis"
	"graham/pkg/errors"
)

// fakeAnalyzer returns scripted decisions and records every call.
type fakeAnalyzer struct {
	decisions map[analysis.Type]map[string]analysis.Decision
	calls     []string
	panicOn   string
	failOn    string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, ticker string, analysisType analysis.Type) (*analysis.Result, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%s", analysisType, ticker))

	if ticker == f.panicOn {
		panic("analyzer exploded")
	}
	if ticker == f.failOn {
		return nil, errors.New("upstream API down")
	}

	decision := analysis.DecisionUnclear
	if m, ok := f.decisions[analysisType]; ok {
		if d, ok := m[ticker]; ok {
			decision = d
		}
	}
	return &analysis.Result{
		ID:       uuid.New(),
		Ticker:   ticker,
		Decision: decision,
		Metadata: analysis.Metadata{AnalysisType: analysisType},
	}, nil
}

// memRepo is an in-memory analysis.Repository.
type memRepo struct {
	mu    sync.Mutex
	saved []*analysis.Result
}

func (m *memRepo) Save(_ context.Context, result *analysis.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, result)
	return nil
}

func (m *memRepo) Load(_ context.Context, id uuid.UUID) (*analysis.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.ErrNotFound
}

func (m *memRepo) History(_ context.Context, ticker string, limit int) ([]*analysis.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*analysis.Result
	for _, r := range m.saved {
		if r.Ticker == ticker {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func valueFunnel(t *testing.T) Protocol {
	t.Helper()
	p, err := GetProtocol("value_funnel")
	require.NoError(t, err)
	return p
}

func TestRunnerProtocolProgression(t *testing.T) {
	analyzer := &fakeAnalyzer{decisions: map[analysis.Type]map[string]analysis.Decision{
		analysis.TypeSharia: {
			"AAPL": analysis.DecisionCompliant,
			"BUD":  analysis.DecisionNonCompliant,
			"MSFT": analysis.DecisionCompliant,
		},
		analysis.TypeQuick: {
			"AAPL": analysis.DecisionInvestigate,
			"MSFT": analysis.DecisionPass,
		},
		analysis.TypeDeepDive: {
			"AAPL": analysis.DecisionBuy,
		},
	}}
	repo := &memRepo{}

	runner := NewRunner(analyzer, repo, valueFunnel(t), nil)
	require.NoError(t, runner.Run(context.Background(), []string{"AAPL", "BUD", "MSFT"}))

	assert.Equal(t, StatusComplete, runner.Status())
	assert.Equal(t, []string{
		"sharia_screen:AAPL", "sharia_screen:BUD", "sharia_screen:MSFT",
		"quick_screen:AAPL", "quick_screen:MSFT",
		"deep_dive:AAPL",
	}, analyzer.calls)

	// Every ticker-stage run was persisted immediately.
	assert.Len(t, repo.saved, 6)
}

func TestRunnerStopHonoredAtTickerBoundary(t *testing.T) {
	analyzer := &fakeAnalyzer{decisions: map[analysis.Type]map[string]analysis.Decision{
		analysis.TypeSharia: {
			"AAPL": analysis.DecisionCompliant,
			"MSFT": analysis.DecisionCompliant,
			"GOOG": analysis.DecisionCompliant,
		},
	}}

	protocol, err := GetProtocol("sharia_only")
	require.NoError(t, err)

	var runner *Runner
	runner = NewRunner(analyzer, nil, protocol, func(s Snapshot) {
		// Request a stop after the first finished ticker; the in-flight
		// ticker has already completed by the time this fires.
		if s.Completed == 1 {
			runner.Stop()
		}
	})

	require.NoError(t, runner.Run(context.Background(), []string{"AAPL", "MSFT", "GOOG"}))
	assert.Equal(t, StatusPaused, runner.Status())
	assert.Len(t, analyzer.calls, 1)
}

func TestRunnerResumeIsIdempotent(t *testing.T) {
	analyzer := &fakeAnalyzer{decisions: map[analysis.Type]map[string]analysis.Decision{
		analysis.TypeSharia: {
			"AAPL": analysis.DecisionCompliant,
			"MSFT": analysis.DecisionCompliant,
			"GOOG": analysis.DecisionCompliant,
		},
	}}

	protocol, err := GetProtocol("sharia_only")
	require.NoError(t, err)

	var runner *Runner
	runner = NewRunner(analyzer, nil, protocol, func(s Snapshot) {
		if s.Completed == 2 {
			runner.Stop()
		}
	})

	require.NoError(t, runner.Run(context.Background(), []string{"AAPL", "MSFT", "GOOG"}))
	require.Equal(t, StatusPaused, runner.Status())
	require.Len(t, analyzer.calls, 2)

	require.NoError(t, runner.Resume(context.Background()))
	assert.Equal(t, StatusComplete, runner.Status())

	// No ticker-stage pair ran twice.
	seen := make(map[string]int)
	for _, call := range analyzer.calls {
		seen[call]++
	}
	for call, count := range seen {
		assert.Equal(t, 1, count, "duplicate run: %s", call)
	}
	assert.Len(t, analyzer.calls, 3)
}

func TestRunnerErrorIsolation(t *testing.T) {
	analyzer := &fakeAnalyzer{
		decisions: map[analysis.Type]map[string]analysis.Decision{
			analysis.TypeSharia: {
				"AAPL": analysis.DecisionCompliant,
				"GOOG": analysis.DecisionCompliant,
			},
		},
		panicOn: "BOOM",
		failOn:  "FAIL",
	}
	repo := &memRepo{}

	protocol, err := GetProtocol("sharia_only")
	require.NoError(t, err)

	var final Snapshot
	runner := NewRunner(analyzer, repo, protocol, func(s Snapshot) { final = s })
	require.NoError(t, runner.Run(context.Background(), []string{"AAPL", "BOOM", "FAIL", "GOOG"}))

	assert.Equal(t, StatusComplete, runner.Status())

	results := runner.Results()["sharia_screen"]
	require.Len(t, results, 4)
	assert.Equal(t, analysis.DecisionCompliant, results["AAPL"].Decision)
	assert.Equal(t, analysis.DecisionError, results["BOOM"].Decision)
	assert.Contains(t, results["BOOM"].Metadata.Error, "panic")
	assert.Equal(t, analysis.DecisionError, results["FAIL"].Decision)
	assert.Equal(t, analysis.DecisionCompliant, results["GOOG"].Decision)

	// Failures are listed in the order they happened, with stage and cause.
	failures := runner.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "BOOM", failures[0].Ticker)
	assert.Equal(t, "sharia_screen", failures[0].Stage)
	assert.Contains(t, failures[0].Error, "panic")
	assert.Equal(t, "FAIL", failures[1].Ticker)
	assert.Contains(t, failures[1].Error, "upstream API down")

	// The observer's final snapshot carries the same list.
	assert.Equal(t, failures, final.Failures)
	assert.Equal(t, 2, final.Errored)
}

func TestErrorAndUnclearNeverPass(t *testing.T) {
	stage := Stage{
		Name:         "quick_screen",
		AnalysisType: analysis.TypeQuick,
		// Even a malicious pass list cannot let ERROR or UNCLEAR through.
		PassDecisions: []analysis.Decision{
			analysis.DecisionInvestigate,
			analysis.DecisionError,
			analysis.DecisionUnclear,
		},
	}

	assert.True(t, stage.Passes(analysis.DecisionInvestigate))
	assert.False(t, stage.Passes(analysis.DecisionError))
	assert.False(t, stage.Passes(analysis.DecisionUnclear))
	assert.False(t, stage.Passes(analysis.DecisionPass))
}

func TestRunnerUnclearDoesNotAdvance(t *testing.T) {
	analyzer := &fakeAnalyzer{decisions: map[analysis.Type]map[string]analysis.Decision{
		analysis.TypeSharia: {
			"AAPL": analysis.DecisionCompliant,
			"MSFT": analysis.DecisionCompliant,
		},
		analysis.TypeQuick: {
			"AAPL": analysis.DecisionInvestigate,
			// MSFT's screen produced no parseable marker.
			"MSFT": analysis.DecisionUnclear,
		},
		analysis.TypeDeepDive: {
			"AAPL": analysis.DecisionBuy,
		},
	}}

	runner := NewRunner(analyzer, nil, valueFunnel(t), nil)
	require.NoError(t, runner.Run(context.Background(), []string{"AAPL", "MSFT"}))

	assert.NotContains(t, analyzer.calls, "deep_dive:MSFT")
	assert.Contains(t, analyzer.calls, "deep_dive:AAPL")
}

func TestRunnerInvalidTransitions(t *testing.T) {
	analyzer := &fakeAnalyzer{decisions: map[analysis.Type]map[string]analysis.Decision{}}
	protocol, err := GetProtocol("sharia_only")
	require.NoError(t, err)

	runner := NewRunner(analyzer, nil, protocol, nil)

	err = runner.Resume(context.Background())
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))

	require.NoError(t, runner.Run(context.Background(), []string{"AAPL"}))
	require.Equal(t, StatusComplete, runner.Status())

	err = runner.Run(context.Background(), []string{"AAPL"})
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
	err = runner.Resume(context.Background())
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

func TestGetProtocolUnknownIDPropagates(t *testing.T) {
	_, err := GetProtocol("momentum_yolo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownProtocol))
}
