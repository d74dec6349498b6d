package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"graham/internal/domain/analysis"
	"graham/pkg/errors"
)

// Compile-time check
var _ analysis.Repository = (*AnalysisRepository)(nil)

// AnalysisRepository implements analysis.Repository using sqlx.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// analysisRow is the flat table shape of one analysis result.
type analysisRow struct {
	ID              uuid.UUID      `db:"id"`
	Ticker          string         `db:"ticker"`
	Decision        string         `db:"decision"`
	Conviction      sql.NullString `db:"conviction"`
	Thesis          string         `db:"thesis"`
	AnalysisType    string         `db:"analysis_type"`
	Iterations      int            `db:"iterations"`
	ToolCallsMade   int            `db:"tool_calls_made"`
	InputTokens     int            `db:"input_tokens"`
	OutputTokens    int            `db:"output_tokens"`
	CostUSD         float64        `db:"cost_usd"`
	YearsAnalyzed   int            `db:"years_analyzed"`
	DurationSeconds float64        `db:"duration_seconds"`
	Error           sql.NullString `db:"error"`
	CreatedAt       time.Time      `db:"created_at"`
}

func toRow(r *analysis.Result) analysisRow {
	row := analysisRow{
		ID:              r.ID,
		Ticker:          r.Ticker,
		Decision:        string(r.Decision),
		Thesis:          r.Thesis,
		AnalysisType:    string(r.Metadata.AnalysisType),
		Iterations:      r.Metadata.Iterations,
		ToolCallsMade:   r.Metadata.ToolCallsMade,
		InputTokens:     r.Metadata.TokenUsage.InputTokens,
		OutputTokens:    r.Metadata.TokenUsage.OutputTokens,
		CostUSD:         r.Metadata.TokenUsage.CostUSD,
		YearsAnalyzed:   r.Metadata.YearsAnalyzed,
		DurationSeconds: r.Metadata.DurationSeconds,
		CreatedAt:       r.CreatedAt,
	}
	if r.Conviction != "" {
		row.Conviction = sql.NullString{String: string(r.Conviction), Valid: true}
	}
	if r.Metadata.Error != "" {
		row.Error = sql.NullString{String: r.Metadata.Error, Valid: true}
	}
	return row
}

func (row analysisRow) toResult() *analysis.Result {
	result := &analysis.Result{
		ID:       row.ID,
		Ticker:   row.Ticker,
		Decision: analysis.Decision(row.Decision),
		Thesis:   row.Thesis,
		Metadata: analysis.Metadata{
			AnalysisType:  analysis.Type(row.AnalysisType),
			Iterations:    row.Iterations,
			ToolCallsMade: row.ToolCallsMade,
			TokenUsage: analysis.TokenUsage{
				InputTokens:  row.InputTokens,
				OutputTokens: row.OutputTokens,
				CostUSD:      row.CostUSD,
			},
			YearsAnalyzed:   row.YearsAnalyzed,
			DurationSeconds: row.DurationSeconds,
		},
		CreatedAt: row.CreatedAt,
	}
	if row.Conviction.Valid {
		result.Conviction = analysis.Conviction(row.Conviction.String)
	}
	if row.Error.Valid {
		result.Metadata.Error = row.Error.String
	}
	return result
}

// Save inserts one analysis result. Results are immutable; there is no
// update path.
func (r *AnalysisRepository) Save(ctx context.Context, result *analysis.Result) error {
	query := `
		INSERT INTO analyses (
			id, ticker, decision, conviction, thesis, analysis_type,
			iterations, tool_calls_made, input_tokens, output_tokens,
			cost_usd, years_analyzed, duration_seconds, error, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	row := toRow(result)
	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.Ticker, row.Decision, row.Conviction, row.Thesis, row.AnalysisType,
		row.Iterations, row.ToolCallsMade, row.InputTokens, row.OutputTokens,
		row.CostUSD, row.YearsAnalyzed, row.DurationSeconds, row.Error, row.CreatedAt,
	)
	return errors.Wrap(err, "insert analysis")
}

// Load retrieves one analysis result by id.
func (r *AnalysisRepository) Load(ctx context.Context, id uuid.UUID) (*analysis.Result, error) {
	var row analysisRow

	query := `SELECT * FROM analyses WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(errors.ErrNotFound, "analysis %s", id)
		}
		return nil, errors.Wrap(err, "load analysis")
	}
	return row.toResult(), nil
}

// History retrieves the most recent results for a ticker, newest first.
func (r *AnalysisRepository) History(ctx context.Context, ticker string, limit int) ([]*analysis.Result, error) {
	var rows []analysisRow

	query := `
		SELECT * FROM analyses
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &rows, query, ticker, limit); err != nil {
		return nil, errors.Wrap(err, "load analysis history")
	}

	results := make([]*analysis.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toResult())
	}
	return results, nil
}
