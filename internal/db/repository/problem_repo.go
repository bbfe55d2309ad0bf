package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ProblemRow mirrors the coding_problems table.
type ProblemRow struct {
	ID          string
	Title       string
	Description string
	StarterCode string
	Difficulty  string
	TestCases   []TestCaseRow
}

// TestCaseRow is one entry of the test_cases JSONB column.
type TestCaseRow struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

type problemQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProblemRepository reads the coding problem pool.
type ProblemRepository struct {
	db problemQuerier
}

// NewProblemRepository constructs a problem repository over a pgx pool.
func NewProblemRepository(db problemQuerier) *ProblemRepository {
	return &ProblemRepository{db: db}
}

const problemColumns = `problem_id, title, description, starter_code, difficulty, test_cases`

// FetchByTitle returns the problem with the given title (case-insensitive),
// or (nil, nil) when absent.
func (r *ProblemRepository) FetchByTitle(ctx context.Context, title string) (*ProblemRow, error) {
	q := fmt.Sprintf(`SELECT %s FROM coding_problems WHERE LOWER(title) = LOWER($1) LIMIT 1`, problemColumns)
	return r.scanOne(r.db.QueryRow(ctx, q, title))
}

// FetchRandom returns one random problem, filtered by difficulty unless the
// requested difficulty is "mixed". Returns (nil, nil) when the pool is empty.
func (r *ProblemRepository) FetchRandom(ctx context.Context, difficulty string) (*ProblemRow, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM coding_problems
		WHERE ($1 = 'mixed' OR LOWER(difficulty) = LOWER($1))
		ORDER BY random()
		LIMIT 1`, problemColumns)
	return r.scanOne(r.db.QueryRow(ctx, q, difficulty))
}

func (r *ProblemRepository) scanOne(row pgx.Row) (*ProblemRow, error) {
	var p ProblemRow
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.StarterCode, &p.Difficulty, &p.TestCases)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan problem: %w", err)
	}
	return &p, nil
}
