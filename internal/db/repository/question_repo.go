package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// QuestionRow mirrors the questions table.
type QuestionRow struct {
	ID          string
	Text        string
	Options     []string
	CorrectIdx  int
	Explanation string
	Category    string
	Difficulty  string
}

type questionQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// QuestionRepository reads the curated question pool.
type QuestionRepository struct {
	db questionQuerier
}

// NewQuestionRepository constructs a question repository over a pgx pool.
func NewQuestionRepository(db questionQuerier) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// FetchPool returns up to limit random questions matching the filters.
// Passing "any" for topic or difficulty disables that filter.
func (r *QuestionRepository) FetchPool(ctx context.Context, topic, difficulty string, limit int) ([]QuestionRow, error) {
	const q = `
		SELECT question_id, question_text, options, correct_option, COALESCE(explanation, ''), category, difficulty
		FROM questions
		WHERE ($1 = 'any' OR LOWER(category) = LOWER($1))
		  AND ($2 = 'any' OR LOWER(difficulty) = LOWER($2))
		ORDER BY random()
		LIMIT $3`

	rows, err := r.db.Query(ctx, q, topic, difficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("query question pool: %w", err)
	}
	defer rows.Close()

	var result []QuestionRow
	for rows.Next() {
		var row QuestionRow
		if err := rows.Scan(&row.ID, &row.Text, &row.Options, &row.CorrectIdx, &row.Explanation, &row.Category, &row.Difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return result, nil
}
