package question

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/smartquizarena/arena/internal/db/repository"
)

// PoolCache defines cache behavior (implemented by the Redis-backed Cache).
type PoolCache interface {
	Get(ctx context.Context, req FetchRequest) ([]Question, error)
	Set(ctx context.Context, req FetchRequest, questions []Question) error
}

type poolStore interface {
	FetchPool(ctx context.Context, topic, difficulty string, limit int) ([]repository.QuestionRow, error)
}

// Service selects questions for duel rooms from the curated pool, with a
// short-lived cache in front of the database.
type Service struct {
	repo  poolStore
	cache PoolCache
}

func NewService(repo poolStore, cache PoolCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Fetch returns up to req.Count questions matching the filters, in randomized
// order. Empty topic or difficulty falls back to the "any" wildcard. The DB
// read is retried with capped backoff; this is the only retry point on the
// duel path.
func (s *Service) Fetch(ctx context.Context, req FetchRequest) ([]Question, error) {
	if req.Topic == "" {
		req.Topic = FilterAny
	}
	if req.Difficulty == "" {
		req.Difficulty = FilterAny
	}
	if req.Count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", req.Count)
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, req); err == nil && len(cached) > 0 {
			shuffled := append([]Question(nil), cached...)
			rand.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			return shuffled, nil
		}
	}

	var rows []repository.QuestionRow
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var fetchErr error
		rows, fetchErr = s.repo.FetchPool(ctx, req.Topic, req.Difficulty, req.Count)
		if fetchErr != nil {
			return retry.RetryableError(fetchErr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch question pool: %w", err)
	}

	questions := make([]Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, toDomain(row))
	}
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	if s.cache != nil && len(questions) > 0 {
		_ = s.cache.Set(ctx, req, questions)
	}

	return questions, nil
}

func toDomain(row repository.QuestionRow) Question {
	explanation := row.Explanation
	if explanation == "" {
		explanation = "No explanation available"
	}
	return Question{
		ID:          row.ID,
		Text:        row.Text,
		Options:     row.Options,
		CorrectIdx:  row.CorrectIdx,
		Explanation: explanation,
	}
}
