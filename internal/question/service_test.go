package question

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartquizarena/arena/internal/db/repository"
)

type stubPoolStore struct {
	calls int
	fetch func(ctx context.Context, topic, difficulty string, limit int) ([]repository.QuestionRow, error)
}

func (s *stubPoolStore) FetchPool(ctx context.Context, topic, difficulty string, limit int) ([]repository.QuestionRow, error) {
	s.calls++
	return s.fetch(ctx, topic, difficulty, limit)
}

type memoryCache struct {
	store map[string][]Question
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: map[string][]Question{}}
}

func (c *memoryCache) key(req FetchRequest) string {
	return fmt.Sprintf("%s:%s:%d", req.Topic, req.Difficulty, req.Count)
}

func (c *memoryCache) Get(_ context.Context, req FetchRequest) ([]Question, error) {
	return c.store[c.key(req)], nil
}

func (c *memoryCache) Set(_ context.Context, req FetchRequest, questions []Question) error {
	c.store[c.key(req)] = questions
	return nil
}

func poolRow(id string) repository.QuestionRow {
	return repository.QuestionRow{
		ID:         id,
		Text:       "Prompt " + id,
		Options:    []string{"A", "B", "C", "D"},
		CorrectIdx: 1,
	}
}

func TestFetchAppliesAnyFallback(t *testing.T) {
	var gotTopic, gotDifficulty string
	repo := &stubPoolStore{
		fetch: func(_ context.Context, topic, difficulty string, limit int) ([]repository.QuestionRow, error) {
			gotTopic, gotDifficulty = topic, difficulty
			return []repository.QuestionRow{poolRow("q1")}, nil
		},
	}
	service := NewService(repo, newMemoryCache())

	resp, err := service.Fetch(context.Background(), FetchRequest{Count: 1})
	assert.NoError(t, err)
	assert.Len(t, resp, 1)
	assert.Equal(t, FilterAny, gotTopic)
	assert.Equal(t, FilterAny, gotDifficulty)
}

func TestFetchUsesCache(t *testing.T) {
	repo := &stubPoolStore{
		fetch: func(_ context.Context, topic, difficulty string, limit int) ([]repository.QuestionRow, error) {
			return []repository.QuestionRow{poolRow("q1"), poolRow("q2")}, nil
		},
	}
	cache := newMemoryCache()
	service := NewService(repo, cache)

	req := FetchRequest{Topic: "science", Difficulty: DifficultyEasy, Count: 2}

	first, err := service.Fetch(context.Background(), req)
	assert.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, repo.calls)

	second, err := service.Fetch(context.Background(), req)
	assert.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, 1, repo.calls, "second fetch should hit the cache")

	ids := []string{second[0].ID, second[1].ID}
	sort.Strings(ids)
	assert.Equal(t, []string{"q1", "q2"}, ids)
}

func TestFetchRetriesTransientFailure(t *testing.T) {
	attempts := 0
	repo := &stubPoolStore{
		fetch: func(_ context.Context, topic, difficulty string, limit int) ([]repository.QuestionRow, error) {
			attempts++
			if attempts < 2 {
				return nil, errors.New("db down")
			}
			return []repository.QuestionRow{poolRow("q1")}, nil
		},
	}
	service := NewService(repo, nil)

	resp, err := service.Fetch(context.Background(), FetchRequest{Count: 1})
	assert.NoError(t, err)
	assert.Len(t, resp, 1)
	assert.Equal(t, 2, attempts)
}

func TestFetchDefaultsExplanation(t *testing.T) {
	repo := &stubPoolStore{
		fetch: func(_ context.Context, topic, difficulty string, limit int) ([]repository.QuestionRow, error) {
			return []repository.QuestionRow{poolRow("q1")}, nil
		},
	}
	service := NewService(repo, nil)

	resp, err := service.Fetch(context.Background(), FetchRequest{Count: 1})
	assert.NoError(t, err)
	assert.Equal(t, "No explanation available", resp[0].Explanation)
}

func TestFetchRejectsNonPositiveCount(t *testing.T) {
	service := NewService(&stubPoolStore{}, nil)

	_, err := service.Fetch(context.Background(), FetchRequest{Count: 0})
	assert.Error(t, err)
}
