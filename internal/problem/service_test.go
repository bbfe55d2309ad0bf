package problem

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/smartquizarena/arena/internal/db/repository"
)

type stubProblemStore struct {
	byTitle func(title string) (*repository.ProblemRow, error)
	random  func(difficulty string) (*repository.ProblemRow, error)
}

func (s *stubProblemStore) FetchByTitle(_ context.Context, title string) (*repository.ProblemRow, error) {
	return s.byTitle(title)
}

func (s *stubProblemStore) FetchRandom(_ context.Context, difficulty string) (*repository.ProblemRow, error) {
	return s.random(difficulty)
}

func starterRow() *repository.ProblemRow {
	return &repository.ProblemRow{
		ID:    "p1",
		Title: "Hello World",
		TestCases: []repository.TestCaseRow{
			{Input: "World", ExpectedOutput: "Hello, World!"},
		},
	}
}

func TestPickPrefersStarterProblem(t *testing.T) {
	repo := &stubProblemStore{
		byTitle: func(title string) (*repository.ProblemRow, error) {
			assert.Equal(t, "Hello World", title)
			return starterRow(), nil
		},
		random: func(string) (*repository.ProblemRow, error) {
			t.Fatal("random fallback should not be hit when the starter exists")
			return nil, nil
		},
	}
	svc := NewService(repo, "Hello World", zerolog.Nop())

	p, err := svc.Pick(context.Background(), "easy")
	assert.NoError(t, err)
	assert.Equal(t, "Hello World", p.Title)
	assert.Len(t, p.TestCases, 1)
}

func TestPickFallsBackToRandom(t *testing.T) {
	var gotDifficulty string
	repo := &stubProblemStore{
		byTitle: func(string) (*repository.ProblemRow, error) { return nil, nil },
		random: func(difficulty string) (*repository.ProblemRow, error) {
			gotDifficulty = difficulty
			return &repository.ProblemRow{ID: "p2", Title: "Two Sum", Difficulty: "medium"}, nil
		},
	}
	svc := NewService(repo, "Hello World", zerolog.Nop())

	p, err := svc.Pick(context.Background(), "medium")
	assert.NoError(t, err)
	assert.Equal(t, "Two Sum", p.Title)
	assert.Equal(t, "medium", gotDifficulty)
}

func TestPickDefaultsToMixed(t *testing.T) {
	var gotDifficulty string
	repo := &stubProblemStore{
		byTitle: func(string) (*repository.ProblemRow, error) { return nil, errors.New("db hiccup") },
		random: func(difficulty string) (*repository.ProblemRow, error) {
			gotDifficulty = difficulty
			return &repository.ProblemRow{ID: "p3", Title: "FizzBuzz"}, nil
		},
	}
	svc := NewService(repo, "Hello World", zerolog.Nop())

	_, err := svc.Pick(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, DifficultyMixed, gotDifficulty, "starter lookup failure should fall through to an unfiltered random pick")
}

func TestPickEmptyPool(t *testing.T) {
	repo := &stubProblemStore{
		byTitle: func(string) (*repository.ProblemRow, error) { return nil, nil },
		random:  func(string) (*repository.ProblemRow, error) { return nil, nil },
	}
	svc := NewService(repo, "Hello World", zerolog.Nop())

	_, err := svc.Pick(context.Background(), "hard")
	assert.Error(t, err)
}
