package problem

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smartquizarena/arena/internal/db/repository"
)

type problemStore interface {
	FetchByTitle(ctx context.Context, title string) (*repository.ProblemRow, error)
	FetchRandom(ctx context.Context, difficulty string) (*repository.ProblemRow, error)
}

// Service picks the problem for a new battle room.
type Service struct {
	repo         problemStore
	starterTitle string
	logger       zerolog.Logger
}

// NewService constructs a problem service. starterTitle names the canonical
// problem preferred for new battles; pass "" to always pick randomly.
func NewService(repo problemStore, starterTitle string, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		starterTitle: starterTitle,
		logger:       logger.With().Str("component", "problem_service").Logger(),
	}
}

// Pick returns the problem for a new battle: the canonical starter when
// present, otherwise a random problem filtered by difficulty ("mixed" means
// unfiltered).
func (s *Service) Pick(ctx context.Context, difficulty string) (*Problem, error) {
	if difficulty == "" {
		difficulty = DifficultyMixed
	}

	if s.starterTitle != "" {
		row, err := s.repo.FetchByTitle(ctx, s.starterTitle)
		if err != nil {
			s.logger.Warn().Err(err).Str("title", s.starterTitle).Msg("starter problem lookup failed")
		} else if row != nil {
			return toDomain(row), nil
		}
	}

	row, err := s.repo.FetchRandom(ctx, difficulty)
	if err != nil {
		return nil, fmt.Errorf("fetch random problem: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("no coding problems available for difficulty %q", difficulty)
	}
	return toDomain(row), nil
}

func toDomain(row *repository.ProblemRow) *Problem {
	cases := make([]TestCase, len(row.TestCases))
	for i, tc := range row.TestCases {
		cases[i] = TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput}
	}
	return &Problem{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		StarterCode: row.StarterCode,
		Difficulty:  row.Difficulty,
		TestCases:   cases,
	}
}
