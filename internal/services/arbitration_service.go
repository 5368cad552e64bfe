package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/judge"
	"prophet-betting/internal/metrics"
	"prophet-betting/internal/models"
	"prophet-betting/internal/repository"
)

// ArbitrationService resolves AI-arbitrated bets with the judge
type ArbitrationService struct {
	repo       *repository.Repository
	judge      judge.Judge
	resolution *ResolutionService
	log        *zap.Logger
	Now        Clock
}

// NewArbitrationService creates a new ArbitrationService. j should already
// carry the fallback policy.
func NewArbitrationService(
	repo *repository.Repository,
	j judge.Judge,
	resolution *ResolutionService,
	log *zap.Logger,
) *ArbitrationService {
	return &ArbitrationService{repo: repo, judge: j, resolution: resolution, log: log, Now: utcNow}
}

// Arbitrate asks the judge for the outcome of an AI bet whose deadline has
// passed and settles it.
func (s *ArbitrationService) Arbitrate(ctx context.Context, betID uuid.UUID) (result *models.ArbitrationResult, err error) {
	defer func() {
		metrics.Resolutions.WithLabelValues(string(models.ArbitratorAI), metrics.Result(err)).Inc()
	}()

	bet, err := s.repo.GetBetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.Resolved {
		return nil, apperr.ErrAlreadyResolved
	}
	if !s.Now().After(bet.Deadline) {
		return nil, apperr.ErrDeadlineNotReached
	}
	if bet.ArbitratorType != models.ArbitratorAI {
		return nil, apperr.ErrNotAIArbitrated
	}

	verdict, err := s.judge.JudgeOutcome(ctx, judge.Question{
		Title:       bet.Title,
		Description: bet.Description,
		Deadline:    bet.Deadline,
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("judge: %w", err)
	}

	settled, err := s.resolution.Settle(ctx, repository.Resolution{
		BetID:     betID,
		Outcome:   verdict.Decision,
		Reasoning: verdict.Reasoning,
		IsAI:      true,
		Fallback:  verdict.Fallback,
	})
	if err != nil {
		return nil, err
	}

	return &models.ArbitrationResult{
		ResolutionResult: *resolutionResult(settled),
		AIDecision:       verdict.Decision,
		Reasoning:        verdict.Reasoning,
		Fallback:         verdict.Fallback,
	}, nil
}

// ArbitrateDue arbitrates up to limit AI bets past their deadline. Failures
// are logged per bet and counted; they never stop the batch.
func (s *ArbitrationService) ArbitrateDue(ctx context.Context, limit int) (resolved int, failed int, err error) {
	bets, err := s.repo.ListDueAIBets(ctx, s.Now(), limit)
	if err != nil {
		return 0, 0, err
	}

	for _, bet := range bets {
		if ctx.Err() != nil {
			return resolved, failed, ctx.Err()
		}
		if _, err := s.Arbitrate(ctx, bet.ID); err != nil {
			if errors.Is(err, apperr.ErrAlreadyResolved) {
				continue
			}
			failed++
			s.log.Warn("arbitration failed", zap.String("bet_id", bet.ID.String()), zap.Error(err))
			continue
		}
		resolved++
	}
	return resolved, failed, nil
}
