package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/events"
	"prophet-betting/internal/lock"
	"prophet-betting/internal/metrics"
	"prophet-betting/internal/models"
	"prophet-betting/internal/repository"
)

// ResolutionService decides who may resolve a bet and applies verdicts
type ResolutionService struct {
	repo   *repository.Repository
	locks  *lock.Keyed
	ledger *LedgerService
	events events.Publisher
	log    *zap.Logger
	Now    Clock
}

// NewResolutionService creates a new ResolutionService
func NewResolutionService(
	repo *repository.Repository,
	locks *lock.Keyed,
	ledger *LedgerService,
	pub events.Publisher,
	log *zap.Logger,
) *ResolutionService {
	return &ResolutionService{repo: repo, locks: locks, ledger: ledger, events: pub, log: log, Now: utcNow}
}

// Authorize checks whether requester may resolve bet manually at now.
// Checks run in order: already resolved, deadline, then the arbitrator
// rule of the bet's type.
func Authorize(bet *models.Bet, requester Requester, now time.Time) error {
	if bet.Resolved {
		return apperr.ErrAlreadyResolved
	}
	if !now.After(bet.Deadline) {
		return apperr.ErrDeadlineNotReached
	}

	switch bet.ArbitratorType {
	case models.ArbitratorCreator:
		if requester.ID == bet.CreatorID {
			return nil
		}
	case models.ArbitratorFriend:
		if bet.ArbitratorEmail != nil && requester.Email != "" && requester.Email == *bet.ArbitratorEmail {
			return nil
		}
	case models.ArbitratorAI:
		return apperr.ErrAIResolutionRequired
	}
	return apperr.ErrUnauthorizedResolution
}

// ResolveBet resolves a creator or friend arbitrated bet with the
// requester's verdict and pays the winners.
func (s *ResolutionService) ResolveBet(
	ctx context.Context,
	requester Requester,
	betID uuid.UUID,
	req models.ResolveBetRequest,
) (result *models.ResolutionResult, err error) {
	arbitratorType := "unknown"
	defer func() {
		metrics.Resolutions.WithLabelValues(arbitratorType, metrics.Result(err)).Inc()
	}()

	if req.Outcome == nil {
		return nil, apperr.Validation(apperr.FieldError{Field: "outcome", Message: "outcome is required"})
	}
	reasoning := strings.TrimSpace(req.Reasoning)
	if len([]rune(reasoning)) > 2000 {
		return nil, apperr.Validation(apperr.FieldError{Field: "reasoning", Message: "reasoning must be no more than 2000 characters"})
	}

	bet, err := s.repo.GetBetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	arbitratorType = string(bet.ArbitratorType)

	if err := Authorize(bet, requester, s.Now()); err != nil {
		return nil, err
	}

	arbitratorID := requester.ID
	settled, err := s.Settle(ctx, repository.Resolution{
		BetID:        betID,
		Outcome:      *req.Outcome,
		Reasoning:    reasoning,
		ArbitratorID: &arbitratorID,
	})
	if err != nil {
		return nil, err
	}
	return resolutionResult(settled), nil
}

// Settle applies a verdict exactly once under the bet's lock, then drops
// the affected cached balances and announces the resolution.
func (s *ResolutionService) Settle(ctx context.Context, res repository.Resolution) (*repository.Settled, error) {
	unlock := s.locks.Lock(res.BetID)
	defer unlock()

	if res.At.IsZero() {
		res.At = s.Now()
	}
	settled, err := s.repo.ResolveAndPay(ctx, res)
	if err != nil {
		return nil, err
	}

	st := settled.Settlement
	users := make([]uuid.UUID, 0, len(st.Payouts))
	for _, p := range st.Payouts {
		users = append(users, p.UserID)
	}
	s.ledger.Invalidate(ctx, users...)

	paid, _ := st.TotalPaid().Float64()
	metrics.PayoutCredits.Observe(paid)

	s.log.Info("bet resolved",
		zap.String("bet_id", res.BetID.String()),
		zap.Bool("outcome", res.Outcome),
		zap.Bool("ai", res.IsAI),
		zap.Bool("fallback", res.Fallback),
		zap.Int("winners", st.WinnersCount),
		zap.Bool("refunded", st.Refunded),
		zap.String("total_payout", st.TotalPaid().StringFixed(2)),
	)
	publish(ctx, s.events, s.log, events.BetResolved, res.BetID, events.BetResolvedPayload{
		BetID:        res.BetID,
		Outcome:      res.Outcome,
		IsAIDecision: res.IsAI,
		Fallback:     res.Fallback,
		TotalPayout:  st.TotalPaid(),
		WinnersCount: st.WinnersCount,
		Refunded:     st.Refunded,
	})
	return settled, nil
}

func resolutionResult(settled *repository.Settled) *models.ResolutionResult {
	return &models.ResolutionResult{
		DecisionID:   settled.Decision.ID,
		Outcome:      settled.Decision.Outcome,
		TotalPayout:  settled.Settlement.TotalPaid(),
		WinnersCount: settled.Settlement.WinnersCount,
		Refunded:     settled.Settlement.Refunded,
	}
}
