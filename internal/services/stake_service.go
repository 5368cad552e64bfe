package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/events"
	"prophet-betting/internal/lock"
	"prophet-betting/internal/metrics"
	"prophet-betting/internal/models"
	"prophet-betting/internal/repository"
)

// StakeService places stakes on open bets
type StakeService struct {
	repo   *repository.Repository
	locks  *lock.Keyed
	ledger *LedgerService
	events events.Publisher
	log    *zap.Logger
	Now    Clock
}

// NewStakeService creates a new StakeService. locks is shared with the
// resolution path so stakes and resolution of one bet never interleave;
// stakes of one user are serialized on the user's key.
func NewStakeService(
	repo *repository.Repository,
	locks *lock.Keyed,
	ledger *LedgerService,
	pub events.Publisher,
	log *zap.Logger,
) *StakeService {
	return &StakeService{repo: repo, locks: locks, ledger: ledger, events: pub, log: log, Now: utcNow}
}

// PlaceStake records the user's single stake on a bet
func (s *StakeService) PlaceStake(ctx context.Context, userID, betID uuid.UUID, req models.PlaceStakeRequest) (result *models.StakeResult, err error) {
	defer func() { metrics.Stakes.WithLabelValues(metrics.Result(err)).Inc() }()

	var check apperr.Checker
	if betID == uuid.Nil {
		check.Add("bet_id", "bet_id is required")
	}
	if req.Prediction == nil {
		check.Add("prediction", "prediction is required")
	}
	check.Positive("stake_amount", req.StakeAmount)
	check.Cents("stake_amount", req.StakeAmount)
	if err := check.Err(); err != nil {
		return nil, err
	}

	// bet before user, same order as the row locks in RecordStake
	unlockBet := s.locks.Lock(betID)
	defer unlockBet()
	unlockUser := s.locks.Lock(userID)
	defer unlockUser()

	participant, balance, err := s.repo.RecordStake(ctx, repository.StakeParams{
		BetID:      betID,
		UserID:     userID,
		Prediction: *req.Prediction,
		Amount:     req.StakeAmount,
		At:         s.Now(),
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Invalidate(ctx, userID)
	s.log.Info("stake placed",
		zap.String("bet_id", betID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("prediction", participant.Prediction),
		zap.String("amount", participant.StakeAmount.StringFixed(2)),
	)
	publish(ctx, s.events, s.log, events.StakePlaced, betID, events.StakePlacedPayload{
		BetID:         betID,
		ParticipantID: participant.ID,
		UserID:        userID,
		Prediction:    participant.Prediction,
		Amount:        participant.StakeAmount,
	})

	return &models.StakeResult{ParticipantID: participant.ID, NewBalance: balance.Round(2)}, nil
}

