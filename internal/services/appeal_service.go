package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/events"
	"prophet-betting/internal/models"
	"prophet-betting/internal/repository"
)

// AppealService files and lists appeals against AI decisions
type AppealService struct {
	repo   *repository.Repository
	window time.Duration
	events events.Publisher
	log    *zap.Logger
	Now    Clock
}

// NewAppealService creates a new AppealService. window is how long after
// resolution an appeal may still be filed.
func NewAppealService(repo *repository.Repository, window time.Duration, pub events.Publisher, log *zap.Logger) *AppealService {
	return &AppealService{repo: repo, window: window, events: pub, log: log, Now: utcNow}
}

// CreateAppeal files a pending appeal by a participant of an AI-resolved bet
func (s *AppealService) CreateAppeal(ctx context.Context, userID uuid.UUID, req models.CreateAppealRequest) (*models.Appeal, error) {
	reason := strings.TrimSpace(req.Reason)

	var check apperr.Checker
	if req.BetID == uuid.Nil {
		check.Add("bet_id", "bet_id is required")
	}
	if check.Required("reason", reason) {
		check.Length("reason", reason, 20, 1000)
	}
	if err := check.Err(); err != nil {
		return nil, err
	}

	bet, err := s.repo.GetBetByID(ctx, req.BetID)
	if err != nil {
		return nil, err
	}
	if !bet.Resolved || bet.ResolvedAt == nil {
		return nil, apperr.ErrBetNotResolved
	}
	if bet.ArbitratorType != models.ArbitratorAI {
		return nil, apperr.ErrNotAIArbitrated.WithMessage("Only AI-arbitrated bets can be appealed")
	}

	participant, err := s.repo.GetParticipant(ctx, bet.ID, userID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, apperr.ErrNotParticipant
	}

	appealed, err := s.repo.HasAppeal(ctx, bet.ID, userID)
	if err != nil {
		return nil, err
	}
	if appealed {
		return nil, apperr.ErrAlreadyAppealed
	}

	now := s.Now()
	if now.After(bet.ResolvedAt.Add(s.window)) {
		return nil, apperr.ErrAppealWindowExpired
	}

	appeal := &models.Appeal{
		BetID:     bet.ID,
		UserID:    userID,
		Reason:    reason,
		Status:    models.AppealStatusPending,
		CreatedAt: now,
	}
	if err := s.repo.CreateAppeal(ctx, appeal); err != nil {
		return nil, err
	}

	s.log.Info("appeal filed",
		zap.String("appeal_id", appeal.ID.String()),
		zap.String("bet_id", bet.ID.String()),
		zap.String("user_id", userID.String()),
	)
	publish(ctx, s.events, s.log, events.AppealFiled, bet.ID, events.AppealFiledPayload{
		AppealID: appeal.ID,
		BetID:    bet.ID,
		UserID:   userID,
	})
	return appeal, nil
}

// ListAppeals returns one page of the user's appeals, newest first
func (s *AppealService) ListAppeals(
	ctx context.Context,
	userID uuid.UUID,
	status string,
	page int,
	limit int,
) ([]*models.Appeal, models.Pagination, error) {
	if status != "" {
		var check apperr.Checker
		check.OneOf("status", status,
			string(models.AppealStatusPending),
			string(models.AppealStatusReviewing),
			string(models.AppealStatusUpheld),
			string(models.AppealStatusOverturned),
		)
		if err := check.Err(); err != nil {
			return nil, models.Pagination{}, err
		}
	}

	page, limit = normalizePage(page, limit)
	appeals, total, err := s.repo.ListAppeals(ctx, userID, models.AppealStatus(status), limit, (page-1)*limit)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	if appeals == nil {
		appeals = []*models.Appeal{}
	}
	return appeals, models.NewPagination(total, page, limit), nil
}
