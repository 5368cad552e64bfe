package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/events"
	"prophet-betting/internal/models"
	"prophet-betting/internal/payout"
	"prophet-betting/internal/repository"
)

var defaultMinimumStake = decimal.NewFromInt(1)

// BetService is the bet registry: creation, listing and detail views
type BetService struct {
	repo   *repository.Repository
	ledger *LedgerService
	events events.Publisher
	log    *zap.Logger
	Now    Clock
}

// NewBetService creates a new BetService
func NewBetService(repo *repository.Repository, ledger *LedgerService, pub events.Publisher, log *zap.Logger) *BetService {
	return &BetService{repo: repo, ledger: ledger, events: pub, log: log, Now: utcNow}
}

func validateCreateBet(req *models.CreateBetRequest, now time.Time) error {
	var check apperr.Checker

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.ArbitratorEmail = strings.TrimSpace(req.ArbitratorEmail)
	req.MarketName = strings.TrimSpace(req.MarketName)
	req.MarketCategory = strings.TrimSpace(req.MarketCategory)

	if check.Required("title", req.Title) {
		check.Length("title", req.Title, 3, 200)
	}
	if check.Required("description", req.Description) {
		check.Length("description", req.Description, 10, 1000)
	}
	check.Future("deadline", req.Deadline, now)
	check.OneOf("arbitrator_type", string(req.ArbitratorType),
		string(models.ArbitratorCreator), string(models.ArbitratorFriend), string(models.ArbitratorAI))
	if req.ArbitratorType == models.ArbitratorFriend {
		if check.Required("arbitrator_email", req.ArbitratorEmail) {
			check.Email("arbitrator_email", req.ArbitratorEmail)
		}
	}
	if req.MinimumStake != nil {
		check.Positive("minimum_stake", *req.MinimumStake)
		check.Cents("minimum_stake", *req.MinimumStake)
	}
	if req.MarketID == nil && req.MarketName != "" {
		check.Length("market_name", req.MarketName, 1, 200)
		if check.Required("market_category", req.MarketCategory) {
			check.Length("market_category", req.MarketCategory, 1, 50)
		}
	}
	if req.StakeAmount != nil {
		check.Positive("stake_amount", *req.StakeAmount)
		check.Cents("stake_amount", *req.StakeAmount)
		if req.Prediction == nil {
			check.Add("prediction", "prediction is required with stake_amount")
		}
		if req.MinimumStake != nil && req.StakeAmount.LessThan(*req.MinimumStake) {
			check.Add("stake_amount", "stake_amount must be at least minimum_stake")
		}
	}
	return check.Err()
}

// CreateBet creates a bet for creator. A market is attached by id or found
// or created by name, and an opening stake by the creator is placed in the
// same transaction.
func (s *BetService) CreateBet(ctx context.Context, creator uuid.UUID, req models.CreateBetRequest) (*models.Bet, error) {
	now := s.Now()
	req.Deadline = req.Deadline.UTC()
	if err := validateCreateBet(&req, now); err != nil {
		return nil, err
	}

	minimum := defaultMinimumStake
	if req.MinimumStake != nil {
		minimum = *req.MinimumStake
	}
	var arbitratorEmail *string
	if req.ArbitratorType == models.ArbitratorFriend {
		email := req.ArbitratorEmail
		arbitratorEmail = &email
	}

	bet := &models.Bet{
		Title:           req.Title,
		Description:     req.Description,
		CreatorID:       creator,
		Deadline:        req.Deadline,
		ArbitratorType:  req.ArbitratorType,
		ArbitratorEmail: arbitratorEmail,
		MinimumStake:    minimum,
		TotalPool:       decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var opening *models.Participant
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		market, err := s.resolveMarket(ctx, tx, creator, req, now)
		if err != nil {
			return err
		}
		if market != nil {
			bet.MarketID = &market.ID
			bet.Market = market
		}

		if err := tx.CreateBet(ctx, bet); err != nil {
			return err
		}

		if req.StakeAmount != nil {
			opening, _, err = tx.RecordStake(ctx, repository.StakeParams{
				BetID:      bet.ID,
				UserID:     creator,
				Prediction: *req.Prediction,
				Amount:     *req.StakeAmount,
				At:         now,
			})
			if err != nil {
				return err
			}
			bet.TotalPool = *req.StakeAmount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("bet created",
		zap.String("bet_id", bet.ID.String()),
		zap.String("creator_id", creator.String()),
		zap.String("arbitrator_type", string(bet.ArbitratorType)),
	)
	publish(ctx, s.events, s.log, events.BetCreated, bet.ID, events.BetCreatedPayload{
		BetID:          bet.ID,
		CreatorID:      creator,
		MarketID:       bet.MarketID,
		ArbitratorType: string(bet.ArbitratorType),
		Deadline:       bet.Deadline,
	})
	if opening != nil {
		s.ledger.Invalidate(ctx, creator)
		publish(ctx, s.events, s.log, events.StakePlaced, bet.ID, events.StakePlacedPayload{
			BetID:         bet.ID,
			ParticipantID: opening.ID,
			UserID:        creator,
			Prediction:    opening.Prediction,
			Amount:        opening.StakeAmount,
		})
	}
	return bet, nil
}

func (s *BetService) resolveMarket(
	ctx context.Context,
	tx *repository.Repository,
	creator uuid.UUID,
	req models.CreateBetRequest,
	now time.Time,
) (*models.Market, error) {
	if req.MarketID != nil {
		return tx.GetMarketByID(ctx, *req.MarketID)
	}
	if req.MarketName == "" {
		return nil, nil
	}

	market, err := tx.FindMarketByName(ctx, req.MarketName)
	if err != nil || market != nil {
		return market, err
	}
	market = &models.Market{
		Name:      req.MarketName,
		Category:  req.MarketCategory,
		Type:      models.MarketTypeBinary,
		IsActive:  true,
		CreatedBy: &creator,
		CreatedAt: now,
	}
	if err := tx.CreateMarket(ctx, market); err != nil {
		return nil, err
	}
	return market, nil
}

// ListBets returns one page of bets. When viewer is set each item carries
// the viewer's own stake.
func (s *BetService) ListBets(ctx context.Context, filter models.BetFilter, viewer *uuid.UUID) ([]models.BetListItem, models.Pagination, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	switch filter.Status {
	case "", repository.BetStatusAll:
		filter.Status = repository.BetStatusAll
	case repository.BetStatusActive, repository.BetStatusResolved, repository.BetStatusExpired:
	default:
		return nil, models.Pagination{}, apperr.Validation(apperr.FieldError{
			Field: "status", Message: "status must be one of: active, resolved, expired, all",
		})
	}
	if filter.ArbitratorType != "" && !filter.ArbitratorType.Valid() {
		return nil, models.Pagination{}, apperr.Validation(apperr.FieldError{
			Field: "arbitrator_type", Message: "arbitrator_type must be one of: creator, friend, ai",
		})
	}

	bets, total, err := s.repo.ListBets(ctx, filter, s.Now())
	if err != nil {
		return nil, models.Pagination{}, err
	}

	ids := make([]uuid.UUID, len(bets))
	for i, b := range bets {
		ids[i] = b.ID
	}
	counts, err := s.repo.CountParticipants(ctx, ids)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	own := map[uuid.UUID]*models.Participant{}
	if viewer != nil {
		if own, err = s.repo.UserStakes(ctx, *viewer, ids); err != nil {
			return nil, models.Pagination{}, err
		}
	}

	items := make([]models.BetListItem, len(bets))
	for i, b := range bets {
		item := models.BetListItem{
			ID:               b.ID,
			Title:            b.Title,
			Description:      b.Description,
			Market:           b.Market,
			Deadline:         b.Deadline,
			ArbitratorType:   b.ArbitratorType,
			Resolved:         b.Resolved,
			Outcome:          b.Outcome,
			ParticipantCount: counts[b.ID],
			TotalPool:        b.TotalPool,
			CreatedAt:        b.CreatedAt,
		}
		if b.Creator != nil {
			item.Creator = b.Creator.Summary()
		} else {
			item.Creator = models.UserSummary{ID: b.CreatorID}
		}
		if p, ok := own[b.ID]; ok {
			item.UserParticipation = &models.Stake{Prediction: p.Prediction, StakeAmount: p.StakeAmount}
		}
		items[i] = item
	}
	return items, models.NewPagination(total, filter.Page, filter.Limit), nil
}

// GetBet returns the detail view of a bet
func (s *BetService) GetBet(ctx context.Context, betID uuid.UUID, viewer *uuid.UUID) (*models.BetDetail, error) {
	bet, err := s.repo.GetBetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	participants, err := s.repo.ListParticipants(ctx, betID)
	if err != nil {
		return nil, err
	}

	detail := &models.BetDetail{
		Bet:          bet,
		Creator:      models.UserSummary{ID: bet.CreatorID},
		Participants: make([]models.ParticipantView, 0, len(participants)),
	}
	if bet.Creator != nil {
		detail.Creator = bet.Creator.Summary()
	}

	stakes := make([]payout.Stake, 0, len(participants))
	for _, p := range participants {
		view := models.ParticipantView{
			ID:          p.ID,
			User:        models.UserSummary{ID: p.UserID},
			Prediction:  p.Prediction,
			StakeAmount: p.StakeAmount,
			CreatedAt:   p.CreatedAt,
		}
		if p.User != nil {
			view.User = p.User.Summary()
		}
		detail.Participants = append(detail.Participants, view)
		stakes = append(stakes, payout.Stake{Prediction: p.Prediction, Amount: p.StakeAmount})

		if p.Prediction {
			detail.Stats.YesCount++
		} else {
			detail.Stats.NoCount++
		}
		if viewer != nil && p.UserID == *viewer {
			detail.UserParticipation = &models.Stake{Prediction: p.Prediction, StakeAmount: p.StakeAmount}
		}
	}

	yes, no := payout.SideTotals(stakes)
	detail.Stats.TotalParticipants = len(participants)
	detail.Stats.YesAmount = yes
	detail.Stats.NoAmount = no
	detail.Stats.PotentialPayoutYes, detail.Stats.PotentialPayoutNo = payout.Multipliers(yes, no)

	if bet.Resolved {
		decision, err := s.repo.GetDecision(ctx, betID)
		if err != nil {
			return nil, err
		}
		if decision != nil {
			view := &models.DecisionView{
				ID:           decision.ID,
				Outcome:      decision.Outcome,
				Reasoning:    decision.Reasoning,
				IsAIDecision: decision.IsAIDecision,
				Fallback:     decision.Fallback,
				DecidedAt:    decision.DecidedAt,
			}
			if decision.Arbitrator != nil {
				summary := decision.Arbitrator.Summary()
				view.Arbitrator = &summary
			}
			detail.Decision = view
		}
	}
	return detail, nil
}
