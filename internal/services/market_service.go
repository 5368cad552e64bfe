package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/models"
	"prophet-betting/internal/repository"
)

// MarketService manages the markets bets are grouped under
type MarketService struct {
	repo *repository.Repository
	log  *zap.Logger
	Now  Clock
}

// NewMarketService creates a new MarketService
func NewMarketService(repo *repository.Repository, log *zap.Logger) *MarketService {
	return &MarketService{repo: repo, log: log, Now: utcNow}
}

// CreateMarket creates a market. Only admins may create markets directly;
// everyone else gets one implicitly through bet creation.
func (s *MarketService) CreateMarket(ctx context.Context, requester *models.User, req models.CreateMarketRequest) (*models.Market, error) {
	if requester == nil || !requester.IsAdmin() {
		return nil, apperr.ErrForbidden
	}

	var check apperr.Checker
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if check.Required("name", name) {
		check.Length("name", name, 1, 200)
	}
	if check.Required("category", category) {
		check.Length("category", category, 1, 50)
	}
	check.Length("description", req.Description, 0, 1000)
	marketType := req.Type
	if marketType == "" {
		marketType = models.MarketTypeBinary
	}
	check.OneOf("type", marketType, models.MarketTypeBinary, models.MarketTypeMultipleChoice, models.MarketTypeNumeric)
	if err := check.Err(); err != nil {
		return nil, err
	}

	createdBy := requester.ID
	market := &models.Market{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		Type:        marketType,
		IsActive:    true,
		CreatedBy:   &createdBy,
		CreatedAt:   s.Now(),
	}
	if err := s.repo.CreateMarket(ctx, market); err != nil {
		return nil, err
	}

	s.log.Info("market created", zap.String("market_id", market.ID.String()), zap.String("name", market.Name))
	return market, nil
}

// ListMarkets returns active markets with bet counts and pool totals
func (s *MarketService) ListMarkets(ctx context.Context, category string) ([]models.MarketSummary, error) {
	return s.repo.ListMarketSummaries(ctx, strings.TrimSpace(category))
}
