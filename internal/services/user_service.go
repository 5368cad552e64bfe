package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/database"
	"prophet-betting/internal/models"
	"prophet-betting/internal/repository"
	"prophet-betting/internal/utils"
)

// UserService mirrors identities from the token into local user rows
type UserService struct {
	repo        *repository.Repository
	ledger      *LedgerService
	signupBonus decimal.Decimal
	log         *zap.Logger
	Now         Clock
}

// NewUserService creates a new UserService
func NewUserService(repo *repository.Repository, ledger *LedgerService, signupBonus decimal.Decimal, log *zap.Logger) *UserService {
	return &UserService{repo: repo, ledger: ledger, signupBonus: signupBonus, log: log, Now: utcNow}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// EnsureUser returns the user for the requester, creating the row and its
// one-time signup bonus on first sight.
func (s *UserService) EnsureUser(ctx context.Context, req Requester) (*models.User, error) {
	user, err := s.repo.FindUser(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user != nil {
		if req.Email != "" && !strings.EqualFold(user.Email, req.Email) {
			if err := s.repo.UpdateUserEmail(ctx, user.ID, req.Email); err != nil {
				return nil, fmt.Errorf("update email: %w", err)
			}
			user.Email = req.Email
		}
		return user, nil
	}

	now := s.Now()
	user = &models.User{ID: req.ID, Email: req.Email, Role: models.RoleUser, CreatedAt: now, UpdatedAt: now}
	if username, err := utils.GenerateUsername(); err == nil {
		user.Username = &username
	} else {
		s.log.Warn("username generation failed", zap.Error(err))
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		if !s.signupBonus.IsPositive() {
			return nil
		}
		return tx.AppendCredits(ctx, &models.CreditTransaction{
			UserID:      user.ID,
			Amount:      s.signupBonus,
			Type:        models.CreditTypeSignupBonus,
			Description: "Welcome bonus",
			CreatedAt:   now,
		})
	})
	if database.IsDuplicate(err) {
		// Either a concurrent first request created the row, or the e-mail
		// belongs to another identity.
		existing, findErr := s.repo.FindUser(ctx, req.ID)
		if findErr != nil {
			return nil, fmt.Errorf("find user: %w", findErr)
		}
		if existing == nil {
			return nil, apperr.ErrDuplicate.WithMessage("Email %s is already registered", req.Email)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.ledger.Invalidate(ctx, user.ID)
	s.log.Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}
