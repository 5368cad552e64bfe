package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/database"
	"prophet-betting/internal/models"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	return NewRepository(db), db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedUser(t *testing.T, r *Repository, credits string) *models.User {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Email: uuid.NewString() + "@example.com"}
	require.NoError(t, r.CreateUser(ctx, user))
	if credits != "" {
		require.NoError(t, r.AppendCredits(ctx, &models.CreditTransaction{
			UserID:    user.ID,
			Amount:    dec(credits),
			Type:      models.CreditTypeSignupBonus,
			CreatedAt: t0.Add(-time.Hour),
		}))
	}
	return user
}

func seedBet(t *testing.T, r *Repository, creator *models.User, arbitrator models.ArbitratorType, deadline time.Time) *models.Bet {
	t.Helper()
	bet := &models.Bet{
		Title:          "Will it rain tomorrow?",
		Description:    "Resolves yes if it rains in Lisbon.",
		CreatorID:      creator.ID,
		Deadline:       deadline,
		ArbitratorType: arbitrator,
		MinimumStake:   dec("1"),
		TotalPool:      decimal.Zero,
		CreatedAt:      t0.Add(-time.Hour),
	}
	require.NoError(t, r.CreateBet(context.Background(), bet))
	return bet
}

func stake(t *testing.T, r *Repository, bet *models.Bet, user *models.User, prediction bool, amount string, at time.Time) *models.Participant {
	t.Helper()
	p, _, err := r.RecordStake(context.Background(), StakeParams{
		BetID: bet.ID, UserID: user.ID, Prediction: prediction, Amount: dec(amount), At: at,
	})
	require.NoError(t, err)
	return p
}

func TestRecordStakeDebitsAndGrowsPool(t *testing.T) {
	r, _ := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "100")
	bettor := seedUser(t, r, "100")
	bet := seedBet(t, r, creator, models.ArbitratorCreator, t0.Add(24*time.Hour))

	p, balance, err := r.RecordStake(ctx, StakeParams{
		BetID: bet.ID, UserID: bettor.ID, Prediction: true, Amount: dec("40"), At: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, "60.00", balance.StringFixed(2))
	assert.NotEqual(t, uuid.Nil, p.ID)

	stored, err := r.Balance(ctx, bettor.ID)
	require.NoError(t, err)
	assert.Equal(t, "60.00", stored.StringFixed(2))

	reloaded, err := r.GetBetByID(ctx, bet.ID)
	require.NoError(t, err)
	assert.Equal(t, "40.00", reloaded.TotalPool.StringFixed(2))

	entries, err := r.CreditsForBet(ctx, bet.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.CreditTypeStake, entries[0].Type)
	assert.Equal(t, "-40.00", entries[0].Amount.StringFixed(2))
}

func TestRecordStakeRejections(t *testing.T) {
	r, _ := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "100")
	bettor := seedUser(t, r, "50")
	open := seedBet(t, r, creator, models.ArbitratorCreator, t0.Add(time.Hour))

	stake(t, r, open, bettor, true, "10", t0)

	tests := []struct {
		name   string
		params StakeParams
		want   error
	}{
		{"second stake", StakeParams{BetID: open.ID, UserID: bettor.ID, Prediction: false, Amount: dec("5"), At: t0}, apperr.ErrAlreadyParticipated},
		{"over balance", StakeParams{BetID: open.ID, UserID: creator.ID, Prediction: false, Amount: dec("100.01"), At: t0}, apperr.ErrInsufficientCredits},
		{"below minimum", StakeParams{BetID: open.ID, UserID: creator.ID, Prediction: false, Amount: dec("0.50"), At: t0}, apperr.ErrStakeBelowMinimum},
		{"at deadline", StakeParams{BetID: open.ID, UserID: creator.ID, Prediction: false, Amount: dec("5"), At: t0.Add(time.Hour)}, apperr.ErrDeadlinePassed},
		{"unknown bet", StakeParams{BetID: uuid.New(), UserID: creator.ID, Prediction: false, Amount: dec("5"), At: t0}, apperr.ErrBetNotFound},
		{"unknown user", StakeParams{BetID: open.ID, UserID: uuid.New(), Prediction: false, Amount: dec("5"), At: t0}, apperr.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := r.RecordStake(ctx, tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	balance, err := r.Balance(ctx, bettor.ID)
	require.NoError(t, err)
	assert.Equal(t, "40.00", balance.StringFixed(2))
}

func TestRecordStakeOnResolvedBet(t *testing.T) {
	r, _ := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "100")
	bet := seedBet(t, r, creator, models.ArbitratorCreator, t0.Add(-time.Minute))

	_, err := r.ResolveAndPay(ctx, Resolution{BetID: bet.ID, Outcome: true, ArbitratorID: &creator.ID, At: t0})
	require.NoError(t, err)

	_, _, err = r.RecordStake(ctx, StakeParams{BetID: bet.ID, UserID: creator.ID, Prediction: true, Amount: dec("5"), At: t0})
	assert.ErrorIs(t, err, apperr.ErrBetResolved)
}

func TestResolveAndPayDistributesPool(t *testing.T) {
	r, _ := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "1000")
	a := seedUser(t, r, "1000")
	b := seedUser(t, r, "1000")
	c := seedUser(t, r, "1000")
	bet := seedBet(t, r, creator, models.ArbitratorCreator, t0.Add(time.Hour))

	stake(t, r, bet, a, true, "200", t0)
	stake(t, r, bet, b, true, "100", t0.Add(time.Second))
	stake(t, r, bet, c, false, "100", t0.Add(2*time.Second))

	settled, err := r.ResolveAndPay(ctx, Resolution{
		BetID: bet.ID, Outcome: true, Reasoning: "It rained", ArbitratorID: &creator.ID, At: t0.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, settled.Settlement.WinnersCount)
	assert.Equal(t, "400.00", settled.Settlement.TotalPaid().StringFixed(2))

	balances := map[uuid.UUID]string{a.ID: "1066.67", b.ID: "1033.33", c.ID: "900.00"}
	for id, want := range balances {
		got, err := r.Balance(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.StringFixed(2))
	}

	reloaded, err := r.GetBetByID(ctx, bet.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Resolved)
	require.NotNil(t, reloaded.Outcome)
	assert.True(t, *reloaded.Outcome)
	require.NotNil(t, reloaded.ResolvedAt)

	decision, err := r.GetDecision(ctx, bet.ID)
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, "It rained", decision.Reasoning)
	assert.False(t, decision.IsAIDecision)
}

func TestResolveAndPayOnlyOnce(t *testing.T) {
	r, db := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "100")
	bettor := seedUser(t, r, "100")
	bet := seedBet(t, r, creator, models.ArbitratorCreator, t0.Add(time.Hour))
	stake(t, r, bet, bettor, true, "50", t0)

	res := Resolution{BetID: bet.ID, Outcome: true, ArbitratorID: &creator.ID, At: t0.Add(2 * time.Hour)}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.ResolveAndPay(ctx, res)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrAlreadyResolved)
	}
	assert.Equal(t, 1, succeeded)

	var decisions int64
	require.NoError(t, db.Model(&models.ArbitratorDecision{}).Where("bet_id = ?", bet.ID).Count(&decisions).Error)
	assert.Equal(t, int64(1), decisions)

	balance, err := r.Balance(ctx, bettor.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", balance.StringFixed(2))
}

func TestResolveAndPayRefundsWhenNoWinners(t *testing.T) {
	r, _ := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "100")
	a := seedUser(t, r, "100")
	bet := seedBet(t, r, creator, models.ArbitratorCreator, t0.Add(time.Hour))
	stake(t, r, bet, a, true, "30", t0)

	settled, err := r.ResolveAndPay(ctx, Resolution{BetID: bet.ID, Outcome: false, ArbitratorID: &creator.ID, At: t0.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.True(t, settled.Settlement.Refunded)

	entries, err := r.CreditsForBet(ctx, bet.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.CreditTypeRefund, entries[1].Type)

	balance, err := r.Balance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", balance.StringFixed(2))
}

func TestListBetsFilters(t *testing.T) {
	r, _ := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "100")
	active := seedBet(t, r, creator, models.ArbitratorAI, t0.Add(time.Hour))
	expired := seedBet(t, r, creator, models.ArbitratorAI, t0.Add(-time.Hour))
	resolved := seedBet(t, r, creator, models.ArbitratorCreator, t0.Add(-2*time.Hour))
	_, err := r.ResolveAndPay(ctx, Resolution{BetID: resolved.ID, Outcome: true, ArbitratorID: &creator.ID, At: t0})
	require.NoError(t, err)

	list := func(status string) []uuid.UUID {
		bets, total, err := r.ListBets(ctx, models.BetFilter{Status: status, Page: 1, Limit: 20}, t0)
		require.NoError(t, err)
		ids := make([]uuid.UUID, len(bets))
		for i, b := range bets {
			ids[i] = b.ID
		}
		assert.Equal(t, int64(len(ids)), total)
		return ids
	}

	assert.Equal(t, []uuid.UUID{active.ID}, list(BetStatusActive))
	assert.Equal(t, []uuid.UUID{expired.ID}, list(BetStatusExpired))
	assert.Equal(t, []uuid.UUID{resolved.ID}, list(BetStatusResolved))
	assert.Len(t, list(BetStatusAll), 3)

	due, err := r.ListDueAIBets(ctx, t0, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, expired.ID, due[0].ID)

	bets, _, err := r.ListBets(ctx, models.BetFilter{Search: "LISBON", Page: 1, Limit: 20}, t0)
	require.NoError(t, err)
	assert.Len(t, bets, 3)
}

func TestListBetsAtDeadlineIsExpired(t *testing.T) {
	r, _ := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "100")
	bet := seedBet(t, r, creator, models.ArbitratorAI, t0)

	active, _, err := r.ListBets(ctx, models.BetFilter{Status: BetStatusActive, Page: 1, Limit: 20}, t0)
	require.NoError(t, err)
	assert.Empty(t, active)

	expired, total, err := r.ListBets(ctx, models.BetFilter{Status: BetStatusExpired, Page: 1, Limit: 20}, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, expired, 1)
	assert.Equal(t, bet.ID, expired[0].ID)

	due, err := r.ListDueAIBets(ctx, t0, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestAppealUniqueness(t *testing.T) {
	r, _ := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "100")
	bet := seedBet(t, r, creator, models.ArbitratorAI, t0)

	first := &models.Appeal{BetID: bet.ID, UserID: creator.ID, Reason: "The judge misread the question."}
	require.NoError(t, r.CreateAppeal(ctx, first))
	err := r.CreateAppeal(ctx, &models.Appeal{BetID: bet.ID, UserID: creator.ID, Reason: "Trying a second time around."})
	assert.ErrorIs(t, err, apperr.ErrAlreadyAppealed)

	appeals, total, err := r.ListAppeals(ctx, creator.ID, models.AppealStatusPending, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, appeals, 1)
	require.NotNil(t, appeals[0].Bet)
	assert.Equal(t, bet.ID, appeals[0].Bet.ID)
}

func TestMarketSummaries(t *testing.T) {
	r, _ := setupTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, r, "100")
	market := &models.Market{Name: "Weather", Category: "science", Type: models.MarketTypeBinary, IsActive: true}
	require.NoError(t, r.CreateMarket(ctx, market))
	assert.ErrorIs(t, r.CreateMarket(ctx, &models.Market{Name: "Weather", Category: "x", IsActive: true}), apperr.ErrDuplicate)

	bet := seedBet(t, r, creator, models.ArbitratorCreator, t0.Add(time.Hour))
	require.NoError(t, r.db.Model(bet).Update("market_id", market.ID).Error)
	stake(t, r, bet, creator, true, "25", t0)

	summaries, err := r.ListMarketSummaries(ctx, "")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].TotalBets)
	assert.Equal(t, "25.00", summaries[0].TotalPool.StringFixed(2))
}
