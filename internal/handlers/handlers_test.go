package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"prophet-betting/internal/auth"
	"prophet-betting/internal/cache"
	"prophet-betting/internal/config"
	"prophet-betting/internal/database"
	"prophet-betting/internal/events"
	"prophet-betting/internal/judge"
	"prophet-betting/internal/lock"
	"prophet-betting/internal/models"
	"prophet-betting/internal/repository"
	"prophet-betting/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	auth.InitJWT("handler-test-secret")

	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)

	log := zap.NewNop()
	repo := repository.NewRepository(db)
	locks := lock.NewKeyed()
	pub := &events.Recorder{}
	ledger := services.NewLedgerService(repo, cache.NewMemory(), log)

	s := &testServer{db: db, now: time.Now().UTC()}
	clock := func() time.Time { return s.now }

	users := services.NewUserService(repo, ledger, decimal.NewFromInt(100), log)
	bets := services.NewBetService(repo, ledger, pub, log)
	stakes := services.NewStakeService(repo, locks, ledger, pub, log)
	resolution := services.NewResolutionService(repo, locks, ledger, pub, log)
	j := judge.NewPolicy(judge.Func(func(ctx context.Context, q judge.Question) (judge.Verdict, error) {
		return judge.Verdict{Decision: true, Reasoning: "Reported by the press."}, nil
	}), config.FallbackReject, log)
	arbitration := services.NewArbitrationService(repo, j, resolution, log)
	appeals := services.NewAppealService(repo, 7*24*time.Hour, pub, log)
	markets := services.NewMarketService(repo, log)
	for _, c := range []*services.Clock{&users.Now, &bets.Now, &stakes.Now, &resolution.Now, &arbitration.Now, &appeals.Now} {
		*c = clock
	}

	s.router = NewRouter(Handlers{
		Auth:    NewAuthHandler(users, log),
		User:    NewUserHandler(ledger, log),
		Bet:     NewBetHandler(bets, stakes, resolution, arbitration, log),
		Market:  NewMarketHandler(markets, log),
		Appeal:  NewAppealHandler(appeals, log),
		Health:  NewHealthHandler(db, log),
		Limiter: auth.NewRateLimiter(1000),
	}, []string{"http://localhost:3000"}, log)
	return s
}

type identity struct {
	ID    uuid.UUID
	Email string
	Token string
}

func newIdentity(t *testing.T, email string) identity {
	t.Helper()
	id := uuid.New()
	token, err := auth.GenerateToken(id, email, time.Hour)
	require.NoError(t, err)
	return identity{ID: id, Email: email, Token: token}
}

func (s *testServer) do(t *testing.T, method, path string, who *identity, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if who != nil {
		req.Header.Set("Authorization", "Bearer "+who.Token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (s *testServer) createBet(t *testing.T, who identity, body map[string]any) string {
	t.Helper()
	w, out := s.do(t, http.MethodPost, "/api/bets", &who, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bet := out["bet"].(map[string]any)
	return bet["id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, out := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "up", out["database"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestMeCreatesUserWithBonus(t *testing.T) {
	s := newTestServer(t)
	ana := newIdentity(t, "ana@example.com")

	w, out := s.do(t, http.MethodGet, "/auth/me", &ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := out["user"].(map[string]any)
	assert.Equal(t, ana.ID.String(), user["id"])

	w, out = s.do(t, http.MethodGet, "/api/user/balance", &ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", out["balance"])
	assert.Len(t, out["recent_transactions"], 1)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	w, out := s.do(t, http.MethodPost, "/api/bets", nil, map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", out["code"])
}

func TestCreateBetValidationErrors(t *testing.T) {
	s := newTestServer(t)
	ana := newIdentity(t, "ana@example.com")

	w, out := s.do(t, http.MethodPost, "/api/bets", &ana, map[string]any{
		"title":           "Hi",
		"arbitrator_type": "oracle",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", out["code"])

	fields := map[string]bool{}
	for _, f := range out["validation_errors"].([]any) {
		fields[f.(map[string]any)["field"].(string)] = true
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["description"])
	assert.True(t, fields["arbitrator_type"])
}

func TestBetLifecycle(t *testing.T) {
	s := newTestServer(t)
	ana := newIdentity(t, "ana@example.com")
	ben := newIdentity(t, "ben@example.com")
	deadline := s.now.Add(24 * time.Hour)

	betID := s.createBet(t, ana, map[string]any{
		"title":           "Will the bridge reopen this week?",
		"description":     "Resolves yes if the bridge reopens before Sunday.",
		"deadline":        deadline.Format(time.RFC3339),
		"arbitrator_type": "creator",
		"stake_amount":    "30",
		"prediction":      true,
	})

	w, out := s.do(t, http.MethodPost, "/api/bets/"+betID+"/stake", &ben, map[string]any{
		"prediction":   false,
		"stake_amount": "20",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "80", out["new_balance"])

	w, out = s.do(t, http.MethodPost, "/api/bets/"+betID+"/stake", &ben, map[string]any{
		"prediction":   true,
		"stake_amount": "5",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_PARTICIPATED", out["code"])

	w, out = s.do(t, http.MethodGet, "/api/bets?status=active", &ben, nil)
	require.Equal(t, http.StatusOK, w.Code)
	bets := out["bets"].([]any)
	require.Len(t, bets, 1)
	item := bets[0].(map[string]any)
	assert.Equal(t, "50", item["total_pool"])
	assert.NotNil(t, item["user_participation"])

	w, out = s.do(t, http.MethodPost, "/api/bets/"+betID+"/resolve", &ana, map[string]any{"outcome": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DEADLINE_NOT_REACHED", out["code"])

	s.now = deadline.Add(time.Minute)
	w, out = s.do(t, http.MethodPost, "/api/bets/"+betID+"/resolve", &ben, map[string]any{"outcome": false})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "UNAUTHORIZED_RESOLUTION", out["code"])

	w, out = s.do(t, http.MethodPost, "/api/bets/"+betID+"/resolve", &ana, map[string]any{
		"outcome":   true,
		"reasoning": "Reopened on Thursday.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), out["winners_count"])
	assert.Equal(t, "50", out["total_payout"])

	w, out = s.do(t, http.MethodGet, "/api/bets/"+betID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decision := out["decision"].(map[string]any)
	assert.Equal(t, true, decision["outcome"])

	w, out = s.do(t, http.MethodGet, "/api/user/balance", &ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "120", out["balance"])
}

func TestArbitrateAndAppeal(t *testing.T) {
	s := newTestServer(t)
	ana := newIdentity(t, "ana@example.com")
	ben := newIdentity(t, "ben@example.com")
	deadline := s.now.Add(time.Hour)

	betID := s.createBet(t, ana, map[string]any{
		"title":           "Will the merger be announced?",
		"description":     "Resolves yes if either company announces the merger.",
		"deadline":        deadline.Format(time.RFC3339),
		"arbitrator_type": "ai",
	})
	w, _ := s.do(t, http.MethodPost, "/api/bets/"+betID+"/stake", &ben, map[string]any{
		"prediction":   false,
		"stake_amount": "10",
	})
	require.Equal(t, http.StatusOK, w.Code)

	s.now = deadline.Add(time.Second)
	w, out := s.do(t, http.MethodPost, "/api/bets/"+betID+"/resolve", &ana, map[string]any{"outcome": true})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AI_RESOLUTION_REQUIRED", out["code"])

	w, out = s.do(t, http.MethodPost, "/api/bets/"+betID+"/arbitrate", &ana, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, out["ai_decision"])
	assert.Equal(t, false, out["fallback"])

	w, out = s.do(t, http.MethodPost, "/api/appeals", &ben, map[string]any{
		"bet_id": betID,
		"reason": "The announcement was only a rumour, not official.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	appeal := out["appeal"].(map[string]any)
	assert.Equal(t, string(models.AppealStatusPending), appeal["status"])

	w, out = s.do(t, http.MethodPost, "/api/appeals", &ben, map[string]any{
		"bet_id": betID,
		"reason": "Filing the same appeal a second time here.",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_APPEALED", out["code"])

	w, out = s.do(t, http.MethodGet, "/api/appeals", &ben, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["appeals"], 1)
}

func TestMarketsRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	ana := newIdentity(t, "ana@example.com")
	body := map[string]any{"name": "Weather", "category": "science"}

	w, out := s.do(t, http.MethodPost, "/api/markets", &ana, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", out["code"])

	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", ana.ID).Update("role", models.RoleAdmin).Error)
	w, _ = s.do(t, http.MethodPost, "/api/markets", &ana, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, out = s.do(t, http.MethodGet, "/api/markets?category=science", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), out["count"])
}

func TestInvalidBetID(t *testing.T) {
	s := newTestServer(t)
	w, out := s.do(t, http.MethodGet, "/api/bets/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", out["code"])

	w, out = s.do(t, http.MethodGet, "/api/bets/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BET_NOT_FOUND", out["code"])
}
