package judge

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/config"
	"prophet-betting/internal/metrics"
)

const fallbackReasoning = "AI arbitration was unavailable; outcome drawn at random as a fallback"

// Policy wraps a Judge with the configured failure handling.
//
// With "random" a failed (or missing) judge yields a coin-flip verdict
// marked Fallback. With "reject" the failure surfaces as
// apperr.ErrJudgeUnavailable and the bet stays unresolved.
type Policy struct {
	judge    Judge
	fallback string
	log      *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPolicy wraps j. A nil j means no judge is configured.
func NewPolicy(j Judge, fallback string, log *zap.Logger) *Policy {
	return &Policy{
		judge:    j,
		fallback: fallback,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand replaces the coin used for random fallbacks
func (p *Policy) WithRand(rng *rand.Rand) *Policy {
	p.mu.Lock()
	p.rng = rng
	p.mu.Unlock()
	return p
}

func (p *Policy) JudgeOutcome(ctx context.Context, q Question) (Verdict, error) {
	if p.judge != nil {
		v, err := p.judge.JudgeOutcome(ctx, q)
		if err == nil {
			metrics.JudgeCalls.WithLabelValues("ok").Inc()
			return v, nil
		}
		metrics.JudgeCalls.WithLabelValues("error").Inc()
		p.log.Warn("judge call failed", zap.String("title", q.Title), zap.Error(err))
	}

	if p.fallback != config.FallbackRandom {
		return Verdict{}, apperr.ErrJudgeUnavailable
	}

	metrics.JudgeCalls.WithLabelValues("fallback").Inc()
	p.mu.Lock()
	decision := p.rng.Intn(2) == 1
	p.mu.Unlock()
	return Verdict{Decision: decision, Reasoning: fallbackReasoning, Fallback: true}, nil
}
