// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Event names. The Kafka topic is the configured prefix plus the name.
const (
	BetCreated  = "bets.created"
	StakePlaced = "stakes.placed"
	BetResolved = "bets.resolved"
	AppealFiled = "appeals.filed"
)

// Envelope wraps every payload with its name and time
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type BetCreatedPayload struct {
	BetID          uuid.UUID  `json:"bet_id"`
	CreatorID      uuid.UUID  `json:"creator_id"`
	MarketID       *uuid.UUID `json:"market_id,omitempty"`
	ArbitratorType string     `json:"arbitrator_type"`
	Deadline       time.Time  `json:"deadline"`
}

type StakePlacedPayload struct {
	BetID         uuid.UUID       `json:"bet_id"`
	ParticipantID uuid.UUID       `json:"participant_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Prediction    bool            `json:"prediction"`
	Amount        decimal.Decimal `json:"amount"`
}

type BetResolvedPayload struct {
	BetID        uuid.UUID       `json:"bet_id"`
	Outcome      bool            `json:"outcome"`
	IsAIDecision bool            `json:"is_ai_decision"`
	Fallback     bool            `json:"fallback"`
	TotalPayout  decimal.Decimal `json:"total_payout"`
	WinnersCount int             `json:"winners_count"`
	Refunded     bool            `json:"refunded"`
}

type AppealFiledPayload struct {
	AppealID uuid.UUID `json:"appeal_id"`
	BetID    uuid.UUID `json:"bet_id"`
	UserID   uuid.UUID `json:"user_id"`
}

// Publisher sends one event keyed by key, usually the bet id
type Publisher interface {
	Publish(ctx context.Context, name string, key string, payload any) error
	Close() error
}

func newEnvelope(name string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: uuid.New(), Name: name, OccurredAt: time.Now().UTC(), Payload: raw}, nil
}

// LogPublisher only logs events. Used when no brokers are configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, name string, key string, payload any) error {
	env, err := newEnvelope(name, payload)
	if err != nil {
		return err
	}
	p.log.Info("domain event",
		zap.String("event", name),
		zap.String("key", key),
		zap.ByteString("payload", env.Payload),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	Events []Envelope
}

func (r *Recorder) Publish(_ context.Context, name string, _ string, payload any) error {
	env, err := newEnvelope(name, payload)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, env)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Names returns the recorded event names in order
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Events))
	for i, e := range r.Events {
		names[i] = e.Name
	}
	return names
}
