package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPublisherLogsEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	betID := uuid.New()
	err := p.Publish(context.Background(), AppealFiled, betID.String(), AppealFiledPayload{BetID: betID})
	require.NoError(t, err)

	entries := logs.FilterMessage("domain event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, AppealFiled, entries[0].ContextMap()["event"])
}

func TestRecorderKeepsOrder(t *testing.T) {
	r := &Recorder{}
	ctx := context.Background()
	require.NoError(t, r.Publish(ctx, BetCreated, "k", BetCreatedPayload{BetID: uuid.New()}))
	require.NoError(t, r.Publish(ctx, StakePlaced, "k", StakePlacedPayload{BetID: uuid.New()}))

	assert.Equal(t, []string{BetCreated, StakePlaced}, r.Names())

	var payload StakePlacedPayload
	require.NoError(t, json.Unmarshal(r.Events[1].Payload, &payload))
	assert.NotEqual(t, uuid.Nil, payload.BetID)
}

func TestKafkaTopicNaming(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "prophet", zap.NewNop())
	defer p.Close()

	assert.Equal(t, "prophet.bets.resolved", p.Topic(BetResolved))
}

func TestKafkaPublishIsBoundedWhenBrokerIsDown(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "prophet", zap.New(core))
	p.Timeout = 200 * time.Millisecond
	defer p.Close()

	start := time.Now()
	err := p.Publish(context.Background(), StakePlaced, uuid.NewString(), StakePlacedPayload{BetID: uuid.New()})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, logs.FilterMessage("failed to enqueue event").Len())
}
