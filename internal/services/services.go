package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prophet-betting/internal/events"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	recentLedgerLen = 10
)

// Requester is the authenticated caller. Email is the verified address
// carried by the identity token.
type Requester struct {
	ID    uuid.UUID
	Email string
}

// Clock returns the current time; tests substitute a fixed one
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// normalizePage clamps page to >= 1 and limit to 1..50
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// publish sends an event and only logs failures; the write it describes has
// already committed.
func publish(ctx context.Context, pub events.Publisher, log *zap.Logger, name string, key uuid.UUID, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, name, key.String(), payload); err != nil {
		log.Warn("event publish failed", zap.String("event", name), zap.String("key", key.String()), zap.Error(err))
	}
}
