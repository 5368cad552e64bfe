package apperr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("resolve: %w", ErrAlreadyResolved.WithMessage("bet %d is done", 7))

	assert.True(t, errors.Is(wrapped, ErrAlreadyResolved))
	assert.False(t, errors.Is(wrapped, ErrBetResolved))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "bet 7 is done", e.Message)
	assert.Equal(t, 400, e.Status)
}

func TestCheckerCollectsEveryField(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var c Checker
	c.Required("title", "  ")
	c.Length("description", "short", 10, 1000)
	c.Email("arbitrator_email", "not-an-email")
	c.Positive("stake_amount", decimal.Zero)
	c.Future("deadline", now.Add(-time.Hour), now)
	c.OneOf("arbitrator_type", "robot", "creator", "friend", "ai")

	err := c.Err()
	require.Error(t, err)
	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", e.Code)
	require.Len(t, e.Fields, 6)
	assert.Equal(t, "title", e.Fields[0].Field)
	assert.Equal(t, "arbitrator_type must be one of: creator, friend, ai", e.Fields[5].Message)
}

func TestCheckerPassesValidInput(t *testing.T) {
	now := time.Now()

	var c Checker
	c.Required("title", "Will it rain?")
	c.Length("reason", "this reason is long enough to pass", 20, 1000)
	c.Email("arbitrator_email", "friend@example.com")
	c.Positive("stake_amount", decimal.RequireFromString("0.01"))
	c.Cents("stake_amount", decimal.RequireFromString("12.50"))
	c.Future("deadline", now.Add(time.Minute), now)

	assert.NoError(t, c.Err())
}

func TestCheckerRejectsSubCentAmounts(t *testing.T) {
	var c Checker
	c.Cents("stake_amount", decimal.RequireFromString("1.005"))
	assert.Error(t, c.Err())
}
