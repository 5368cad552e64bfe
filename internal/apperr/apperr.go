// Package apperr defines the machine-readable errors surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a caller-facing error with an HTTP status and a stable code.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  []FieldError
}

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code, so sentinels work with errors.Is
// even after WithMessage.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func newError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Validation
var ErrValidation = newError(http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed")

// Authorization
var (
	ErrUnauthenticated        = newError(http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
	ErrForbidden              = newError(http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions")
	ErrUnauthorizedResolution = newError(http.StatusForbidden, "UNAUTHORIZED_RESOLUTION", "You are not authorized to resolve this bet")
	ErrAIResolutionRequired   = newError(http.StatusForbidden, "AI_RESOLUTION_REQUIRED", "AI bets must be resolved through the AI arbitrator system")
	ErrNotParticipant         = newError(http.StatusForbidden, "NOT_PARTICIPANT", "You did not participate in this bet")
	ErrRateLimited            = newError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
)

// State
var (
	ErrAlreadyResolved     = newError(http.StatusBadRequest, "ALREADY_RESOLVED", "Bet is already resolved")
	ErrBetResolved         = newError(http.StatusBadRequest, "BET_RESOLVED", "Bet is already resolved")
	ErrDeadlineNotReached  = newError(http.StatusBadRequest, "DEADLINE_NOT_REACHED", "Cannot resolve bet before deadline")
	ErrDeadlinePassed      = newError(http.StatusBadRequest, "DEADLINE_PASSED", "Bet deadline has passed")
	ErrAlreadyParticipated = newError(http.StatusBadRequest, "ALREADY_PARTICIPATED", "You have already placed a bet on this market")
	ErrInsufficientCredits = newError(http.StatusBadRequest, "INSUFFICIENT_CREDITS", "Insufficient credits to place this bet")
	ErrStakeBelowMinimum   = newError(http.StatusBadRequest, "STAKE_BELOW_MINIMUM", "Stake is below the bet's minimum stake")
	ErrNotAIArbitrated     = newError(http.StatusBadRequest, "NOT_AI_ARBITRATED", "Only AI-arbitrated bets can use this operation")
	ErrBetNotResolved      = newError(http.StatusBadRequest, "BET_NOT_RESOLVED", "Cannot appeal a bet that has not been resolved yet")
	ErrAlreadyAppealed     = newError(http.StatusBadRequest, "ALREADY_APPEALED", "You have already appealed this bet")
	ErrAppealWindowExpired = newError(http.StatusBadRequest, "APPEAL_WINDOW_EXPIRED", "Appeal deadline has passed (7 days after resolution)")
	ErrDuplicate           = newError(http.StatusConflict, "DUPLICATE_RESOURCE", "Resource already exists")
)

// Resources
var (
	ErrBetNotFound    = newError(http.StatusNotFound, "BET_NOT_FOUND", "Bet not found")
	ErrMarketNotFound = newError(http.StatusNotFound, "MARKET_NOT_FOUND", "Market not found")
	ErrUserNotFound   = newError(http.StatusNotFound, "USER_NOT_FOUND", "User not found")
)

// Upstream
var (
	ErrJudgeUnavailable = newError(http.StatusServiceUnavailable, "JUDGE_UNAVAILABLE", "AI arbitration is temporarily unavailable")
	ErrInternal         = newError(http.StatusInternalServerError, "INTERNAL", "Internal server error")
)

// Validation builds a VALIDATION_FAILED error carrying fields
func Validation(fields ...FieldError) *Error {
	cp := *ErrValidation
	cp.Fields = fields
	return &cp
}

// As unwraps err to an *Error if there is one in its chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
