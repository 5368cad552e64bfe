// Package judge decides the outcome of AI-arbitrated bets.
package judge

import (
	"context"
	"time"
)

// Question is what the judge is asked to decide
type Question struct {
	Title       string
	Description string
	Deadline    time.Time
}

// Verdict is the judge's answer. Fallback is set when the verdict did not
// come from the model.
type Verdict struct {
	Decision  bool
	Reasoning string
	Fallback  bool
}

// Judge resolves a yes/no question
type Judge interface {
	JudgeOutcome(ctx context.Context, q Question) (Verdict, error)
}

// Func adapts a function to Judge
type Func func(ctx context.Context, q Question) (Verdict, error)

func (f Func) JudgeOutcome(ctx context.Context, q Question) (Verdict, error) {
	return f(ctx, q)
}
