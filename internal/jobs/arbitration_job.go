package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const arbitrationBatchSize = 100

// DueArbitrator resolves AI bets whose deadline has passed
type DueArbitrator interface {
	ArbitrateDue(ctx context.Context, limit int) (resolved int, failed int, err error)
}

// ArbitrationJob periodically hands expired AI bets to the judge
type ArbitrationJob struct {
	arbitrator DueArbitrator
	interval   time.Duration
	log        *zap.Logger
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewArbitrationJob creates a new arbitration job
func NewArbitrationJob(arbitrator DueArbitrator, interval time.Duration, log *zap.Logger) *ArbitrationJob {
	return &ArbitrationJob{
		arbitrator: arbitrator,
		interval:   interval,
		log:        log.Named("arbitration_job"),
		stopChan:   make(chan struct{}),
	}
}

// Start runs the arbitration loop until Stop is called
func (j *ArbitrationJob) Start() {
	j.log.Info("starting arbitration job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(context.Background())
		case <-j.stopChan:
			j.log.Info("stopping arbitration job")
			return
		}
	}
}

// Stop stops the arbitration loop. It is safe to call more than once.
func (j *ArbitrationJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopChan) })
}

// RunOnce arbitrates one batch of due bets
func (j *ArbitrationJob) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()

	resolved, failed, err := j.arbitrator.ArbitrateDue(ctx, arbitrationBatchSize)
	if err != nil {
		j.log.Error("fetching due bets failed", zap.Error(err))
		return
	}
	if resolved > 0 || failed > 0 {
		j.log.Info("arbitration batch finished", zap.Int("resolved", resolved), zap.Int("failed", failed))
	}
}
