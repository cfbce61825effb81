package cron

import (
	"context"
	"time"

	"github.com/minsukang/dalligo-backend/internal/matching"
	"github.com/minsukang/dalligo-backend/internal/postings"
	"github.com/minsukang/dalligo-backend/pkg/config"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/logger"
	"github.com/minsukang/dalligo-backend/pkg/metrics"
)

const expiryJobName = "posting_expiry"

// Locker serializes job runs across instances. Satisfied by the redis
// client; nil runs the job unguarded, which is fine for single-instance
// deployments and tests.
type Locker interface {
	AcquireCronLock(ctx context.Context, job string, ttl time.Duration) (bool, error)
	ReleaseCronLock(ctx context.Context, job string) error
}

// ExpiryJob closes shopper postings whose receive window passed without a
// match. Every open bid on an expired posting fails with it, as the system
// actor.
type ExpiryJob struct {
	cfg      config.ExpiryConfig
	postings postings.Repository
	engine   *matching.Engine
	locker   Locker
	metrics  *metrics.CronJobMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewExpiryJob wires the posting expiry job. locker and metrics may be nil.
func NewExpiryJob(
	cfg config.ExpiryConfig,
	postingRepo postings.Repository,
	engine *matching.Engine,
	locker Locker,
	jobMetrics *metrics.CronJobMetrics,
	log *logger.Logger,
) *ExpiryJob {
	return &ExpiryJob{
		cfg:      cfg,
		postings: postingRepo,
		engine:   engine,
		locker:   locker,
		metrics:  jobMetrics,
		log:      log,
		now:      time.Now,
	}
}

// Run executes the ticker loop until ctx is cancelled.
func (j *ExpiryJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil && j.log != nil {
				j.log.Error(ctx, "posting expiry sweep failed", err)
			}
		}
	}
}

// RunOnce performs a single sweep and returns how many postings it closed.
func (j *ExpiryJob) RunOnce(ctx context.Context) (int, error) {
	if j.locker != nil {
		acquired, err := j.locker.AcquireCronLock(ctx, expiryJobName, j.cfg.LockTTL)
		if err != nil {
			j.metrics.IncFailure(expiryJobName)
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring expiry lock")
		}
		if !acquired {
			return 0, nil
		}
		defer func() {
			if err := j.locker.ReleaseCronLock(ctx, expiryJobName); err != nil && j.log != nil {
				j.log.Warn(ctx, "releasing expiry lock failed")
			}
		}()
	}

	started := j.now()
	closed, err := j.sweep(ctx)
	j.metrics.ObserveDuration(expiryJobName, j.now().Sub(started))
	if err != nil {
		j.metrics.IncFailure(expiryJobName)
		return closed, err
	}
	j.metrics.IncSuccess(expiryJobName)
	if closed > 0 && j.log != nil {
		j.log.Info(j.log.WithField(ctx, "closed", closed), "expired postings closed")
	}
	return closed, nil
}

func (j *ExpiryJob) sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.cfg.GracePeriod)
	rows, err := j.postings.FindExpiredOpenShopperPostings(ctx, cutoff, j.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, posting := range rows {
		err := j.engine.ClosePosting(ctx, enums.PostingRoleShopper, posting.ID, matching.SystemActorID)
		switch {
		case err == nil:
			closed++
		case pkgerrors.HasCode(err, pkgerrors.CodeStaleState),
			pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition),
			pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
			// The posting moved on between the scan and the close; skip it.
		default:
			return closed, err
		}
	}
	return closed, nil
}
