package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"physiotrack/practice-app/internal/repository"
	"physiotrack/practice-app/internal/schedule"
)

const sweepTimeout = 5 * time.Second

// assignmentLifecycle runs the lazy expiry sweep shared by every
// assignment read path. The sweep is best effort: it runs detached from
// the request, its failure is logged and never fails the read, and the
// read may still observe a not-yet-expired assignment once.
type assignmentLifecycle struct {
	assignmentRepo repository.AssignmentRepository
	logger         *zap.Logger
	loc            *time.Location
	now            func() time.Time
}

func newAssignmentLifecycle(assignmentRepo repository.AssignmentRepository, logger *zap.Logger, loc *time.Location, now func() time.Time) *assignmentLifecycle {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &assignmentLifecycle{
		assignmentRepo: assignmentRepo,
		logger:         logger,
		loc:            loc,
		now:            now,
	}
}

// today is the current date in the practice's reference time zone.
func (l *assignmentLifecycle) today() time.Time {
	return schedule.Day(l.now().In(l.loc))
}

// sweepExpired fires the idempotent bulk expiry without awaiting it. A
// fresh background context keeps the sweep alive past the response.
func (l *assignmentLifecycle) sweepExpired() {
	today := l.today()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		flipped, err := l.assignmentRepo.ExpireStale(ctx, today)
		if err != nil {
			l.logger.Warn("assignment expiry sweep failed", zap.Error(err))
			return
		}
		if flipped > 0 {
			l.logger.Info("expired stale assignments", zap.Int64("count", flipped))
		}
	}()
}
