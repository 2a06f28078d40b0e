package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/scholaris/scholaris-backend/internal/config"
	"github.com/scholaris/scholaris-backend/internal/service"
)

const (
	ReconcilePollTimeout = 1 * time.Second
	ReconcileMaxAttempts = 5
	ReconcileRetryDelay  = 3 * time.Second
)

// ReconcileWorker drains the enrollment reconcile queue and re-applies
// failed cascades. Because Enroll is idempotent, re-running a job until it
// succeeds drives enrollments to convergence with class membership.
type ReconcileWorker struct {
	enroller service.Enroller
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewReconcileWorker creates a new ReconcileWorker.
func NewReconcileWorker(enroller service.Enroller, rdb *redis.Client, log zerolog.Logger) *ReconcileWorker {
	return &ReconcileWorker{
		enroller: enroller,
		rdb:      rdb,
		log:      log.With().Str("component", "reconcile_worker").Logger(),
	}
}

// reconcilePayload wraps the queued job with its attempt count so retries
// survive worker restarts.
type reconcilePayload struct {
	service.ReconcileJob
	Attempts int `json:"attempts"`
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *ReconcileWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReconcileWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		default:
			item, err := w.rdb.BLPop(ctx, ReconcilePollTimeout, config.WorkerKey.EnrollmentReconcileQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p reconcilePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			w.process(ctx, &p)
		}
	}
}

func (w *ReconcileWorker) process(ctx context.Context, p *reconcilePayload) {
	err := w.enroller.Enroll(ctx, p.StudentIDs, p.CourseIDs)
	if err == nil {
		w.log.Info().Int("class_id", p.ClassID).Int("students", len(p.StudentIDs)).
			Int("courses", len(p.CourseIDs)).Msg("Enrollment cascade reconciled")
		return
	}

	p.Attempts++
	if p.Attempts >= ReconcileMaxAttempts {
		// Give up; the sweep binary (cmd/reconcile) repairs anything
		// dropped here.
		w.log.Error().Err(err).Int("class_id", p.ClassID).Int("attempts", p.Attempts).
			Msg("Reconcile job dropped after max attempts")
		return
	}

	w.log.Warn().Err(err).Int("class_id", p.ClassID).Int("attempts", p.Attempts).
		Msg("Reconcile failed, requeueing")

	time.Sleep(ReconcileRetryDelay)

	raw, err := json.Marshal(p)
	if err != nil {
		w.log.Error().Err(err).Msg("Marshal reconcile payload")
		return
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.EnrollmentReconcileQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Int("class_id", p.ClassID).Msg("Requeue failed")
	}
}
