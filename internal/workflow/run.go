package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reelscan/internal/logging"
	"reelscan/internal/queue"
	"reelscan/internal/services"
)

var errClaimLost = errors.New("queue claim lost")

// Start launches the claim loop. It returns once the loop is running.
func (m *Manager) Start(ctx context.Context) error {
	if m.queue == nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "start", "no queue attached", nil)
	}
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	if n, err := m.queue.ReleaseOwner(ctx, m.owner, queue.DaemonStopReason); err != nil {
		m.logger.Warn("release stale claims failed", logging.Error(err))
	} else if n > 0 {
		m.logger.Info("released stale claims", logging.Int64("count", n))
	}

	m.wg.Add(1)
	go m.loop(loopCtx)
	m.logger.Info("workflow started",
		logging.EventType("workflow_started"),
		logging.String("owner", m.owner),
		logging.Int("workers", m.settings.Workers),
		logging.Duration("visibility", m.settings.Visibility),
	)
	return nil
}

// Stop cancels the loop, waits for in-flight jobs to unwind, and releases
// their claims back to the queue.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	m.mu.Lock()
	m.running = false
	m.cancel = nil
	m.mu.Unlock()
	m.logger.Info("workflow stopped", logging.EventType("workflow_stopped"))
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()
	pool := newSlotPool(m.settings.Workers)
	defer pool.wait()

	for {
		if ctx.Err() != nil {
			return
		}
		free := pool.free()
		if free == 0 {
			if !m.sleep(ctx, m.settings.PollInterval) {
				return
			}
			continue
		}
		limit := min(free, m.settings.BatchSize)
		messages, err := m.queue.Claim(ctx, m.owner, limit, m.settings.Visibility)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			logging.WarnWithContext(m.logger, "queue claim failed", "queue_claim_failed",
				logging.Error(err),
				logging.Hint("check the queue database at the configured state_dir"),
				logging.Impact("no new jobs start until the queue recovers"),
			)
			if !m.sleep(ctx, m.settings.ErrorRetry) {
				return
			}
			continue
		}
		if len(messages) == 0 {
			m.idle(ctx)
			if !m.sleep(ctx, m.settings.PollInterval) {
				return
			}
			continue
		}
		// Claims never exceed the free slots, so acquire does not wait here.
		for _, msg := range messages {
			slot, _ := pool.acquire(ctx)
			pool.run(slot, func(slot int) {
				m.process(ctx, msg, slot)
			})
		}
	}
}

// process runs one claimed message while a heartbeat keeps the claim alive.
func (m *Manager) process(ctx context.Context, msg *queue.Message, slot int) {
	jobCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	jobCtx = services.WithWorker(jobCtx, slot)
	jobCtx = services.WithRequestID(jobCtx, uuid.NewString())
	jobCtx = services.WithJobID(jobCtx, msg.Job.EditMapID)
	logger := logging.WithContext(jobCtx, m.logger)

	hbDone := make(chan struct{})
	go func() {
		defer close(hbDone)
		m.heartbeat(jobCtx, msg, cancel)
	}()

	_, err := m.RunJob(jobCtx, msg.Job)
	cancel(nil)
	<-hbDone

	if errors.Is(context.Cause(jobCtx), errClaimLost) && errors.Is(err, ErrAbandoned) {
		return
	}
	if errors.Is(err, ErrAbandoned) {
		releaseCtx, done := context.WithTimeout(context.WithoutCancel(jobCtx), 10*time.Second)
		defer done()
		if relErr := m.queue.Release(releaseCtx, msg.ID, msg.ClaimToken, queue.DaemonStopReason); relErr != nil && !errors.Is(relErr, queue.ErrClaimLost) {
			logger.Warn("release claim failed", logging.Error(relErr))
		}
		return
	}
	ackCtx, done := context.WithTimeout(context.WithoutCancel(jobCtx), 10*time.Second)
	defer done()
	if ackErr := m.queue.Ack(ackCtx, msg.ID, msg.ClaimToken, err); ackErr != nil {
		if errors.Is(ackErr, queue.ErrClaimLost) {
			m.metrics.ClaimLost()
		}
		logging.WarnWithContext(logger, "queue ack failed", "queue_ack_failed",
			logging.Error(ackErr),
			logging.Hint("another worker may have reclaimed the job after its visibility expired"),
			logging.Impact("the job may run again"),
		)
	}
}

// heartbeat extends the claim until ctx ends. A lost claim cancels the job.
func (m *Manager) heartbeat(ctx context.Context, msg *queue.Message, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(m.settings.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := m.queue.Extend(ctx, msg.ID, msg.ClaimToken, m.settings.Visibility)
		switch {
		case err == nil:
		case errors.Is(err, queue.ErrClaimLost):
			m.metrics.ClaimLost()
			logging.WarnWithContext(logging.WithContext(ctx, m.logger), "queue claim lost", "queue_claim_lost",
				logging.Int64("queue_id", msg.ID),
				logging.Hint("raise workflow.visibility_timeout_seconds if jobs outlive their claims"),
				logging.Impact("job cancelled; another worker owns it now"),
			)
			cancel(fmt.Errorf("%w: queue id %d", errClaimLost, msg.ID))
			return
		case ctx.Err() != nil:
			return
		default:
			m.logger.Warn("claim extend failed", logging.Int64("queue_id", msg.ID), logging.Error(err))
		}
	}
}

// idle runs housekeeping between empty polls.
func (m *Manager) idle(ctx context.Context) {
	if n, err := m.queue.ReclaimExpired(ctx); err != nil {
		m.logger.Warn("reclaim expired claims failed", logging.Error(err))
	} else if n > 0 {
		m.logger.Info("reclaimed expired claims", logging.Int64("count", n))
	}
	stats, err := m.queue.Stats(ctx)
	if err != nil {
		return
	}
	depth := make(map[string]int, len(stats))
	for status, count := range stats {
		depth[string(status)] = count
	}
	m.metrics.SetQueueDepth(depth)
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
