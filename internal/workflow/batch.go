package workflow

import (
	"context"

	"reelscan/internal/editmap"
	"reelscan/internal/services"
)

// ProcessBatch runs jobs on at most Settings.Workers concurrent slots. A
// failing job never affects its siblings. Results keep the input order.
// Jobs not started before ctx ends report ctx's error.
func (m *Manager) ProcessBatch(ctx context.Context, jobs []editmap.AnalysisJob) []JobResult {
	results := make([]JobResult, len(jobs))
	pool := newSlotPool(m.settings.Workers)
	for i, job := range jobs {
		results[i].Job = job
		slot, ok := pool.acquire(ctx)
		if !ok {
			results[i].Err = ctx.Err()
			continue
		}
		pool.run(slot, func(slot int) {
			result, err := m.RunJob(services.WithWorker(ctx, slot), job)
			if err != nil {
				results[i].Err = err
				return
			}
			results[i].EditMap = &result
		})
	}
	pool.wait()
	return results
}
