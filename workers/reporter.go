package workers

import (
	"context"
	"time"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/logging"
)

type TaskCounter interface {
	CountTasks(ctx context.Context) (map[data.TaskStatus]int64, error)
}

// RunReporter logs task counts every interval until ctx is done.
func RunReporter(ctx context.Context, counter TaskCounter, every time.Duration) error {
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		counts, err := counter.CountTasks(ctx)
		if err != nil && ctx.Err() == nil {
			logging.Warn().Err(err).Msg("error counting tasks")
		} else if err == nil {
			logging.Info().
				Int64("pending", counts[data.TaskPending]).
				Int64("in_progress", counts[data.TaskInProgress]).
				Int64("completed", counts[data.TaskCompleted]).
				Int64("failed", counts[data.TaskFailed]).
				Msg("task report")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}
