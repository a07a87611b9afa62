// Package workers runs batch scrapes in the background and records their
// progress in the task store.
package workers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/metrics"
	"github.com/amonks/soundscout/soundcloud"
	"github.com/google/uuid"
)

const TaskTypeBatchScrape = "batch_scrape"

type BatchScraper interface {
	ScrapeBatch(ctx context.Context, usernames []string, includeTracks bool, maxTracks int, onItem func(int, data.BatchItem)) ([]data.BatchItem, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *data.DiscoveryTask) error
	UpdateProgress(ctx context.Context, taskID string, progress float64, status data.TaskStatus) error
	CompleteTask(ctx context.Context, taskID string, status data.TaskStatus, result any, errMsg string) error
}

// ArtistCache keeps every successfully scraped artist.
type ArtistCache interface {
	SaveArtist(ctx context.Context, artist *data.ArtistProfile) error
}

type Option func(*Runner)

func WithCache(cache ArtistCache) Option {
	return func(r *Runner) { r.cache = cache }
}

func NewRunner(scraper BatchScraper, store TaskStore, opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		scraper: scraper,
		store:   store,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Runner owns the background jobs it starts. Jobs outlive the request that
// enqueued them; they end when they finish or when the Runner shuts down.
type Runner struct {
	scraper BatchScraper
	store   TaskStore
	cache   ArtistCache

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Enqueue validates a batch, records a pending task for it, and starts
// scraping in the background. An invalid batch creates no task.
func (r *Runner) Enqueue(ctx context.Context, usernames []string, includeTracks bool, maxTracks int) (*data.DiscoveryTask, error) {
	if err := soundcloud.ValidateBatch(usernames); err != nil {
		return nil, err
	}
	if err := r.ctx.Err(); err != nil {
		return nil, fmt.Errorf("runner is shut down: %w", err)
	}

	task := &data.DiscoveryTask{
		TaskID:   uuid.NewString(),
		TaskType: TaskTypeBatchScrape,
		Target:   strings.Join(usernames, ","),
		Status:   data.TaskPending,
	}
	if err := r.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	jobCtx := logging.ContextWithRequestID(r.ctx, logging.RequestIDFromContext(ctx))
	usernames = append([]string(nil), usernames...)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(jobCtx, task.TaskID, usernames, includeTracks, maxTracks)
	}()

	logging.Ctx(ctx).Info().Str("task_id", task.TaskID).Int("usernames", len(usernames)).Msg("batch scrape enqueued")
	return task, nil
}

func (r *Runner) run(ctx context.Context, taskID string, usernames []string, includeTracks bool, maxTracks int) {
	metrics.TasksActive.Inc()
	defer metrics.TasksActive.Dec()

	log := logging.Ctx(ctx).With().Str("task_id", taskID).Logger()
	start := time.Now()

	// Task bookkeeping must land even when the job itself is canceled.
	storeCtx := context.WithoutCancel(ctx)

	if err := r.store.UpdateProgress(storeCtx, taskID, 0, data.TaskInProgress); err != nil {
		log.Error().Err(err).Msg("error marking task in progress")
	}

	var mu sync.Mutex
	done := 0
	onItem := func(i int, item data.BatchItem) {
		metrics.BatchItems.WithLabelValues(string(item.Status)).Inc()
		if item.Status == data.BatchItemSuccess && r.cache != nil {
			if err := r.cache.SaveArtist(storeCtx, item.Artist); err != nil {
				log.Warn().Err(err).Str("username", item.Username).Msg("error caching artist")
			}
		}

		mu.Lock()
		defer mu.Unlock()
		done++
		if err := r.store.UpdateProgress(storeCtx, taskID, float64(done)/float64(len(usernames)), data.TaskInProgress); err != nil {
			log.Warn().Err(err).Msg("error updating task progress")
		}
	}

	items, err := r.scraper.ScrapeBatch(ctx, usernames, includeTracks, maxTracks, onItem)
	if err != nil {
		log.Error().Err(err).Msg("batch scrape failed")
		if err := r.store.CompleteTask(storeCtx, taskID, data.TaskFailed, nil, err.Error()); err != nil {
			log.Error().Err(err).Msg("error marking task failed")
		}
		return
	}

	result := summarize(items)
	status := data.TaskCompleted
	if result.Succeeded == 0 {
		status = data.TaskFailed
	}
	if err := r.store.CompleteTask(storeCtx, taskID, status, result, failureMessage(result)); err != nil {
		log.Error().Err(err).Msg("error completing task")
		return
	}
	log.Info().
		Str("status", string(status)).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("batch scrape finished")
}

func summarize(items []data.BatchItem) data.BatchResult {
	result := data.BatchResult{Items: items}
	for _, item := range items {
		if item.Status == data.BatchItemSuccess {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	return result
}

// failureMessage names the first few failed usernames.
func failureMessage(result data.BatchResult) string {
	if result.Failed == 0 {
		return ""
	}
	const shown = 3
	var names []string
	for _, item := range result.Items {
		if item.Status == data.BatchItemFailed && len(names) < shown {
			names = append(names, fmt.Sprintf("%s (%s)", item.Username, item.Error))
		}
	}
	msg := fmt.Sprintf("%d of %d usernames failed: %s", result.Failed, len(result.Items), strings.Join(names, "; "))
	if result.Failed > shown {
		msg += fmt.Sprintf("; and %d more", result.Failed-shown)
	}
	return msg
}

// Wait blocks until every job started so far has finished.
func (r *Runner) Wait() { r.wg.Wait() }

// Shutdown cancels running jobs and waits for them to record their final
// status, or for ctx to end.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("error waiting for background tasks: %w", ctx.Err())
	}
}
