package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amonks/soundscout/data"
	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskFinished is returned when updating a task that has already
	// completed or failed.
	ErrTaskFinished = errors.New("task already finished")
)

var terminalStatuses = []string{string(data.TaskCompleted), string(data.TaskFailed)}

// CreateTask inserts a new task. A task with no status is stored as
// pending.
func (db *DB) CreateTask(ctx context.Context, task *data.DiscoveryTask) error {
	if task.Status == "" {
		task.Status = data.TaskPending
	}
	if err := db.WithContext(ctx).
		Create(task).
		Error; err != nil {
		return fmt.Errorf("error inserting task '%s': %w", task.TaskID, err)
	}
	return nil
}

func (db *DB) GetTask(ctx context.Context, taskID string) (*data.DiscoveryTask, error) {
	var task data.DiscoveryTask
	err := db.WithContext(ctx).
		Where("task_id = ?", taskID).
		First(&task).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: '%s'", ErrTaskNotFound, taskID)
	} else if err != nil {
		return nil, fmt.Errorf("error getting task '%s': %w", taskID, err)
	}
	return &task, nil
}

// UpdateProgress records a running task's progress, from 0 to 1.
func (db *DB) UpdateProgress(ctx context.Context, taskID string, progress float64, status data.TaskStatus) error {
	if status.Terminal() {
		return &data.InvalidArgumentError{Field: "status", Value: status, Reason: "use CompleteTask to finish a task"}
	}
	return db.updateUnfinished(ctx, taskID, map[string]any{
		"status":   status,
		"progress": min(1, max(0, progress)),
	})
}

// CompleteTask moves a task to a terminal status, storing result as JSON.
// result may be nil.
func (db *DB) CompleteTask(ctx context.Context, taskID string, status data.TaskStatus, result any, errMsg string) error {
	if !status.Terminal() {
		return &data.InvalidArgumentError{Field: "status", Value: status, Reason: "must be completed or failed"}
	}

	now := time.Now()
	updates := map[string]any{
		"status":       status,
		"progress":     1.0,
		"completed_at": &now,
	}
	if result != nil {
		bs, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("error encoding result for task '%s': %w", taskID, err)
		}
		updates["result"] = json.RawMessage(bs)
	}
	if errMsg != "" {
		updates["error_message"] = errMsg
	}
	return db.updateUnfinished(ctx, taskID, updates)
}

func (db *DB) updateUnfinished(ctx context.Context, taskID string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&data.DiscoveryTask{}).
		Where("task_id = ? and status not in ?", taskID, terminalStatuses).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("error updating task '%s': %w", taskID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := db.GetTask(ctx, taskID); err != nil {
		return err
	}
	return fmt.Errorf("%w: '%s'", ErrTaskFinished, taskID)
}

// RecentTasks returns up to limit tasks, newest first.
func (db *DB) RecentTasks(ctx context.Context, limit int) ([]data.DiscoveryTask, error) {
	tasks := []data.DiscoveryTask{}
	if err := db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&tasks).
		Error; err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return tasks, nil
}

// CountTasks counts tasks by status.
func (db *DB) CountTasks(ctx context.Context) (map[data.TaskStatus]int64, error) {
	var rows []struct {
		Status data.TaskStatus
		Count  int64
	}
	if err := db.WithContext(ctx).
		Model(&data.DiscoveryTask{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).
		Error; err != nil {
		return nil, fmt.Errorf("error counting tasks: %w", err)
	}
	counts := map[data.TaskStatus]int64{}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
