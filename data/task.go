package data

import (
	"time"

	"github.com/goccy/go-json"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether a task in this status will never change again.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// DiscoveryTask tracks a background job. Tasks are created pending, moved to
// in_progress by the job that owns them, and end completed or failed.
type DiscoveryTask struct {
	TaskID       string          `gorm:"primaryKey" json:"task_id"`
	TaskType     string          `json:"task_type"`
	Target       string          `json:"target"`
	Status       TaskStatus      `gorm:"index" json:"status"`
	Progress     float64         `json:"progress"`
	Result       json.RawMessage `gorm:"type:text" json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (DiscoveryTask) TableName() string { return "discovery_tasks" }

type BatchItemStatus string

const (
	BatchItemSuccess BatchItemStatus = "success"
	BatchItemFailed  BatchItemStatus = "failed"
)

// BatchItem is the outcome of scraping one username within a batch.
type BatchItem struct {
	Username string          `json:"username"`
	Status   BatchItemStatus `json:"status"`
	Artist   *ArtistProfile  `json:"artist,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// BatchResult is stored as a batch task's result.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}
