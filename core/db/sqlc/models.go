// Code generated in the style of sqlc. Hand-maintained for this project.
package sqlc

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Task is the input source row: a scheduled (or one-shot) page-watch
// instruction.
type Task struct {
	ID          int64
	CreatorID   pgtype.Int8
	Name        string
	Instruction string
	Url         string
	Cron        pgtype.Text
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExecutionPlan is a cached, reusable plan keyed by its task signature.
type ExecutionPlan struct {
	ID            int64
	TaskSignature string
	Instruction   string
	Url           string
	Plan          []byte // JSON-encoded model.Plan
	Version       int32
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ExecutionResult is one invocation's outcome, successful or not.
type ExecutionResult struct {
	ID              int64
	TaskID          pgtype.Int8
	PlanID          pgtype.Int8
	Status          string
	Result          []byte // JSON-encoded extracted data, nullable
	Logs            []byte // JSON-encoded []string, nullable
	ErrorMessage    pgtype.Text
	ExecutionTimeMs int64
	CreatedAt       time.Time
}

// PlanCache is the lookaside index over ExecutionPlan: one row per cache
// key, tracking hit accounting and expiry independent of plan content.
type PlanCache struct {
	ID          int64
	CacheKey    string
	PlanID      int64
	HitCount    int64
	LastUsedAt  time.Time
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// MonitoringSample is one observed extraction snapshot for a task, used by
// the change detector to diff successive runs.
type MonitoringSample struct {
	ID            int64
	TaskID        int64
	Url           string
	ExtractedData []byte // JSON-encoded map[string]any
	ExecutionID   pgtype.Int8
	Timestamp     time.Time
}

// ChangeDetection records the outcome of comparing two successive
// MonitoringSamples for a task.
type ChangeDetection struct {
	ID            int64
	TaskID        int64
	ExecutionID   pgtype.Int8
	ChangedFields []byte // JSON-encoded []string
	IsRestock     bool
	ChangeDetails []byte // JSON-encoded map[string]ChangeDetail, nullable
	DetectedAt    time.Time
}
