// Package store wires core/db/sqlc's generated queries into the
// domain-typed accessors the orchestrator and worker depend on, distinct
// from internal/cache's plan-specific persistence and internal/change's
// monitoring/change persistence.
package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	snowflake "pagewatch.dev/core/common/id"
	"pagewatch.dev/core/core/db"
	"pagewatch.dev/core/core/db/sqlc"
	"pagewatch.dev/core/internal/model"
)

// TaskStore reads the task table: the scheduling source for cron-driven
// invocations, and the lookup path for the "/tasks/{id}/run" convenience
// route.
type TaskStore struct {
	db *db.DB
}

// NewTaskStore wraps an already-connected DB.
func NewTaskStore(database *db.DB) *TaskStore {
	return &TaskStore{db: database}
}

// Task is the domain-typed projection of a task row.
type Task struct {
	ID          int64
	Name        string
	Instruction string
	URL         string
	Cron        string
	IsActive    bool
}

// Get loads one task by id, or a NotFoundError if none exists.
func (s *TaskStore) Get(ctx context.Context, id int64) (*Task, error) {
	row, err := s.db.Queries().GetTask(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.NewNotFoundError("task not found")
		}
		return nil, model.NewInternalError("failed to load task", err)
	}
	return &Task{
		ID:          row.ID,
		Name:        row.Name,
		Instruction: row.Instruction,
		URL:         row.Url,
		Cron:        row.Cron.String,
		IsActive:    row.IsActive,
	}, nil
}

// ListActive returns every task eligible for scheduling.
func (s *TaskStore) ListActive(ctx context.Context) ([]Task, error) {
	rows, err := s.db.Queries().ListActiveTasks(ctx)
	if err != nil {
		return nil, model.NewInternalError("failed to list active tasks", err)
	}
	tasks := make([]Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, Task{
			ID:          row.ID,
			Name:        row.Name,
			Instruction: row.Instruction,
			URL:         row.Url,
			Cron:        row.Cron.String,
			IsActive:    row.IsActive,
		})
	}
	return tasks, nil
}

// ExecutionResultStore persists the one ExecutionResult row every
// invocation writes, success or not, before any MonitoringSample/
// ChangeRecord writes happen.
type ExecutionResultStore struct {
	db *db.DB
}

// NewExecutionResultStore wraps an already-connected DB.
func NewExecutionResultStore(database *db.DB) *ExecutionResultStore {
	return &ExecutionResultStore{db: database}
}

// Create persists one ExecutionResult and returns it with its assigned ID.
func (s *ExecutionResultStore) Create(ctx context.Context, result model.ExecutionResult) (model.ExecutionResult, error) {
	resultJSON, err := json.Marshal(result.ExtractedData)
	if err != nil {
		return result, model.NewInternalError("failed to encode extracted data", err)
	}
	logsJSON, err := json.Marshal(result.Logs)
	if err != nil {
		return result, model.NewInternalError("failed to encode logs", err)
	}

	var errMessage pgtype.Text
	if result.Error != nil {
		errMessage = pgtype.Text{String: result.Error.Message, Valid: true}
	}

	row, err := s.db.Queries().CreateExecutionResult(ctx, sqlc.CreateExecutionResultParams{
		ID:              snowflake.New(),
		TaskID:          int64OrNull(result.TaskID),
		PlanID:          pgtype.Int8{Int64: result.PlanID, Valid: result.PlanID != 0},
		Status:          string(result.Status),
		Result:          resultJSON,
		Logs:            logsJSON,
		ErrorMessage:    errMessage,
		ExecutionTimeMs: int64(result.Metrics.ExecutionTimeMs),
	})
	if err != nil {
		return result, model.NewInternalError("failed to persist execution result", err)
	}

	result.ID = row.ID
	result.CreatedAt = row.CreatedAt
	return result, nil
}

func int64OrNull(id *int64) pgtype.Int8 {
	if id == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *id, Valid: true}
}
