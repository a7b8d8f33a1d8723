// Code generated in the style of sqlc. Hand-maintained for this project.
package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTask = `
INSERT INTO task (id, creator_id, name, instruction, url, cron, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, creator_id, name, instruction, url, cron, is_active, created_at, updated_at
`

type CreateTaskParams struct {
	ID          int64
	CreatorID   pgtype.Int8
	Name        string
	Instruction string
	Url         string
	Cron        pgtype.Text
	IsActive    bool
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (Task, error) {
	row := q.db.QueryRow(ctx, createTask, arg.ID, arg.CreatorID, arg.Name, arg.Instruction, arg.Url, arg.Cron, arg.IsActive)
	var t Task
	err := row.Scan(&t.ID, &t.CreatorID, &t.Name, &t.Instruction, &t.Url, &t.Cron, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const getTask = `
SELECT id, creator_id, name, instruction, url, cron, is_active, created_at, updated_at
FROM task WHERE id = $1
`

func (q *Queries) GetTask(ctx context.Context, id int64) (Task, error) {
	row := q.db.QueryRow(ctx, getTask, id)
	var t Task
	err := row.Scan(&t.ID, &t.CreatorID, &t.Name, &t.Instruction, &t.Url, &t.Cron, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const listActiveTasks = `
SELECT id, creator_id, name, instruction, url, cron, is_active, created_at, updated_at
FROM task WHERE is_active ORDER BY id
`

func (q *Queries) ListActiveTasks(ctx context.Context) ([]Task, error) {
	rows, err := q.db.Query(ctx, listActiveTasks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.CreatorID, &t.Name, &t.Instruction, &t.Url, &t.Cron, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const getActiveExecutionPlanBySignature = `
SELECT id, task_signature, instruction, url, plan, version, is_active, created_at, updated_at
FROM execution_plans WHERE task_signature = $1 AND is_active
`

func (q *Queries) GetActiveExecutionPlanBySignature(ctx context.Context, taskSignature string) (ExecutionPlan, error) {
	row := q.db.QueryRow(ctx, getActiveExecutionPlanBySignature, taskSignature)
	var p ExecutionPlan
	err := row.Scan(&p.ID, &p.TaskSignature, &p.Instruction, &p.Url, &p.Plan, &p.Version, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getExecutionPlanByID = `
SELECT id, task_signature, instruction, url, plan, version, is_active, created_at, updated_at
FROM execution_plans WHERE id = $1
`

func (q *Queries) GetExecutionPlanByID(ctx context.Context, id int64) (ExecutionPlan, error) {
	row := q.db.QueryRow(ctx, getExecutionPlanByID, id)
	var p ExecutionPlan
	err := row.Scan(&p.ID, &p.TaskSignature, &p.Instruction, &p.Url, &p.Plan, &p.Version, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const upsertExecutionPlan = `
INSERT INTO execution_plans (id, task_signature, instruction, url, plan, version, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 1, true, now(), now())
ON CONFLICT (task_signature) DO UPDATE SET
	instruction = EXCLUDED.instruction,
	url = EXCLUDED.url,
	plan = EXCLUDED.plan,
	version = execution_plans.version + 1,
	is_active = true,
	updated_at = now()
RETURNING id, task_signature, instruction, url, plan, version, is_active, created_at, updated_at
`

type UpsertExecutionPlanParams struct {
	ID            int64
	TaskSignature string
	Instruction   string
	Url           string
	Plan          []byte
}

func (q *Queries) UpsertExecutionPlan(ctx context.Context, arg UpsertExecutionPlanParams) (ExecutionPlan, error) {
	row := q.db.QueryRow(ctx, upsertExecutionPlan, arg.ID, arg.TaskSignature, arg.Instruction, arg.Url, arg.Plan)
	var p ExecutionPlan
	err := row.Scan(&p.ID, &p.TaskSignature, &p.Instruction, &p.Url, &p.Plan, &p.Version, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const deactivateExecutionPlan = `
UPDATE execution_plans SET is_active = false, updated_at = now() WHERE id = $1
`

func (q *Queries) DeactivateExecutionPlan(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, deactivateExecutionPlan, id)
	return err
}

const createExecutionResult = `
INSERT INTO execution_results (id, task_id, plan_id, status, result, logs, error_message, execution_time_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
RETURNING id, task_id, plan_id, status, result, logs, error_message, execution_time_ms, created_at
`

type CreateExecutionResultParams struct {
	ID              int64
	TaskID          pgtype.Int8
	PlanID          pgtype.Int8
	Status          string
	Result          []byte
	Logs            []byte
	ErrorMessage    pgtype.Text
	ExecutionTimeMs int64
}

func (q *Queries) CreateExecutionResult(ctx context.Context, arg CreateExecutionResultParams) (ExecutionResult, error) {
	row := q.db.QueryRow(ctx, createExecutionResult, arg.ID, arg.TaskID, arg.PlanID, arg.Status, arg.Result, arg.Logs, arg.ErrorMessage, arg.ExecutionTimeMs)
	var r ExecutionResult
	err := row.Scan(&r.ID, &r.TaskID, &r.PlanID, &r.Status, &r.Result, &r.Logs, &r.ErrorMessage, &r.ExecutionTimeMs, &r.CreatedAt)
	return r, err
}

const getExecutionResult = `
SELECT id, task_id, plan_id, status, result, logs, error_message, execution_time_ms, created_at
FROM execution_results WHERE id = $1
`

func (q *Queries) GetExecutionResult(ctx context.Context, id int64) (ExecutionResult, error) {
	row := q.db.QueryRow(ctx, getExecutionResult, id)
	var r ExecutionResult
	err := row.Scan(&r.ID, &r.TaskID, &r.PlanID, &r.Status, &r.Result, &r.Logs, &r.ErrorMessage, &r.ExecutionTimeMs, &r.CreatedAt)
	return r, err
}

const getPlanCacheByKey = `
SELECT id, cache_key, plan_id, hit_count, last_used_at, expires_at, created_at
FROM plan_cache WHERE cache_key = $1
`

func (q *Queries) GetPlanCacheByKey(ctx context.Context, cacheKey string) (PlanCache, error) {
	row := q.db.QueryRow(ctx, getPlanCacheByKey, cacheKey)
	var c PlanCache
	err := row.Scan(&c.ID, &c.CacheKey, &c.PlanID, &c.HitCount, &c.LastUsedAt, &c.ExpiresAt, &c.CreatedAt)
	return c, err
}

const upsertPlanCache = `
INSERT INTO plan_cache (id, cache_key, plan_id, hit_count, last_used_at, expires_at, created_at)
VALUES ($1, $2, $3, 0, now(), $4, now())
ON CONFLICT (cache_key) DO UPDATE SET
	plan_id = EXCLUDED.plan_id,
	expires_at = EXCLUDED.expires_at,
	last_used_at = now()
RETURNING id, cache_key, plan_id, hit_count, last_used_at, expires_at, created_at
`

type UpsertPlanCacheParams struct {
	ID        int64
	CacheKey  string
	PlanID    int64
	ExpiresAt pgtype.Timestamptz
}

func (q *Queries) UpsertPlanCache(ctx context.Context, arg UpsertPlanCacheParams) (PlanCache, error) {
	row := q.db.QueryRow(ctx, upsertPlanCache, arg.ID, arg.CacheKey, arg.PlanID, arg.ExpiresAt)
	var c PlanCache
	err := row.Scan(&c.ID, &c.CacheKey, &c.PlanID, &c.HitCount, &c.LastUsedAt, &c.ExpiresAt, &c.CreatedAt)
	return c, err
}

const touchPlanCacheHit = `
UPDATE plan_cache SET hit_count = hit_count + 1, last_used_at = now() WHERE cache_key = $1
`

func (q *Queries) TouchPlanCacheHit(ctx context.Context, cacheKey string) error {
	_, err := q.db.Exec(ctx, touchPlanCacheHit, cacheKey)
	return err
}

const deleteExpiredPlanCache = `
DELETE FROM plan_cache WHERE expires_at < now()
`

func (q *Queries) DeleteExpiredPlanCache(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredPlanCache)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deletePlanCacheByKey = `
DELETE FROM plan_cache WHERE cache_key = $1
`

// DeletePlanCacheByKey deletes the cache entry for one key, leaving the
// underlying execution_plans row untouched.
func (q *Queries) DeletePlanCacheByKey(ctx context.Context, cacheKey string) (int64, error) {
	tag, err := q.db.Exec(ctx, deletePlanCacheByKey, cacheKey)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const countPlanCache = `SELECT count(*) FROM plan_cache`

func (q *Queries) CountPlanCache(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countPlanCache)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const createMonitoringSample = `
INSERT INTO monitoring_data (id, task_id, url, extracted_data, execution_id, timestamp)
VALUES ($1, $2, $3, $4, $5, now())
RETURNING id, task_id, url, extracted_data, execution_id, timestamp
`

type CreateMonitoringSampleParams struct {
	ID            int64
	TaskID        int64
	Url           string
	ExtractedData []byte
	ExecutionID   pgtype.Int8
}

func (q *Queries) CreateMonitoringSample(ctx context.Context, arg CreateMonitoringSampleParams) (MonitoringSample, error) {
	row := q.db.QueryRow(ctx, createMonitoringSample, arg.ID, arg.TaskID, arg.Url, arg.ExtractedData, arg.ExecutionID)
	var s MonitoringSample
	err := row.Scan(&s.ID, &s.TaskID, &s.Url, &s.ExtractedData, &s.ExecutionID, &s.Timestamp)
	return s, err
}

const getLatestMonitoringSample = `
SELECT id, task_id, url, extracted_data, execution_id, timestamp
FROM monitoring_data WHERE task_id = $1 ORDER BY timestamp DESC LIMIT 1
`

func (q *Queries) GetLatestMonitoringSample(ctx context.Context, taskID int64) (MonitoringSample, error) {
	row := q.db.QueryRow(ctx, getLatestMonitoringSample, taskID)
	var s MonitoringSample
	err := row.Scan(&s.ID, &s.TaskID, &s.Url, &s.ExtractedData, &s.ExecutionID, &s.Timestamp)
	return s, err
}

const listMonitoringSamples = `
SELECT id, task_id, url, extracted_data, execution_id, timestamp
FROM monitoring_data WHERE task_id = $1 ORDER BY timestamp DESC LIMIT $2
`

func (q *Queries) ListMonitoringSamples(ctx context.Context, taskID int64, limit int32) ([]MonitoringSample, error) {
	rows, err := q.db.Query(ctx, listMonitoringSamples, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonitoringSample
	for rows.Next() {
		var s MonitoringSample
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Url, &s.ExtractedData, &s.ExecutionID, &s.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const createChangeDetection = `
INSERT INTO change_detections (id, task_id, execution_id, changed_fields, is_restock, change_details, detected_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
RETURNING id, task_id, execution_id, changed_fields, is_restock, change_details, detected_at
`

type CreateChangeDetectionParams struct {
	ID            int64
	TaskID        int64
	ExecutionID   pgtype.Int8
	ChangedFields []byte
	IsRestock     bool
	ChangeDetails []byte
}

func (q *Queries) CreateChangeDetection(ctx context.Context, arg CreateChangeDetectionParams) (ChangeDetection, error) {
	row := q.db.QueryRow(ctx, createChangeDetection, arg.ID, arg.TaskID, arg.ExecutionID, arg.ChangedFields, arg.IsRestock, arg.ChangeDetails)
	var c ChangeDetection
	err := row.Scan(&c.ID, &c.TaskID, &c.ExecutionID, &c.ChangedFields, &c.IsRestock, &c.ChangeDetails, &c.DetectedAt)
	return c, err
}

const listChangeDetections = `
SELECT id, task_id, execution_id, changed_fields, is_restock, change_details, detected_at
FROM change_detections WHERE task_id = $1 ORDER BY detected_at DESC LIMIT $2
`

func (q *Queries) ListChangeDetections(ctx context.Context, taskID int64, limit int32) ([]ChangeDetection, error) {
	rows, err := q.db.Query(ctx, listChangeDetections, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChangeDetection
	for rows.Next() {
		var c ChangeDetection
		if err := rows.Scan(&c.ID, &c.TaskID, &c.ExecutionID, &c.ChangedFields, &c.IsRestock, &c.ChangeDetails, &c.DetectedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
