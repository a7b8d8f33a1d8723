package change

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"pagewatch.dev/core/common/id"
	"pagewatch.dev/core/core/db"
	"pagewatch.dev/core/core/db/sqlc"
	"pagewatch.dev/core/internal/model"
)

// Store is the append-only MonitoringSample/ChangeRecord persistence
// layer: it never updates or deletes a row, only inserts.
type Store struct {
	db *db.DB
}

// NewStore wraps an already-connected DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Latest returns the most recent MonitoringSample for a task, or nil if
// none has been recorded yet.
func (s *Store) Latest(ctx context.Context, taskID int64) (*model.MonitoringSample, error) {
	row, err := s.db.Queries().GetLatestMonitoringSample(ctx, taskID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, model.NewInternalError("failed to load latest monitoring sample", err)
	}
	return decodeSample(row)
}

// RecordSample appends a new MonitoringSample row.
func (s *Store) RecordSample(ctx context.Context, sample model.MonitoringSample) error {
	encoded, err := json.Marshal(sample.ExtractedData)
	if err != nil {
		return model.NewInternalError("failed to encode extracted data", err)
	}
	_, err = s.db.Queries().CreateMonitoringSample(ctx, sqlc.CreateMonitoringSampleParams{
		ID:            id.New(),
		TaskID:        sample.TaskID,
		Url:           sample.URL,
		ExtractedData: encoded,
		ExecutionID:   pgtype.Int8{Int64: sample.ExecutionID, Valid: sample.ExecutionID != 0},
	})
	if err != nil {
		return model.NewInternalError("failed to record monitoring sample", err)
	}
	return nil
}

// DetectAndRecord loads the task's prior sample, diffs it against curr,
// persists curr as the new sample, and — unless this is the first
// observation — appends a ChangeRecord row for the diff, even when
// nothing changed, since ChangeRecord is append-only history rather than
// a "changes only" log.
func (s *Store) DetectAndRecord(ctx context.Context, taskID, executionID int64, url string, curr map[string]any) (Result, error) {
	prevSample, err := s.Latest(ctx, taskID)
	if err != nil {
		return Result{}, err
	}

	var prev map[string]any
	if prevSample != nil {
		prev = prevSample.ExtractedData
	}
	result := HasChanged(prev, curr)

	if err := s.RecordSample(ctx, model.MonitoringSample{
		TaskID:        taskID,
		URL:           url,
		ExtractedData: curr,
		ExecutionID:   executionID,
	}); err != nil {
		return result, err
	}

	if result.IsFirstExecution {
		return result, nil
	}

	var detailsJSON []byte
	if len(result.ChangedFields) > 0 {
		details := GetChangeDetails(prev, curr, result.ChangedFields)
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return result, model.NewInternalError("failed to encode change details", err)
		}
	}
	changedJSON, err := json.Marshal(result.ChangedFields)
	if err != nil {
		return result, model.NewInternalError("failed to encode changed fields", err)
	}

	if _, err := s.db.Queries().CreateChangeDetection(ctx, sqlc.CreateChangeDetectionParams{
		ID:            id.New(),
		TaskID:        taskID,
		ExecutionID:   pgtype.Int8{Int64: executionID, Valid: executionID != 0},
		ChangedFields: changedJSON,
		IsRestock:     result.IsRestock,
		ChangeDetails: detailsJSON,
	}); err != nil {
		return result, model.NewInternalError("failed to record change detection", err)
	}

	return result, nil
}

func decodeSample(row sqlc.MonitoringSample) (*model.MonitoringSample, error) {
	var extracted map[string]any
	if len(row.ExtractedData) > 0 {
		if err := json.Unmarshal(row.ExtractedData, &extracted); err != nil {
			return nil, model.NewInternalError("failed to decode monitoring sample", err)
		}
	}
	return &model.MonitoringSample{
		TaskID:        row.TaskID,
		URL:           row.Url,
		ExtractedData: extracted,
		ExecutionID:   row.ExecutionID.Int64,
		CapturedAt:    row.Timestamp,
	}, nil
}
