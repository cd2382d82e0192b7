package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/NestCut/internal/engine"
	"github.com/piwi3910/NestCut/internal/model"
)

// ResultRecord is the persisted outcome of one run.
type ResultRecord struct {
	Version     string             `json:"version"`
	RunID       string             `json:"run_id"`
	JobID       string             `json:"job_id,omitempty"`
	CreatedAt   string             `json:"created_at"`
	Mode        string             `json:"mode"`
	Status      string             `json:"status"`
	Detail      string             `json:"detail,omitempty"`
	Fitness     float64            `json:"fitness"`
	SheetsUsed  int                `json:"sheets_used"`
	Generations int                `json:"generations"`
	Evaluations int                `json:"evaluations"`
	DurationMS  int64              `json:"duration_ms"`
	Settings    model.NestSettings `json:"settings"`
	Solution    model.Solution     `json:"solution"`
	Layout      model.SheetLayout  `json:"layout"`
}

// Feasible reports whether the recorded solution passed every check.
func (r ResultRecord) Feasible() bool {
	return r.Status == engine.Feasible.String()
}

// NewResultRecord captures a finished run under a fresh run ID.
func NewResultRecord(jobID string, settings model.NestSettings, res engine.Result) ResultRecord {
	return ResultRecord{
		Version:     JobVersion,
		RunID:       uuid.New().String(),
		JobID:       jobID,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Mode:        string(res.Mode),
		Status:      res.Evaluation.Status.String(),
		Detail:      res.Evaluation.Detail,
		Fitness:     res.Fitness(),
		SheetsUsed:  res.Evaluation.SheetsUsed,
		Generations: res.Generations,
		Evaluations: res.Evaluations,
		DurationMS:  res.Duration.Milliseconds(),
		Settings:    settings,
		Solution:    res.Solution,
		Layout:      res.Layout,
	}
}

// SaveResult writes the record as indented JSON, creating missing
// parent directories.
func SaveResult(path string, rec ResultRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

// LoadResult reads a record written by SaveResult.
func LoadResult(path string) (ResultRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ResultRecord{}, fmt.Errorf("failed to read result file: %w", err)
	}
	var rec ResultRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ResultRecord{}, fmt.Errorf("failed to parse result file: %w", err)
	}
	if rec.Version == "" {
		return ResultRecord{}, fmt.Errorf("invalid result file %s: %w", path, ErrNoVersion)
	}
	return rec, nil
}
