package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/NestCut/internal/engine"
	"github.com/piwi3910/NestCut/internal/model"
)

func testResult() engine.Result {
	return engine.Result{
		Solution: model.Solution{
			{PartIndex: 0, X: 10, Y: 20, Angle: 90, SheetIndex: 0},
			{PartIndex: 1, X: 300, Y: 20, Angle: 0, SheetIndex: 1},
		},
		Evaluation:  engine.Evaluation{Status: engine.Feasible, Utilization: 0.42, SheetsUsed: 2},
		Layout:      model.SheetLayout{Width: 1000, Height: 500, Sheets: []model.LayoutSheet{{Index: 0}, {Index: 1}}},
		Mode:        engine.ModeGenetic,
		Generations: 5,
		Evaluations: 120,
		Duration:    1500 * time.Millisecond,
	}
}

func TestNewResultRecord(t *testing.T) {
	settings := model.DefaultSettings()
	rec := NewResultRecord("job-1", settings, testResult())

	assert.Equal(t, JobVersion, rec.Version)
	assert.Len(t, rec.RunID, 36)
	assert.Equal(t, "job-1", rec.JobID)
	assert.Equal(t, "genetic", rec.Mode)
	assert.Equal(t, "feasible", rec.Status)
	assert.True(t, rec.Feasible())
	assert.Equal(t, 0.42, rec.Fitness)
	assert.Equal(t, 2, rec.SheetsUsed)
	assert.Equal(t, int64(1500), rec.DurationMS)
	assert.Equal(t, 120, rec.Evaluations)

	_, err := time.Parse(time.RFC3339, rec.CreatedAt)
	assert.NoError(t, err)
}

func TestNewResultRecordInfeasible(t *testing.T) {
	res := testResult()
	res.Evaluation = engine.Evaluation{Status: engine.Overlapping, Utilization: 0.9, Detail: "parts 0 and 1 overlap"}

	rec := NewResultRecord("", model.DefaultSettings(), res)
	assert.False(t, rec.Feasible())
	assert.Equal(t, 0.0, rec.Fitness, "infeasible runs record zero fitness")
	assert.Equal(t, "overlapping", rec.Status)
	assert.Equal(t, "parts 0 and 1 overlap", rec.Detail)
}

func TestSaveAndLoadResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	rec := NewResultRecord("job-1", model.DefaultSettings(), testResult())

	require.NoError(t, SaveResult(path, rec))
	loaded, err := LoadResult(path)
	require.NoError(t, err)

	assert.Equal(t, rec, loaded)
}

func TestLoadResultErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadResult(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0644))
	_, err = LoadResult(bad)
	assert.Error(t, err)

	noVersion := filepath.Join(dir, "old.json")
	require.NoError(t, os.WriteFile(noVersion, []byte(`{"run_id": "x"}`), 0644))
	_, err = LoadResult(noVersion)
	assert.ErrorIs(t, err, ErrNoVersion)
}
