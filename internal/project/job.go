// Package project persists nesting jobs, run results and custom G-code
// profiles.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/piwi3910/NestCut/internal/model"
)

// JobVersion is written into every saved job.
const JobVersion = "1.0.0"

// ErrNoVersion is returned when a job or result file lacks a version field.
var ErrNoVersion = errors.New("missing version field")

// Job is a saved nesting request: the settings plus the parts to nest,
// given inline or as files to import. Source paths are relative to the
// job file unless absolute.
type Job struct {
	Version   string             `json:"version" toml:"version"`
	ID        string             `json:"id" toml:"id"`
	Name      string             `json:"name" toml:"name"`
	CreatedAt time.Time          `json:"created_at" toml:"created_at"`
	Sources   []string           `json:"sources,omitempty" toml:"sources,omitempty"`
	Settings  model.NestSettings `json:"settings" toml:"settings"`
	Parts     []model.Part       `json:"parts,omitempty" toml:"parts,omitempty"`
}

// NewJob creates a job with a fresh ID.
func NewJob(name string, settings model.NestSettings, parts []model.Part) Job {
	return Job{
		Version:   JobVersion,
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Settings:  settings,
		Parts:     parts,
	}
}

// ResolveSources returns the job's source paths made absolute against the
// directory of the job file.
func (j Job) ResolveSources(jobPath string) []string {
	dir := filepath.Dir(jobPath)
	out := make([]string, len(j.Sources))
	for i, s := range j.Sources {
		if filepath.IsAbs(s) {
			out[i] = s
		} else {
			out[i] = filepath.Join(dir, s)
		}
	}
	return out
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// SaveJob writes job to path as TOML when the extension is .toml and as
// indented JSON otherwise. Missing parent directories are created.
func SaveJob(path string, job Job) error {
	if job.Version == "" {
		job.Version = JobVersion
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(job); err != nil {
			return fmt.Errorf("failed to encode job: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = json.MarshalIndent(job, "", "  "); err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write job file: %w", err)
	}
	return nil
}

// LoadJob reads a job written by SaveJob. Settings missing from the file
// keep their defaults.
func LoadJob(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("failed to read job file: %w", err)
	}

	job := Job{Settings: model.DefaultSettings()}
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &job); err != nil {
			return Job{}, fmt.Errorf("failed to parse job file: %w", err)
		}
	} else if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("failed to parse job file: %w", err)
	}

	if job.Version == "" {
		return Job{}, fmt.Errorf("invalid job file %s: %w", path, ErrNoVersion)
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	return job, nil
}
