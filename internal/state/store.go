// Package state keeps a history of analysis runs and their issues in SQLite.
package state

import (
	"errors"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded analysis.
type Run struct {
	ID              string     `json:"id" yaml:"id"`
	Status          RunStatus  `json:"status" yaml:"status"`
	Root            string     `json:"root" yaml:"root"`
	StartedAt       time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Error           string     `json:"error,omitempty" yaml:"error,omitempty"`
	ScriptCount     int        `json:"script_count" yaml:"script_count"`
	IssueCount      int        `json:"issue_count" yaml:"issue_count"`
	SuppressedCount int        `json:"suppressed_count" yaml:"suppressed_count"`
}

// RunSummary holds the counts recorded when a run completes.
type RunSummary struct {
	ScriptCount     int
	IssueCount      int
	SuppressedCount int
}

// StoredIssue is an issue as persisted. The diagnostic definition is
// flattened because definitions are not stored.
type StoredIssue struct {
	DiagnosticID      string          `json:"diagnostic_id" yaml:"diagnostic_id"`
	Type              string          `json:"type" yaml:"type"`
	ScriptPath        string          `json:"script_path" yaml:"script_path"`
	DatabaseName      string          `json:"database_name,omitempty" yaml:"database_name,omitempty"`
	ObjectName        string          `json:"object_name,omitempty" yaml:"object_name,omitempty"`
	Region            core.CodeRegion `json:"region" yaml:"region"`
	Message           string          `json:"message" yaml:"message"`
	Suppressed        bool            `json:"suppressed" yaml:"suppressed"`
	SuppressionReason string          `json:"suppression_reason,omitempty" yaml:"suppression_reason,omitempty"`
}

// Store persists runs.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(root string) (*Run, error)
	CompleteRun(id string, status RunStatus, summary RunSummary, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	SaveIssues(runID string, issues []*core.Issue, suppressed []core.SuppressedIssue) error
	GetRunIssues(runID string) ([]StoredIssue, error)
}

var _ Store = (*SQLiteStore)(nil)
