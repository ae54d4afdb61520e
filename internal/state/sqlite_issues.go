package state

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

const insertIssue = `INSERT INTO issues (
	run_id, diagnostic_id, issue_type, script_path, database_name, object_name,
	begin_line, begin_column, end_line, end_column, message, suppressed, suppression_reason
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SaveIssues stores the issues of a run in a single transaction.
func (s *SQLiteStore) SaveIssues(runID string, issues []*core.Issue, suppressed []core.SuppressedIssue) error {
	if s.db == nil {
		return errNotOpened()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(insertIssue)
	if err != nil {
		return fmt.Errorf("failed to prepare issue insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	insert := func(issue *core.Issue, muted bool, reason string) error {
		r := issue.Region
		_, err := stmt.Exec(runID, issue.DiagnosticID(), issue.Type().String(), issue.ScriptPath,
			issue.DatabaseName, issue.ObjectName,
			r.Begin.Line, r.Begin.Column, r.End.Line, r.End.Column,
			issue.Message, muted, reason)
		return err
	}

	for _, issue := range issues {
		if err := insert(issue, false, ""); err != nil {
			return fmt.Errorf("failed to save issue %s: %w", issue.DiagnosticID(), err)
		}
	}
	for _, si := range suppressed {
		if err := insert(si.Issue, true, si.Reason); err != nil {
			return fmt.Errorf("failed to save suppressed issue %s: %w", si.Issue.DiagnosticID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit issues: %w", err)
	}
	s.logger.Debug("saved issues", slog.String("run", runID),
		slog.Int("issues", len(issues)), slog.Int("suppressed", len(suppressed)))
	return nil
}

// GetRunIssues returns the stored issues of a run in script and region order.
func (s *SQLiteStore) GetRunIssues(runID string) ([]StoredIssue, error) {
	if s.db == nil {
		return nil, errNotOpened()
	}

	rows, err := s.db.Query(`SELECT diagnostic_id, issue_type, script_path, database_name, object_name,
		begin_line, begin_column, end_line, end_column, message, suppressed, suppression_reason
		FROM issues WHERE run_id = ?
		ORDER BY script_path, begin_line, begin_column, end_line, end_column, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []StoredIssue
	for rows.Next() {
		var si StoredIssue
		r := &si.Region
		if err := rows.Scan(&si.DiagnosticID, &si.Type, &si.ScriptPath, &si.DatabaseName, &si.ObjectName,
			&r.Begin.Line, &r.Begin.Column, &r.End.Line, &r.End.Column,
			&si.Message, &si.Suppressed, &si.SuppressionReason); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run issues: %w", err)
	}
	return issues, nil
}
