package core

// SuppressionAction is the verb of a #pragma diagnostic directive.
type SuppressionAction int

// Suppression actions.
const (
	SuppressionDisable SuppressionAction = iota
	SuppressionRestore
)

func (a SuppressionAction) String() string {
	if a == SuppressionRestore {
		return "restore"
	}
	return "disable"
}

// Suppression is one diagnostic id named by a directive comment.
// A single comment listing several ids yields several suppressions at the same location.
type Suppression struct {
	DiagnosticID string
	Location     CodeLocation
	Action       SuppressionAction
	Reason       string
}

// SuppressedIssue pairs a muted issue with the reason given by the directive that muted it.
type SuppressedIssue struct {
	Issue  *Issue
	Reason string
}
