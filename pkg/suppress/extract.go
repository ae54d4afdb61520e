// Package suppress implements the #pragma diagnostic directives that mute
// diagnostics for a region of a script.
//
// A directive lives in a comment:
//
//	-- #pragma diagnostic disable AJ5001, AJ5004 -> legacy table, fixed in v2
//	SELECT * FROM dbo.Legacy
//	-- #pragma diagnostic restore AJ5001
//
// Disable pushes each listed id onto a stack; restore removes the most recent
// matching entry. An issue is suppressed when its id is active at the issue's
// start location.
package suppress

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/token"
)

var directiveRe = regexp.MustCompile(`(?i)#pragma[ \t]+diagnostic[ \t]+(disable|restore)\b([^\r\n]*)`)

// Extract scans every comment of script for directives. One directive naming
// several ids yields one suppression per id, all at the directive's location.
func Extract(script *core.Script) []core.Suppression {
	if script == nil {
		return nil
	}
	var out []core.Suppression
	for _, c := range script.Comments {
		out = append(out, FromComment(c)...)
	}
	return out
}

// FromComment returns the suppressions declared by a single comment.
func FromComment(c *token.Comment) []core.Suppression {
	var out []core.Suppression
	for _, m := range directiveRe.FindAllStringSubmatchIndex(c.Text, -1) {
		action := core.SuppressionDisable
		if strings.EqualFold(c.Text[m[2]:m[3]], "restore") {
			action = core.SuppressionRestore
		}

		ids, reason := splitReason(c.Text[m[4]:m[5]])
		pos := c.PositionAt(m[0])
		loc := core.CodeLocation{Line: pos.Line, Column: pos.Column}

		for _, id := range splitIDs(ids) {
			out = append(out, core.Suppression{
				DiagnosticID: id,
				Location:     loc,
				Action:       action,
				Reason:       reason,
			})
		}
	}
	return out
}

// splitReason separates "ids -> reason", dropping a block comment terminator.
func splitReason(rest string) (ids, reason string) {
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimSuffix(rest, "*/"))
	ids, reason, _ = strings.Cut(rest, "->")
	return ids, strings.TrimSpace(reason)
}

func splitIDs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == ' ' || r == '\t'
	})
}
