package core

// ScriptModel is one parsed script plus everything derived from it.
// It is immutable once built by the loader.
type ScriptModel struct {
	DatabaseName string
	Path         string
	Text         string
	Root         *Script
	Parents      ParentMap
	Errors       []error
	Suppressions []Suppression
}

// NewScriptModel builds the parent lookup for root.
func NewScriptModel(databaseName, path, text string, root *Script, errs []error, suppressions []Suppression) *ScriptModel {
	return &ScriptModel{
		DatabaseName: databaseName,
		Path:         path,
		Text:         text,
		Root:         root,
		Parents:      BuildParentMap(root),
		Errors:       errs,
		Suppressions: suppressions,
	}
}

// HasErrors reports whether the script failed to parse cleanly.
func (s *ScriptModel) HasErrors() bool {
	return len(s.Errors) > 0
}

// Parent returns the parent of n.
func (s *ScriptModel) Parent(n Node) (Node, bool) {
	return s.Parents.Parent(n)
}

// Statements returns the top-level statements of every batch, in order.
func (s *ScriptModel) Statements() []Stmt {
	if s.Root == nil {
		return nil
	}
	var out []Stmt
	for _, b := range s.Root.Batches {
		out = append(out, b.Statements...)
	}
	return out
}

// SourceText returns the literal source covered by n.
func (s *ScriptModel) SourceText(n Node) string {
	span := n.GetSpan()
	if !span.IsValid() || span.Start.Offset < 0 || span.End.Offset > len(s.Text) || span.Start.Offset > span.End.Offset {
		return ""
	}
	return s.Text[span.Start.Offset:span.End.Offset]
}

// DatabaseAt returns the database in effect at n: the most recent preceding
// USE statement, or the script's database name. USE inside control-flow
// blocks counts; USE inside routine bodies does not.
func (s *ScriptModel) DatabaseAt(n Node) string {
	db := s.DatabaseName
	if s.Root == nil {
		return db
	}
	offset := n.Pos().Offset
	Walk(s.Root, func(c Node) bool {
		if c.Pos().Offset > offset {
			return false
		}
		switch c := c.(type) {
		case *Script, *Batch, *BlockStmt, *IfStmt, *WhileStmt:
			return true
		case *UseStmt:
			db = c.Database.Value
		}
		return false
	})
	return db
}
